package sink

import "errors"

var (
	// ErrEmitFailed indicates a sink could not deliver an event.
	ErrEmitFailed = errors.New("sink: emit failed")

	// ErrCloseFailed indicates a sink could not flush or release its
	// destination on close.
	ErrCloseFailed = errors.New("sink: close failed")
)
