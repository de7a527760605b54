package transport

import "errors"

// Sentinel errors for transport failures. Callers use errors.Is to
// distinguish an instrument that never opened from one that went away
// mid-session.
var (
	// ErrOpenFailed indicates the device could not be opened: absent,
	// busy, or permission denied.
	ErrOpenFailed = errors.New("transport: open failed")

	// ErrIO indicates a read or write failed after the device opened.
	ErrIO = errors.New("transport: i/o failure")

	// ErrTimeout indicates no frame arrived within the read window.
	// Pollable instruments time out routinely between reports.
	ErrTimeout = errors.New("transport: read timeout")

	// ErrClosed indicates use of a transport after Close.
	ErrClosed = errors.New("transport: closed")

	// ErrBadAddress indicates an unparseable device address.
	ErrBadAddress = errors.New("transport: bad address")
)
