package instrument

import "errors"

var (
	// ErrUnknownDevice indicates a model name the registry does not carry.
	ErrUnknownDevice = errors.New("instrument: unknown device")

	// ErrCapabilityMismatch indicates a command the model does not support.
	ErrCapabilityMismatch = errors.New("instrument: command not supported by device")

	// ErrTransportMismatch indicates a transport the model cannot attach over.
	ErrTransportMismatch = errors.New("instrument: transport not supported by device")

	// ErrNotOpen indicates use of a device before Open or after Close.
	ErrNotOpen = errors.New("instrument: device not open")
)
