package protocol

import "errors"

// Domain errors for instrument codecs.
var (
	// ErrDecode is returned when an inbound frame is malformed. It is
	// recoverable: the decoder resynchronises to the next recognisable
	// frame boundary before returning.
	ErrDecode = errors.New("protocol: frame decode failed")

	// ErrEncode is returned when a command cannot be represented in the
	// instrument's wire format. Raw commands never fail to encode; only
	// the transport write can fail for them.
	ErrEncode = errors.New("protocol: command encode failed")

	// ErrUnsupported is returned by Encode when the codec has no wire
	// mapping at all for the command kind (distinct from a capability
	// mismatch, which is a device-level policy decision).
	ErrUnsupported = errors.New("protocol: command not representable")
)
