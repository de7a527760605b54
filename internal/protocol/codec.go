package protocol

import "github.com/openbench/bench-core/internal/command"

// UnitKind discriminates the decoded unit variants.
type UnitKind int

const (
	// UnitMeasurement carries a normalized reading.
	UnitMeasurement UnitKind = iota

	// UnitAck acknowledges a control-only command with no value.
	UnitAck
)

// DecodedUnit is one complete result produced by a codec's Decode.
type DecodedUnit struct {
	Kind        UnitKind
	Measurement Measurement
}

// Codec is the per-instrument encoder and decoder.
//
// Encode maps a Command to an outbound Frame. Decode consumes one
// inbound Frame and returns the complete units it yields; see the
// package documentation for the partial/error discipline. Codecs may
// buffer partial messages between Decode calls and are not safe for
// concurrent use; a Device owns exactly one codec instance.
type Codec interface {
	// Encode converts a command to its wire frame. Encoding a Raw
	// command must not fail for device-policy reasons; only commands
	// with no wire mapping at all return ErrUnsupported.
	Encode(cmd command.Command) (Frame, error)

	// Decode feeds one inbound frame to the decoder.
	Decode(f Frame) ([]DecodedUnit, error)

	// ExpectsReply reports whether the instrument answers the command
	// with inbound frames. Control-only commands are acknowledged by
	// the pipeline without reading.
	ExpectsReply(cmd command.Command) bool

	// Reset clears any buffered partial message, realigning the decoder
	// at a frame boundary. Called at session start.
	Reset()
}
