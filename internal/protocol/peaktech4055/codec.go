// Package peaktech4055 implements the control protocol of the PeakTech
// 4055MV waveform generator.
//
// Commands map to fixed-layout binary packets sent over the USB bulk
// OUT endpoint:
//
//	Apply: opcode ‖ waveform ‖ frequency (uint32 BE, centihertz)
//	       ‖ amplitude (int16 BE, millivolts) ‖ offset (int16 BE, millivolts)
//	Reset: opcode, no payload
//
// The instrument does not answer control packets; an ACK byte only
// appears on the IN endpoint for firmware queries, and a settings echo
// packet mirrors the Apply layout. Decode handles both so a round trip
// through the codec reproduces the Apply parameters within the scaled
// integer ranges.
package peaktech4055

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/openbench/bench-core/internal/command"
	"github.com/openbench/bench-core/internal/protocol"
)

// Opcodes understood by the generator.
const (
	opApply byte = 0x01
	opReset byte = 0x0F

	// ackByte is the single-byte acknowledgement the device emits on
	// the IN endpoint after accepting a control packet, when polled.
	ackByte byte = 0x06
)

// Packet geometry and field scaling.
const (
	applyPacketLen = 10

	// centihertzPerHertz scales frequency to the packet's uint32 field:
	// 0.01 Hz resolution with a ceiling near 42.9 MHz.
	centihertzPerHertz = 100

	// millivoltsPerVolt scales amplitude and offset to int16 fields:
	// 1 mV resolution, ±32.767 V.
	millivoltsPerVolt = 1000

	maxFrequencyHz = math.MaxUint32 / centihertzPerHertz
	maxVolts       = math.MaxInt16 / millivoltsPerVolt
)

// Codec encodes generator commands. The generator produces no
// measurement stream; decode handles acknowledgement bytes and the
// settings echo packet only.
type Codec struct{}

// New returns the generator codec.
func New() *Codec {
	return &Codec{}
}

// Encode maps a command to its control packet.
//
// Raw commands use the same opcode table and must not fail for
// device-policy reasons; out-of-range Apply parameters saturate at the
// field limits instead of erroring so a Raw pass-through always
// produces bytes.
func (c *Codec) Encode(cmd command.Command) (protocol.Frame, error) {
	switch cmd.Kind {
	case command.KindReset:
		return protocol.Frame{
			Kind:      protocol.FrameBulk,
			Direction: protocol.Outbound,
			Data:      []byte{opReset},
		}, nil

	case command.KindApply:
		if !cmd.Raw {
			if err := validateApply(cmd.Apply); err != nil {
				return protocol.Frame{}, err
			}
		}
		return protocol.Frame{
			Kind:      protocol.FrameBulk,
			Direction: protocol.Outbound,
			Data:      encodeApply(cmd.Apply),
		}, nil

	default:
		if cmd.Raw {
			// Raw forces byte-exact transmission of anything the opcode
			// table can express; unknown kinds still have no bytes.
			return protocol.Frame{}, fmt.Errorf("%w: %s has no PeakTech opcode",
				protocol.ErrUnsupported, cmd.Kind)
		}
		return protocol.Frame{}, fmt.Errorf("%w: %s on PeakTech 4055MV",
			protocol.ErrUnsupported, cmd.Kind)
	}
}

func validateApply(a command.ApplyArgs) error {
	if a.Frequency < 0 || a.Frequency > maxFrequencyHz {
		return fmt.Errorf("%w: frequency %g Hz outside 0-%d Hz",
			protocol.ErrEncode, a.Frequency, int(maxFrequencyHz))
	}
	if a.Amplitude < -maxVolts || a.Amplitude > maxVolts {
		return fmt.Errorf("%w: amplitude %g V outside ±%d V",
			protocol.ErrEncode, a.Amplitude, int(maxVolts))
	}
	if a.Offset < -maxVolts || a.Offset > maxVolts {
		return fmt.Errorf("%w: offset %g V outside ±%d V",
			protocol.ErrEncode, a.Offset, int(maxVolts))
	}
	return nil
}

func encodeApply(a command.ApplyArgs) []byte {
	buf := make([]byte, applyPacketLen)
	buf[0] = opApply
	buf[1] = byte(a.Waveform)
	binary.BigEndian.PutUint32(buf[2:6], uint32(clamp(a.Frequency*centihertzPerHertz, 0, math.MaxUint32)))
	binary.BigEndian.PutUint16(buf[6:8], uint16(int16(clamp(a.Amplitude*millivoltsPerVolt, math.MinInt16, math.MaxInt16))))
	binary.BigEndian.PutUint16(buf[8:10], uint16(int16(clamp(a.Offset*millivoltsPerVolt, math.MinInt16, math.MaxInt16))))
	return buf
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, math.Round(v)))
}

// Decode interprets IN-endpoint traffic: a lone ACK byte or a settings
// echo packet. The generator never streams readings, so anything else
// is a decode diagnostic and the next frame starts clean.
func (c *Codec) Decode(f protocol.Frame) ([]protocol.DecodedUnit, error) {
	switch {
	case len(f.Data) == 0:
		return nil, nil

	case len(f.Data) == 1 && f.Data[0] == ackByte:
		return []protocol.DecodedUnit{{Kind: protocol.UnitAck}}, nil

	case f.Data[0] == opApply && len(f.Data) == applyPacketLen:
		a := DecodeApply(f.Data)
		return []protocol.DecodedUnit{{
			Kind: protocol.UnitMeasurement,
			Measurement: protocol.Measurement{
				Value:     a.Frequency,
				Unit:      protocol.UnitHertz,
				Mode:      command.KindApply,
				Timestamp: time.Now(),
				Function:  a.Waveform.String(),
			},
		}}, nil

	default:
		return nil, fmt.Errorf("%w: unrecognised generator response % X",
			protocol.ErrDecode, f.Data)
	}
}

// DecodeApply unpacks an Apply-layout packet back into its parameters.
// Exposed for round-trip verification of the wire format.
func DecodeApply(data []byte) command.ApplyArgs {
	if len(data) != applyPacketLen || data[0] != opApply {
		return command.ApplyArgs{}
	}
	return command.ApplyArgs{
		Waveform:  command.Waveform(data[1]),
		Frequency: float64(binary.BigEndian.Uint32(data[2:6])) / centihertzPerHertz,
		Amplitude: float64(int16(binary.BigEndian.Uint16(data[6:8]))) / millivoltsPerVolt,
		Offset:    float64(int16(binary.BigEndian.Uint16(data[8:10]))) / millivoltsPerVolt,
		Args:      3,
	}
}

// ExpectsReply is false for every generator command; control packets
// are fire-and-forget and acknowledged locally.
func (c *Codec) ExpectsReply(command.Command) bool {
	return false
}

// Reset is a no-op; the generator codec keeps no stream state.
func (c *Codec) Reset() {}
