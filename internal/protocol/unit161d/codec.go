// Package unit161d implements the wire protocol of the Uni-T UT161D
// multimeter, which presents as a HID device behind a serial bridge.
//
// Outbound commands and inbound readings share one container format:
//
//	0xAB 0xCD <len> <payload…> <sum.hi> <sum.lo>
//
// where the 16-bit additive checksum covers everything from the 0xAB
// header up to (not including) itself. On the HID layer each 64-byte
// report carries a leading valid-byte count; messages span reports, so
// the decoder is a resynchronising stream scanner rather than a
// per-report parser.
package unit161d

import (
	"fmt"

	"github.com/openbench/bench-core/internal/command"
	"github.com/openbench/bench-core/internal/protocol"
)

// header is the preamble of every UT161D message, followed by the
// payload length byte (0x03 for outbound commands).
var header = []byte{0xAB, 0xCD}

const (
	// cmdPayloadLen is the payload length of an outbound command.
	cmdPayloadLen = 0x03

	// cmdChecksumBias is added to the command code to form the 16-bit
	// trailer of an outbound command (covers the fixed header bytes).
	cmdChecksumBias = 379

	// minMessageLen is the smallest plausible inbound message body:
	// a 14-byte reading plus the 2-byte checksum.
	minMessageLen = 16

	// maxMessageLen bounds the inbound length byte; anything larger is
	// treated as stream corruption.
	maxMessageLen = 60
)

// Command codes as sent to the instrument.
const (
	codeMeasure    = 94
	codeMinMax     = 65
	codeNotMinMax  = 66
	codeRange      = 70
	codeAuto       = 71
	codeRel        = 72
	codeSelect2    = 73
	codeHold       = 74
	codeLamp       = 75
	codeSelect1    = 76
	codePeakMinMax = 77
	codeNotPeak    = 78
)

var commandCodes = map[command.Kind]uint16{
	command.KindMeasure:    codeMeasure,
	command.KindMinMax:     codeMinMax,
	command.KindNotMinMax:  codeNotMinMax,
	// Reset exits min/max tracking; the instrument has no broader
	// reset opcode.
	command.KindReset:      codeNotMinMax,
	command.KindRange:      codeRange,
	command.KindAuto:       codeAuto,
	command.KindRel:        codeRel,
	command.KindSelect2:    codeSelect2,
	command.KindHold:       codeHold,
	command.KindLamp:       codeLamp,
	command.KindSelect1:    codeSelect1,
	command.KindPeakMinMax: codePeakMinMax,
	command.KindNotPeak:    codeNotPeak,
}

// decoder states for the inbound stream scanner.
const (
	stateHunt = iota // searching for 0xAB
	stateCD          // 0xAB seen, expecting 0xCD
	stateLen         // header seen, expecting length byte
	stateBody        // collecting payload + checksum
)

// Codec encodes UT161D commands and decodes the reading stream.
//
// The decoder keeps partial-message state between Decode calls and is
// not safe for concurrent use.
type Codec struct {
	// mode is the command kind stamped onto decoded measurements, so
	// readings carry their originating mode downstream.
	mode command.Kind

	state int
	body  []byte
	need  int
	sum   uint32
}

// New returns a codec aligned at a frame boundary, in Measure mode.
func New() *Codec {
	return &Codec{mode: command.KindMeasure, state: stateHunt}
}

// Encode maps a command to the HID report payload that requests it.
//
// The wire form is <len> 0xAB 0xCD 0x03 <code.lo> <biased.hi>
// <biased.lo> where biased = code + 379; the leading byte is the HID
// report's valid-byte count.
func (c *Codec) Encode(cmd command.Command) (protocol.Frame, error) {
	code, ok := commandCodes[cmd.Kind]
	if !ok {
		return protocol.Frame{}, fmt.Errorf("%w: %s on UT161D",
			protocol.ErrUnsupported, cmd.Kind)
	}

	biased := code + cmdChecksumBias
	seq := []byte{
		header[0], header[1], cmdPayloadLen,
		byte(code & 0xFF),
		byte(biased >> 8),
		byte(biased & 0xFF),
	}

	// Track the acquisition mode for decoded readings.
	switch cmd.Kind {
	case command.KindMinMax, command.KindPeakMinMax:
		c.mode = command.KindMinMax
	case command.KindMeasure:
		c.mode = command.KindMeasure
	case command.KindReset, command.KindNotMinMax, command.KindNotPeak:
		c.mode = command.KindMeasure
	}

	data := make([]byte, 0, len(seq)+1)
	data = append(data, byte(len(seq)))
	data = append(data, seq...)

	return protocol.Frame{
		Kind:      protocol.FrameReport,
		Direction: protocol.Outbound,
		Data:      data,
	}, nil
}

// ExpectsReply reports whether the command produces reading frames.
// Front-panel key presses are fire-and-forget.
func (c *Codec) ExpectsReply(cmd command.Command) bool {
	switch cmd.Kind {
	case command.KindMeasure, command.KindMinMax:
		return true
	default:
		return false
	}
}

// Reset realigns the decoder at a frame boundary, dropping any
// buffered partial message.
func (c *Codec) Reset() {
	c.state = stateHunt
	c.body = nil
	c.need = 0
	c.sum = 0
}

// Decode feeds one HID report to the stream scanner.
//
// The report's first byte is its valid-byte count; only that many bytes
// are consumed. Complete, checksum-valid messages are parsed into
// measurements. A framing or checksum violation resynchronises the
// scanner and is reported as a single protocol.ErrDecode diagnostic for
// the frame; units decoded before or after the bad region are still
// returned.
func (c *Codec) Decode(f protocol.Frame) ([]protocol.DecodedUnit, error) {
	if len(f.Data) == 0 {
		return nil, nil
	}

	// Leading byte is the bridge's valid-byte count.
	n := int(f.Data[0])
	payload := f.Data[1:]
	if n < len(payload) {
		payload = payload[:n]
	}

	var units []protocol.DecodedUnit
	var firstErr error

	for _, b := range payload {
		unit, err := c.feed(b)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		if unit != nil {
			units = append(units, *unit)
		}
	}
	return units, firstErr
}

// feed advances the scanner by one byte. It returns a completed unit
// and/or a decode error; after an error the scanner is back in hunting
// state (resynchronised).
func (c *Codec) feed(b byte) (*protocol.DecodedUnit, error) {
	switch c.state {
	case stateHunt:
		if b == header[0] {
			c.state = stateCD
			c.sum = uint32(b)
		}
		return nil, nil

	case stateCD:
		if b != header[1] {
			c.Reset()
			// The bad byte may itself start a new header.
			if b == header[0] {
				c.state = stateCD
				c.sum = uint32(b)
			}
			return nil, fmt.Errorf("%w: expected 0x%02X after header, got 0x%02X",
				protocol.ErrDecode, header[1], b)
		}
		c.sum += uint32(b)
		c.state = stateLen
		return nil, nil

	case stateLen:
		if int(b) < minMessageLen || int(b) > maxMessageLen {
			c.Reset()
			return nil, fmt.Errorf("%w: implausible message length %d",
				protocol.ErrDecode, b)
		}
		c.sum += uint32(b)
		c.need = int(b)
		c.body = make([]byte, 0, c.need)
		c.state = stateBody
		return nil, nil

	case stateBody:
		// The trailing two bytes are the checksum and are not summed.
		if len(c.body)+2 < c.need {
			c.sum += uint32(b)
		}
		c.body = append(c.body, b)
		if len(c.body) < c.need {
			return nil, nil
		}
		return c.finish()
	}
	return nil, nil
}

// finish validates the checksum of a complete message body and parses
// the reading. The scanner is realigned regardless of outcome.
func (c *Codec) finish() (*protocol.DecodedUnit, error) {
	body := c.body
	sum := c.sum
	c.Reset()

	want := uint32(body[len(body)-2])<<8 | uint32(body[len(body)-1])
	if sum != want {
		return nil, fmt.Errorf("%w: checksum mismatch (calculated 0x%04X, received 0x%04X)",
			protocol.ErrDecode, sum, want)
	}

	m, err := parseReading(body[:len(body)-2], c.mode)
	if err != nil {
		return nil, err
	}
	return &protocol.DecodedUnit{Kind: protocol.UnitMeasurement, Measurement: m}, nil
}
