// Package scpiraw implements a line-oriented SCPI codec for instruments
// reached over a raw TCP socket.
//
// Commands become newline-terminated ASCII mnemonics; a trailing '?'
// marks a query whose one-line answer is parsed as comma-separated
// floating point readings. Instruments differ in mnemonic detail, so
// Raw commands carry the operator's text verbatim with only the
// terminator appended.
package scpiraw

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/openbench/bench-core/internal/command"
	"github.com/openbench/bench-core/internal/protocol"
)

const terminator = "\n"

// Codec translates commands to SCPI lines and response lines to
// measurements. It remembers the unit implied by the last command so
// query answers, which are bare numbers, can be labelled.
type Codec struct {
	mode command.Kind
	unit protocol.Unit
}

// New returns a SCPI codec defaulting to voltage readings.
func New() *Codec {
	return &Codec{mode: command.KindMeasure, unit: protocol.UnitVolt}
}

// Encode renders the command as a terminated SCPI line.
func (c *Codec) Encode(cmd command.Command) (protocol.Frame, error) {
	line, err := c.render(cmd)
	if err != nil {
		return protocol.Frame{}, err
	}
	return protocol.Frame{
		Kind:      protocol.FrameLine,
		Direction: protocol.Outbound,
		Data:      []byte(line + terminator),
	}, nil
}

func (c *Codec) render(cmd command.Command) (string, error) {
	switch cmd.Kind {
	case command.KindMeasure:
		c.mode = command.KindMeasure
		return "READ?", nil
	case command.KindReset:
		c.mode = command.KindMeasure
		return "*RST", nil
	case command.KindApply:
		c.mode = command.KindApply
		c.unit = protocol.UnitVolt
		a := cmd.Apply
		return fmt.Sprintf("APPL:%s %s,%s,%s",
			scpiShape(a.Waveform),
			formatNumber(a.Frequency),
			formatNumber(a.Amplitude),
			formatNumber(a.Offset)), nil
	case command.KindMinMax:
		c.mode = command.KindMinMax
		return "CALC:AVER:STAT ON", nil
	case command.KindNotMinMax:
		c.mode = command.KindMeasure
		return "CALC:AVER:STAT OFF", nil
	default:
		if cmd.Raw {
			// The operator supplied the mnemonic; pass it through.
			return cmd.String(), nil
		}
		return "", fmt.Errorf("%w: %s has no SCPI mapping",
			protocol.ErrUnsupported, cmd.Kind)
	}
}

// scpiShape maps waveform names to the APPLy mnemonics common across
// bench generators.
func scpiShape(w command.Waveform) string {
	switch w {
	case command.WaveformSine:
		return "SIN"
	case command.WaveformSquare:
		return "SQU"
	case command.WaveformRamp:
		return "RAMP"
	case command.WaveformNoise:
		return "NOIS"
	default:
		return strings.ToUpper(w.String())
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'G', -1, 64)
}

// Decode parses one response line into measurements. Empty lines mean
// the instrument has nothing to say yet. Multi-value answers such as
// "+1.234E+00,+5.678E+00" yield one measurement per field.
func (c *Codec) Decode(f protocol.Frame) ([]protocol.DecodedUnit, error) {
	line := strings.TrimSpace(string(f.Data))
	if line == "" {
		return nil, nil
	}

	fields := strings.Split(line, ",")
	units := make([]protocol.DecodedUnit, 0, len(fields))
	now := time.Now()
	for _, field := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return units, fmt.Errorf("%w: malformed SCPI field %q in %q",
				protocol.ErrDecode, field, line)
		}
		units = append(units, protocol.DecodedUnit{
			Kind: protocol.UnitMeasurement,
			Measurement: protocol.Measurement{
				Value:     v,
				Unit:      c.unit,
				Mode:      c.mode,
				Timestamp: now,
				Display:   strings.TrimSpace(field),
			},
		})
	}
	return units, nil
}

// ExpectsReply reports whether the command's line ends in a query.
func (c *Codec) ExpectsReply(cmd command.Command) bool {
	line, err := c.renderPreview(cmd)
	if err != nil {
		return false
	}
	return strings.HasSuffix(line, "?")
}

// renderPreview renders without mutating mode state, so capability
// probes do not disturb an in-flight session.
func (c *Codec) renderPreview(cmd command.Command) (string, error) {
	probe := *c
	return probe.render(cmd)
}

// Reset restores the default voltage-measure labelling.
func (c *Codec) Reset() {
	c.mode = command.KindMeasure
	c.unit = protocol.UnitVolt
}
