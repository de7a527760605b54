package unit161d

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/openbench/bench-core/internal/command"
	"github.com/openbench/bench-core/internal/protocol"
)

// minReadingLen is the number of payload bytes a reading must carry:
// mode, range, 7 display chars, 2 bargraph digits, 3 flag bytes.
const minReadingLen = 14

// modeNames maps the reading's mode index to the function shown on the
// instrument's display.
var modeNames = [...]string{
	"ACV", "ACmV", "DCV", "DCmV", "Hz", "%", "OHM", "CONT", "DIDOE",
	"CAP", "°C", "°F", "DCuA", "ACuA", "DCmA", "ACmA", "DCA", "ACA",
	"HFE", "Live", "NCV", "LozV", "ACA", "DCA", "LPF", "AC/DC", "LPF",
	"AC+DC", "LPF", "AC+DC2", "INRUSH",
}

// overloadTexts are display strings that mean the input exceeds the
// selected range.
var overloadTexts = map[string]bool{
	".OL": true, "O.L": true, "OL.": true, "OL": true,
	"-.OL": true, "-O.L": true, "-OL.": true, "-OL": true,
}

// ncvTexts are display strings the non-contact-voltage mode shows
// instead of a number.
var ncvTexts = map[string]bool{
	"EF": true, "-": true, "--": true, "---": true,
	"----": true, "-----": true,
}

// unitScale normalizes a function/range pair to a base unit and the
// exponent the display value must be multiplied by.
type unitScale struct {
	unit  protocol.Unit
	scale float64
}

// unitTable resolves the displayed unit from the active function and
// range digit. Ranges absent from the table have no defined unit on
// this instrument.
var unitTable = map[string]map[byte]unitScale{
	"%":      {'0': {protocol.UnitPercent, 1}},
	"AC+DC":  {'1': {protocol.UnitAmp, 1}},
	"AC+DC2": {'1': {protocol.UnitAmp, 1}},
	"AC/DC": {
		'0': {protocol.UnitVolt, 1}, '1': {protocol.UnitVolt, 1},
		'2': {protocol.UnitVolt, 1}, '3': {protocol.UnitVolt, 1},
	},
	"ACA": {'1': {protocol.UnitAmp, 1}},
	"ACV": {
		'0': {protocol.UnitVolt, 1}, '1': {protocol.UnitVolt, 1},
		'2': {protocol.UnitVolt, 1}, '3': {protocol.UnitVolt, 1},
	},
	"ACmA": {'0': {protocol.UnitAmp, 1e-3}, '1': {protocol.UnitAmp, 1e-3}},
	"ACmV": {'0': {protocol.UnitVolt, 1e-3}},
	"ACuA": {'0': {protocol.UnitAmp, 1e-6}, '1': {protocol.UnitAmp, 1e-6}},
	"CAP": {
		'0': {protocol.UnitFarad, 1e-9}, '1': {protocol.UnitFarad, 1e-9},
		'2': {protocol.UnitFarad, 1e-6}, '3': {protocol.UnitFarad, 1e-6},
		'4': {protocol.UnitFarad, 1e-6}, '5': {protocol.UnitFarad, 1e-3},
		'6': {protocol.UnitFarad, 1e-3}, '7': {protocol.UnitFarad, 1e-3},
	},
	"CONT": {'0': {protocol.UnitOhm, 1}},
	"DCA":  {'1': {protocol.UnitAmp, 1}},
	"DCV": {
		'0': {protocol.UnitVolt, 1}, '1': {protocol.UnitVolt, 1},
		'2': {protocol.UnitVolt, 1}, '3': {protocol.UnitVolt, 1},
	},
	"DCmA":  {'0': {protocol.UnitAmp, 1e-3}, '1': {protocol.UnitAmp, 1e-3}},
	"DCmV":  {'0': {protocol.UnitVolt, 1e-3}},
	"DCuA":  {'0': {protocol.UnitAmp, 1e-6}, '1': {protocol.UnitAmp, 1e-6}},
	"DIDOE": {'0': {protocol.UnitVolt, 1}},
	"Hz": {
		'0': {protocol.UnitHertz, 1}, '1': {protocol.UnitHertz, 1},
		'2': {protocol.UnitHertz, 1e3}, '3': {protocol.UnitHertz, 1e3},
		'4': {protocol.UnitHertz, 1e3}, '5': {protocol.UnitHertz, 1e6},
		'6': {protocol.UnitHertz, 1e6}, '7': {protocol.UnitHertz, 1e6},
	},
	"LPF": {
		'0': {protocol.UnitVolt, 1}, '1': {protocol.UnitVolt, 1},
		'2': {protocol.UnitVolt, 1}, '3': {protocol.UnitVolt, 1},
	},
	"LozV": {
		'0': {protocol.UnitVolt, 1}, '1': {protocol.UnitVolt, 1},
		'2': {protocol.UnitVolt, 1}, '3': {protocol.UnitVolt, 1},
	},
	"OHM": {
		'0': {protocol.UnitOhm, 1}, '1': {protocol.UnitOhm, 1e3},
		'2': {protocol.UnitOhm, 1e3}, '3': {protocol.UnitOhm, 1e3},
		'4': {protocol.UnitOhm, 1e6}, '5': {protocol.UnitOhm, 1e6},
		'6': {protocol.UnitOhm, 1e6},
	},
	"°C":  {'0': {protocol.UnitCelsius, 1}, '1': {protocol.UnitCelsius, 1}},
	"°F":  {'0': {protocol.UnitFahrenheit, 1}, '1': {protocol.UnitFahrenheit, 1}},
	"HFE": {'0': {protocol.UnitGain, 1}},
	"NCV": {'0': {protocol.UnitNone, 1}},
}

// parseReading converts a checksum-stripped message payload into a
// normalized measurement.
//
// Layout: mode index, ASCII range digit, 7 display characters, two
// bargraph digits, then three flag bytes (max/min/hold/rel,
// auto/battery/warning, dc/peak-max/peak-min/bar-polarity).
func parseReading(body []byte, mode command.Kind) (protocol.Measurement, error) {
	if len(body) < minReadingLen {
		return protocol.Measurement{}, fmt.Errorf(
			"%w: reading too short (%d bytes, need %d)",
			protocol.ErrDecode, len(body), minReadingLen)
	}

	function := "Unknown"
	if int(body[0]) < len(modeNames) {
		function = modeNames[body[0]]
	}
	rangeDigit := body[1]
	display := strings.TrimSpace(string(body[2:9]))

	m := protocol.Measurement{
		Mode:      mode,
		Timestamp: time.Now(),
		Function:  function,
		Range:     string(rangeDigit),
		Display:   display,
		Overload:  overloadTexts[display],
		NCV:       ncvTexts[display],
		Bargraph:  int(body[9])*10 + int(body[10]),
		Flags: protocol.Flags{
			Max:         body[11]&0x08 != 0,
			Min:         body[11]&0x04 != 0,
			Hold:        body[11]&0x02 != 0,
			Rel:         body[11]&0x01 != 0,
			AutoRange:   body[12]&0x04 != 0,
			LowBattery:  body[12]&0x02 != 0,
			HWWarning:   body[12]&0x01 != 0,
			DC:          body[13]&0x08 != 0,
			PeakMax:     body[13]&0x04 != 0,
			PeakMin:     body[13]&0x02 != 0,
			BarNegative: body[13]&0x01 != 0,
		},
	}

	if us, ok := unitTable[function][rangeDigit]; ok {
		m.Unit = us.unit
		if !m.Overload && !m.NCV {
			v, err := strconv.ParseFloat(display, 64)
			if err != nil {
				return protocol.Measurement{}, fmt.Errorf(
					"%w: unreadable display value %q", protocol.ErrDecode, display)
			}
			m.Value = v * us.scale
		}
	} else if !m.Overload && !m.NCV {
		// Unknown function/range pairs still surface the raw display.
		if v, err := strconv.ParseFloat(display, 64); err == nil {
			m.Value = v
		}
	}

	return m, nil
}
