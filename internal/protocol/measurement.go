package protocol

import (
	"fmt"
	"time"

	"github.com/openbench/bench-core/internal/command"
)

// Unit is the physical unit of a measurement value, after the codec has
// applied the instrument's range exponent. Values always carry the base
// unit (volts, not millivolts).
type Unit int

const (
	UnitNone Unit = iota
	UnitVolt
	UnitAmp
	UnitOhm
	UnitHertz
	UnitFarad
	UnitCelsius
	UnitFahrenheit
	UnitPercent
	UnitGain // transistor hFE
)

var unitSymbols = map[Unit]string{
	UnitNone:       "",
	UnitVolt:       "V",
	UnitAmp:        "A",
	UnitOhm:        "Ohm",
	UnitHertz:      "Hz",
	UnitFarad:      "F",
	UnitCelsius:    "degC",
	UnitFahrenheit: "degF",
	UnitPercent:    "%",
	UnitGain:       "hFE",
}

// Symbol returns the printable unit symbol.
func (u Unit) Symbol() string {
	if s, ok := unitSymbols[u]; ok {
		return s
	}
	return fmt.Sprintf("Unit(%d)", int(u))
}

// Flags mirrors the instrument's front-panel annunciators as decoded
// from the status bytes of a reading.
type Flags struct {
	Max         bool
	Min         bool
	Hold        bool
	Rel         bool
	AutoRange   bool
	LowBattery  bool
	HWWarning   bool
	DC          bool
	PeakMax     bool
	PeakMin     bool
	BarNegative bool
}

// Measurement is one normalized reading decoded from an instrument.
//
// Value is scaled to the base Unit. Mode records the command kind that
// produced the reading, so downstream consumers never need codec
// context. Display preserves the raw display text for overload and
// non-contact-voltage indications that have no numeric value.
type Measurement struct {
	Value     float64
	Unit      Unit
	Mode      command.Kind
	Timestamp time.Time

	// Function and Range identify the instrument's own measuring
	// function (e.g. "DCV" on a multimeter dial) and range digit, for
	// consumers that want the un-normalized context.
	Function string
	Range    string

	Display  string
	Overload bool
	NCV      bool
	Bargraph int
	Flags    Flags
}

// String renders the measurement for terminal output.
func (m Measurement) String() string {
	if m.Overload {
		return fmt.Sprintf("%s OL", m.Mode)
	}
	return fmt.Sprintf("%s %g %s", m.Mode, m.Value, m.Unit.Symbol())
}
