package command

import (
	"fmt"
	"strings"
)

// Kind identifies a command variant.
type Kind int

// Supported command kinds. Measure, MinMax, Reset and Apply form the
// portable core; the remaining kinds mirror the UT161D front panel keys.
const (
	KindUnknown Kind = iota
	KindMeasure
	KindMinMax
	KindReset
	KindApply
	KindNotMinMax
	KindRange
	KindAuto
	KindRel
	KindHold
	KindLamp
	KindSelect1
	KindSelect2
	KindPeakMinMax
	KindNotPeak
)

var kindNames = map[Kind]string{
	KindMeasure:    "Measure",
	KindMinMax:     "MinMax",
	KindReset:      "Reset",
	KindApply:      "Apply",
	KindNotMinMax:  "NotMinMax",
	KindRange:      "Range",
	KindAuto:       "Auto",
	KindRel:        "Rel",
	KindHold:       "Hold",
	KindLamp:       "Lamp",
	KindSelect1:    "Select1",
	KindSelect2:    "Select2",
	KindPeakMinMax: "PMinMax",
	KindNotPeak:    "NotPeak",
}

// String returns the canonical spelling of the command kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Waveform identifies a signal source output shape.
type Waveform int

// Waveforms supported by the PeakTech 4055MV. The numeric values are
// the device's waveform selection codes and must not be reordered.
const (
	WaveformSine Waveform = iota
	WaveformSquare
	WaveformRamp
	WaveformNoise
	WaveformPPulse
	WaveformNPulse
	WaveformStair
	WaveformHalfSine
	WaveformLimitedSine
	WaveformRisingExp
	WaveformRisingLog
	WaveformTangent
	WaveformSinc
	WaveformRound
	WaveformCardiac
	WaveformQuake
)

var waveformNames = map[string]Waveform{
	"Sin":    WaveformSine,
	"Squ":    WaveformSquare,
	"Ramp":   WaveformRamp,
	"Noise":  WaveformNoise,
	"PPulse": WaveformPPulse,
	"NPulse": WaveformNPulse,
	"Stair":  WaveformStair,
	"HSine":  WaveformHalfSine,
	"LSine":  WaveformLimitedSine,
	"Rexp":   WaveformRisingExp,
	"RLog":   WaveformRisingLog,
	"Tang":   WaveformTangent,
	"Sinc":   WaveformSinc,
	"Round":  WaveformRound,
	"Card":   WaveformCardiac,
	"Quake":  WaveformQuake,
}

// String returns the mnemonic spelling of the waveform.
func (w Waveform) String() string {
	for name, wf := range waveformNames {
		if wf == w {
			return name
		}
	}
	return fmt.Sprintf("Waveform(%d)", int(w))
}

var waveformsFolded = func() map[string]Waveform {
	m := make(map[string]Waveform, len(waveformNames))
	for name, wf := range waveformNames {
		m[strings.ToLower(name)] = wf
	}
	return m
}()

// ParseWaveform resolves a waveform mnemonic such as "Sin" or "Squ",
// ignoring case.
func ParseWaveform(name string) (Waveform, error) {
	if w, ok := waveformsFolded[strings.ToLower(name)]; ok {
		return w, nil
	}
	return 0, fmt.Errorf("%w: unknown waveform %q", ErrArgParse, name)
}

// ApplyArgs holds the parameters of an Apply command.
//
// Frequency is in hertz, amplitude in volts peak-to-peak and offset in
// volts DC. Fields beyond Waveform are optional at the grammar level;
// unset fields are zero.
type ApplyArgs struct {
	Waveform  Waveform
	Frequency float64
	Amplitude float64
	Offset    float64

	// Args counts how many numeric arguments were supplied, so codecs
	// can distinguish an omitted parameter from an explicit zero.
	Args int
}

// Command is a parsed instrument command.
//
// Raw marks the command for byte-exact transmission: encoders use the
// same opcode tables, but the device-side capability check is skipped
// and invalid-for-device combinations pass through unvalidated.
type Command struct {
	Kind  Kind
	Apply ApplyArgs
	Raw   bool
}

// String renders the command in the textual grammar, for logs and
// diagnostics.
func (c Command) String() string {
	s := c.Kind.String()
	if c.Kind == KindApply {
		s = fmt.Sprintf("%s:%s,%g,%g,%g",
			s, c.Apply.Waveform, c.Apply.Frequency, c.Apply.Amplitude, c.Apply.Offset)
	}
	if c.Raw {
		return "Raw:" + s
	}
	return s
}
