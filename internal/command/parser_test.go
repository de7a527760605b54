package command

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Command
	}{
		{
			name: "measure",
			text: "Measure",
			want: Command{Kind: KindMeasure},
		},
		{
			name: "minmax",
			text: "MinMax",
			want: Command{Kind: KindMinMax},
		},
		{
			name: "reset",
			text: "Reset",
			want: Command{Kind: KindReset},
		},
		{
			name: "apply with unit suffixes",
			text: "Apply:Sin, 10kHz, 3, 0.4",
			want: Command{
				Kind: KindApply,
				Apply: ApplyArgs{
					Waveform:  WaveformSine,
					Frequency: 10000,
					Amplitude: 3,
					Offset:    0.4,
					Args:      3,
				},
			},
		},
		{
			name: "apply without spaces",
			text: "Apply:Squ,1MHz,1.5,0",
			want: Command{
				Kind: KindApply,
				Apply: ApplyArgs{
					Waveform:  WaveformSquare,
					Frequency: 1e6,
					Amplitude: 1.5,
					Offset:    0,
					Args:      3,
				},
			},
		},
		{
			name: "apply waveform only",
			text: "Apply:Ramp",
			want: Command{
				Kind:  KindApply,
				Apply: ApplyArgs{Waveform: WaveformRamp},
			},
		},
		{
			name: "milli multiplier",
			text: "Apply:Sin, 250m",
			want: Command{
				Kind: KindApply,
				Apply: ApplyArgs{
					Waveform:  WaveformSine,
					Frequency: 0.25,
					Args:      1,
				},
			},
		},
		{
			name: "raw wraps apply",
			text: "Raw:Apply:Sin, 10kHz, 3, 0.4",
			want: Command{
				Kind: KindApply,
				Apply: ApplyArgs{
					Waveform:  WaveformSine,
					Frequency: 10000,
					Amplitude: 3,
					Offset:    0.4,
					Args:      3,
				},
				Raw: true,
			},
		},
		{
			name: "raw wraps measure",
			text: "Raw:Measure",
			want: Command{Kind: KindMeasure, Raw: true},
		},
		{
			name: "front panel key",
			text: "Hold",
			want: Command{Kind: KindHold},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.text)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.text, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.text, got, tt.want)
			}
		})
	}
}

func TestParseFoldsCase(t *testing.T) {
	tests := []struct {
		text string
		want Command
	}{
		{"measure", Command{Kind: KindMeasure}},
		{"MINMAX", Command{Kind: KindMinMax}},
		{"pminmax", Command{Kind: KindPeakMinMax}},
		{"raw:hold", Command{Kind: KindHold, Raw: true}},
		{
			"apply:sin,10kHz,3,0.4",
			Command{
				Kind: KindApply,
				Apply: ApplyArgs{
					Waveform:  WaveformSine,
					Frequency: 10000,
					Amplitude: 3,
					Offset:    0.4,
					Args:      3,
				},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := Parse(tt.text)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.text, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.text, got, tt.want)
			}
		})
	}

	// Multiplier suffixes stay case sensitive; "1mHz" is millihertz.
	got, err := Parse("apply:sin,1mHz")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if got.Apply.Frequency != 1e-3 {
		t.Errorf("Frequency = %g, want 0.001", got.Apply.Frequency)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr error
	}{
		{"unknown name", "Frobnicate", ErrUnknownCommand},
		{"raw unknown name", "Raw:Frobnicate", ErrUnknownCommand},
		{"empty", "", ErrUnknownCommand},
		{"measure with args", "Measure:1", ErrArgCount},
		{"apply without waveform", "Apply", ErrArgCount},
		{"apply too many args", "Apply:Sin,1,2,3,4", ErrArgCount},
		{"apply unknown waveform", "Apply:Triangle", ErrArgParse},
		{"malformed number", "Apply:Sin, 1O0", ErrArgParse},
		{"bad unit suffix", "Apply:Sin, 10k7z", ErrArgParse},
		{"empty argument", "Apply:Sin,,3", ErrArgParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.text)
			if err == nil {
				t.Fatalf("Parse(%q) succeeded, want %v", tt.text, tt.wantErr)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Parse(%q) error = %v, want %v", tt.text, err, tt.wantErr)
			}
		})
	}
}

func TestParseErrorKindsDistinguishable(t *testing.T) {
	_, unknownErr := Parse("Nonsense")
	if !errors.Is(unknownErr, ErrUnknownCommand) || errors.Is(unknownErr, ErrArgParse) {
		t.Errorf("unknown command error conflated: %v", unknownErr)
	}

	_, argErr := Parse("Apply:Sin, bogus")
	if !errors.Is(argErr, ErrArgParse) || errors.Is(argErr, ErrUnknownCommand) {
		t.Errorf("argument error conflated: %v", argErr)
	}
}

func TestParseAll(t *testing.T) {
	cmds, err := ParseAll([]string{"MinMax", "Measure", "Reset"})
	if err != nil {
		t.Fatalf("ParseAll error: %v", err)
	}
	want := []Kind{KindMinMax, KindMeasure, KindReset}
	for i, k := range want {
		if cmds[i].Kind != k {
			t.Errorf("cmds[%d].Kind = %v, want %v", i, cmds[i].Kind, k)
		}
	}

	if _, err := ParseAll([]string{"Measure", "Bogus"}); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("ParseAll error = %v, want ErrUnknownCommand", err)
	}
}
