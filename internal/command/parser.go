package command

import (
	"fmt"
	"strconv"
	"strings"
)

// rawPrefix marks a command for unchecked byte-exact transmission.
const rawPrefix = "Raw:"

// multipliers maps metric suffix letters to scale factors.
// An argument without a suffix scales by 1.
var multipliers = map[byte]float64{
	'k': 1e3,
	'M': 1e6,
	'm': 1e-3,
	'u': 1e-6,
}

// arity records the numeric argument range each command kind accepts.
// Apply additionally takes a leading waveform mnemonic.
type arity struct {
	min, max int
}

var commandArity = map[Kind]arity{
	KindMeasure:    {0, 0},
	KindMinMax:     {0, 0},
	KindReset:      {0, 0},
	KindApply:      {1, 4}, // waveform [, frequency [, amplitude [, offset]]]
	KindNotMinMax:  {0, 0},
	KindRange:      {0, 0},
	KindAuto:       {0, 0},
	KindRel:        {0, 0},
	KindHold:       {0, 0},
	KindLamp:       {0, 0},
	KindSelect1:    {0, 0},
	KindSelect2:    {0, 0},
	KindPeakMinMax: {0, 0},
	KindNotPeak:    {0, 0},
}

// kindsByName is keyed on the lowercased spelling so lookups can fold
// case.
var kindsByName = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, name := range kindNames {
		m[strings.ToLower(name)] = k
	}
	return m
}()

// Parse converts a textual command expression into a Command.
//
// The grammar is Name[:Arg[,Arg]*]; a Raw: prefix wraps any otherwise
// valid command and marks it for unchecked transmission. Surrounding
// whitespace on arguments is ignored, so "Apply:Sin, 10kHz, 3, 0.4"
// and "Apply:Sin,10kHz,3,0.4" are equivalent. Command names, waveform
// mnemonics and the Raw prefix fold case; metric multiplier suffixes
// do not, since "M" and "m" mean different scales.
//
// Returns ErrUnknownCommand, ErrArgCount or ErrArgParse on failure;
// parsing never performs I/O.
func Parse(text string) (Command, error) {
	text = strings.TrimSpace(text)

	var raw bool
	if len(text) >= len(rawPrefix) && strings.EqualFold(text[:len(rawPrefix)], rawPrefix) {
		raw = true
		text = text[len(rawPrefix):]
	}

	name := text
	var argText string
	if i := strings.IndexByte(text, ':'); i >= 0 {
		name = text[:i]
		argText = text[i+1:]
	}
	name = strings.TrimSpace(name)

	kind, ok := kindsByName[strings.ToLower(name)]
	if !ok {
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}

	var args []string
	if argText != "" {
		args = strings.Split(argText, ",")
		for i := range args {
			args[i] = strings.TrimSpace(args[i])
		}
	}

	ar := commandArity[kind]
	if len(args) < ar.min || len(args) > ar.max {
		return Command{}, fmt.Errorf("%w: %s takes %d-%d arguments, got %d",
			ErrArgCount, kind, ar.min, ar.max, len(args))
	}

	cmd := Command{Kind: kind, Raw: raw}
	if kind == KindApply {
		apply, err := parseApplyArgs(args)
		if err != nil {
			return Command{}, err
		}
		cmd.Apply = apply
	}
	return cmd, nil
}

// ParseAll parses a comma-free list of command expressions in order,
// stopping at the first failure. The index of the failing expression is
// included in the error so the CLI can point at it.
func ParseAll(exprs []string) ([]Command, error) {
	cmds := make([]Command, 0, len(exprs))
	for i, expr := range exprs {
		cmd, err := Parse(expr)
		if err != nil {
			return nil, fmt.Errorf("command %d: %w", i+1, err)
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}

func parseApplyArgs(args []string) (ApplyArgs, error) {
	wf, err := ParseWaveform(args[0])
	if err != nil {
		return ApplyArgs{}, err
	}
	apply := ApplyArgs{Waveform: wf}

	numeric := args[1:]
	apply.Args = len(numeric)
	dst := []*float64{&apply.Frequency, &apply.Amplitude, &apply.Offset}
	for i, arg := range numeric {
		v, err := parseScaled(arg)
		if err != nil {
			return ApplyArgs{}, err
		}
		*dst[i] = v
	}
	return apply, nil
}

// parseScaled parses a numeric literal with an optional metric
// multiplier suffix and an optional trailing unit word: "10kHz" is
// 10000, "0.4" is 0.4, "250m" is 0.25.
func parseScaled(arg string) (float64, error) {
	if arg == "" {
		return 0, fmt.Errorf("%w: empty argument", ErrArgParse)
	}

	// Split off the longest numeric prefix.
	split := len(arg)
	for i, r := range arg {
		if (r < '0' || r > '9') && r != '.' && r != '-' && r != '+' {
			split = i
			break
		}
	}
	num, suffix := arg[:split], arg[split:]
	if num == "" {
		return 0, fmt.Errorf("%w: %q has no numeric part", ErrArgParse, arg)
	}

	value, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrArgParse, arg, err)
	}

	if suffix == "" {
		return value, nil
	}
	if mult, ok := multipliers[suffix[0]]; ok {
		return value * mult, checkUnitWord(arg, suffix[1:])
	}
	// No multiplier; the whole suffix must be a unit word.
	return value, checkUnitWord(arg, suffix)
}

// checkUnitWord accepts a trailing unit annotation (letters only, e.g.
// "Hz", "V"). Anything else is a malformed literal.
func checkUnitWord(arg, word string) error {
	for _, r := range word {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		if !isLetter {
			return fmt.Errorf("%w: %q has malformed unit suffix", ErrArgParse, arg)
		}
	}
	return nil
}
