package instrument

import (
	"fmt"
	"sort"

	"github.com/openbench/bench-core/internal/command"
	"github.com/openbench/bench-core/internal/protocol"
	"github.com/openbench/bench-core/internal/protocol/peaktech4055"
	"github.com/openbench/bench-core/internal/protocol/scpiraw"
	"github.com/openbench/bench-core/internal/protocol/unit161d"
	"github.com/openbench/bench-core/internal/transport"
)

// Definition describes one supported instrument model: its codec, the
// transports it attaches over, and the commands it accepts.
type Definition struct {
	Name        string
	Description string

	// Transports lists the attachment styles the model supports; the
	// first entry is the default.
	Transports []transport.Kind

	// Commands is the model's command capability set. Raw commands
	// bypass it.
	Commands map[command.Kind]bool

	// NewCodec builds a fresh codec with clean stream state.
	NewCodec func() protocol.Codec

	// TransportConfig carries the model's endpoint and report tuning.
	TransportConfig transport.Config
}

// SupportsTransport reports whether the model attaches over k.
func (d Definition) SupportsTransport(k transport.Kind) bool {
	for _, t := range d.Transports {
		if t == k {
			return true
		}
	}
	return false
}

// Registry maps model names to definitions.
type Registry struct {
	models map[string]Definition
}

// NewRegistry returns a registry loaded with the built-in models.
func NewRegistry() *Registry {
	r := &Registry{models: make(map[string]Definition)}
	for _, d := range builtins() {
		r.models[d.Name] = d
	}
	return r
}

// Register adds or replaces a model definition.
func (r *Registry) Register(d Definition) {
	r.models[d.Name] = d
}

// Resolve returns the definition for a model name. It never opens
// hardware; attachment happens in Open.
func (r *Registry) Resolve(name string) (Definition, error) {
	d, ok := r.models[name]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %q (known: %v)",
			ErrUnknownDevice, name, r.Names())
	}
	return d, nil
}

// Names lists the registered model names in stable order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func builtins() []Definition {
	return []Definition{
		{
			Name:        "unit161d",
			Description: "UNI-T UT161D multimeter over a HID serial bridge",
			Transports:  []transport.Kind{transport.KindHID},
			Commands: map[command.Kind]bool{
				command.KindMeasure:    true,
				command.KindMinMax:     true,
				command.KindNotMinMax:  true,
				command.KindReset:      true,
				command.KindRange:      true,
				command.KindAuto:       true,
				command.KindRel:        true,
				command.KindHold:       true,
				command.KindLamp:       true,
				command.KindSelect1:    true,
				command.KindSelect2:    true,
				command.KindPeakMinMax: true,
				command.KindNotPeak:    true,
			},
			NewCodec: func() protocol.Codec { return unit161d.New() },
		},
		{
			Name:        "peaktech4055mv",
			Description: "PeakTech 4055MV waveform generator over USB bulk",
			Transports:  []transport.Kind{transport.KindUSB},
			Commands: map[command.Kind]bool{
				command.KindApply: true,
				command.KindReset: true,
			},
			NewCodec: func() protocol.Codec { return peaktech4055.New() },
			TransportConfig: transport.Config{
				OutEndpoint: 2,
			},
		},
		{
			Name:        "scpiraw",
			Description: "generic SCPI instrument over a raw TCP socket",
			Transports:  []transport.Kind{transport.KindSCPI},
			Commands: map[command.Kind]bool{
				command.KindMeasure:   true,
				command.KindMinMax:    true,
				command.KindNotMinMax: true,
				command.KindReset:     true,
				command.KindApply:     true,
			},
			NewCodec: func() protocol.Codec { return scpiraw.New() },
		},
	}
}
