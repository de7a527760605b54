package instrument

import (
	"context"
	"fmt"

	"github.com/openbench/bench-core/internal/command"
	"github.com/openbench/bench-core/internal/protocol"
	"github.com/openbench/bench-core/internal/transport"
)

// Device is one attached instrument: a codec bound to an open
// transport plus the session state.
type Device struct {
	def   Definition
	codec protocol.Codec
	tr    transport.Transport
	state *State
}

// Open resolves the model in the registry, checks the requested
// transport against its capabilities, attaches, and returns the bound
// device. The definition's endpoint tuning is folded into cfg unless
// the caller set its own.
func Open(ctx context.Context, reg *Registry, model string, desc transport.Descriptor, cfg transport.Config) (*Device, error) {
	def, err := reg.Resolve(model)
	if err != nil {
		return nil, err
	}
	if !def.SupportsTransport(desc.Kind) {
		return nil, fmt.Errorf("%w: %s does not attach over %s (supported: %v)",
			ErrTransportMismatch, def.Name, desc.Kind, def.Transports)
	}

	if cfg.OutEndpoint == 0 {
		cfg.OutEndpoint = def.TransportConfig.OutEndpoint
	}
	if cfg.InEndpoint == 0 {
		cfg.InEndpoint = def.TransportConfig.InEndpoint
	}
	if cfg.ReportID == 0 {
		cfg.ReportID = def.TransportConfig.ReportID
	}

	tr, err := transport.Open(ctx, desc, cfg)
	if err != nil {
		return nil, err
	}

	return &Device{
		def:   def,
		codec: def.NewCodec(),
		tr:    tr,
		state: NewState(),
	}, nil
}

// NewDevice binds a definition to an already open transport. Tests and
// embedders use it to supply fakes.
func NewDevice(def Definition, tr transport.Transport) *Device {
	return &Device{
		def:   def,
		codec: def.NewCodec(),
		tr:    tr,
		state: NewState(),
	}
}

// Send checks the command against the model's capability set, encodes
// it, and writes the frame. Raw commands skip the capability check but
// still travel through the codec's opcode table.
func (d *Device) Send(ctx context.Context, cmd command.Command) error {
	if d.tr == nil {
		return ErrNotOpen
	}
	if !cmd.Raw && !d.def.Commands[cmd.Kind] {
		return fmt.Errorf("%w: %s does not accept %s",
			ErrCapabilityMismatch, d.def.Name, cmd.Kind)
	}

	frame, err := d.codec.Encode(cmd)
	if err != nil {
		return err
	}
	if err := d.tr.Write(ctx, frame); err != nil {
		return err
	}

	d.state.Note(cmd)
	return nil
}

// Receive reads one frame and decodes it. An empty result with nil
// error means the frame was a partial message; callers read again.
// A protocol.ErrDecode diagnostic may ride alongside salvaged units;
// the codec has already resynchronised when it surfaces.
func (d *Device) Receive(ctx context.Context) ([]protocol.DecodedUnit, error) {
	if d.tr == nil {
		return nil, ErrNotOpen
	}

	frame, err := d.tr.Read(ctx)
	if err != nil {
		return nil, err
	}

	units, decErr := d.codec.Decode(frame)
	for _, u := range units {
		if u.Kind == protocol.UnitMeasurement {
			d.state.Observe(u.Measurement)
		}
	}
	return units, decErr
}

// ExpectsReply reports whether cmd warrants waiting for inbound data.
func (d *Device) ExpectsReply(cmd command.Command) bool {
	return d.codec.ExpectsReply(cmd)
}

// State exposes the measuring session.
func (d *Device) State() *State {
	return d.state
}

// Model returns the device's definition name.
func (d *Device) Model() string {
	return d.def.Name
}

// Info describes the attachment for logs.
func (d *Device) Info() string {
	if d.tr == nil {
		return d.def.Name + " (detached)"
	}
	return d.def.Name + " on " + d.tr.Info()
}

// Close resets the codec's stream state and releases the transport.
func (d *Device) Close() error {
	if d.tr == nil {
		return ErrNotOpen
	}
	d.codec.Reset()
	err := d.tr.Close()
	d.tr = nil
	return err
}
