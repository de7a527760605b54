package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openbench/bench-core/internal/command"
	"github.com/openbench/bench-core/internal/instrument"
	"github.com/openbench/bench-core/internal/protocol"
	"github.com/openbench/bench-core/internal/transport"
)

// Event is one decoded reading enriched with session aggregates, or a
// valueless acknowledgement of a control-only command.
type Event struct {
	// Device is the instrument model name.
	Device string

	// Seq numbers events within one run, starting at 1.
	Seq int

	// Ack marks a success event for a command that produces no
	// reading; Measurement then carries only the command mode.
	Ack bool

	Measurement protocol.Measurement

	// RunningMin and RunningMax are the session extremes up to and
	// including this reading. SpanValid is false until the first
	// numeric reading lands.
	RunningMin float64
	RunningMax float64
	SpanValid  bool
}

// Sink receives pipeline events. Emit must tolerate being called from
// the pipeline goroutine only; the pipeline never calls it concurrently.
type Sink interface {
	Emit(ctx context.Context, ev Event) error
	Close() error
}

// Logger is the narrow logging surface the pipeline needs.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Config tunes one pipeline run.
type Config struct {
	// Samples is how many readings to collect per replying command.
	// Zero means one.
	Samples int

	// Retries is how many consecutive empty read windows to tolerate
	// before concluding no reply is coming. Zero means defaultRetries.
	Retries int

	// RetryDelay spaces polls after an empty window.
	RetryDelay time.Duration
}

const (
	defaultRetries    = 5
	defaultRetryDelay = 100 * time.Millisecond
)

func (c Config) withDefaults() Config {
	if c.Samples < 1 {
		c.Samples = 1
	}
	if c.Retries < 1 {
		c.Retries = defaultRetries
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = defaultRetryDelay
	}
	return c
}

// Result summarises one pipeline run.
type Result struct {
	// Readings is the total number of measurements emitted.
	Readings int

	// DecodeErrors counts recoverable per-frame diagnostics.
	DecodeErrors int

	// Rejected counts commands the device refused as outside its
	// capability set. They are skipped, not fatal.
	Rejected int

	// Min and Max are the session extremes; SpanValid guards them.
	Min, Max  float64
	SpanValid bool
}

// Pipeline drives one device through a command sequence.
type Pipeline struct {
	dev  *instrument.Device
	sink Sink
	log  Logger
	cfg  Config
}

// New assembles a pipeline. The sink must not be nil; the logger may be.
func New(dev *instrument.Device, sink Sink, log Logger, cfg Config) *Pipeline {
	return &Pipeline{
		dev:  dev,
		sink: sink,
		log:  log,
		cfg:  cfg.withDefaults(),
	}
}

// Run executes the commands in order and returns the run summary.
//
// A command outside the device's capability set is skipped with a
// diagnostic and the run moves on to the next command. Transport
// failures abort the run; decode diagnostics do not. Cancelling the
// context stops the run at the next poll boundary.
func (p *Pipeline) Run(ctx context.Context, cmds []command.Command) (Result, error) {
	var res Result
	seq := 0

	for _, cmd := range cmds {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		p.logDebug("sending command", "command", cmd.String(), "device", p.dev.Model())
		if err := p.dev.Send(ctx, cmd); err != nil {
			if errors.Is(err, instrument.ErrCapabilityMismatch) {
				res.Rejected++
				p.logWarn("command not supported by device, skipping",
					"command", cmd.String(), "device", p.dev.Model())
				continue
			}
			return res, fmt.Errorf("send %s: %w", cmd.Kind, err)
		}

		if !p.dev.ExpectsReply(cmd) {
			seq++
			if err := p.emitAck(ctx, seq, cmd.Kind); err != nil {
				return res, err
			}
			continue
		}

		collected, decodeErrs, err := p.collect(ctx, &seq)
		res.Readings += collected
		res.DecodeErrors += decodeErrs
		if err != nil {
			return res, err
		}
	}

	res.Min, res.Max, res.SpanValid = p.dev.State().Span()
	return res, nil
}

// collect polls until the sample window fills or the retry budget is
// spent. It returns how many readings were emitted and how many decode
// diagnostics were survived.
func (p *Pipeline) collect(ctx context.Context, seq *int) (int, int, error) {
	cfg := p.cfg
	collected := 0
	decodeErrs := 0
	misses := 0

	for collected < cfg.Samples {
		if err := ctx.Err(); err != nil {
			return collected, decodeErrs, err
		}

		units, err := p.dev.Receive(ctx)
		switch {
		case err == nil:
			// Full frame or clean partial.

		case errors.Is(err, protocol.ErrDecode):
			decodeErrs++
			p.logWarn("malformed frame, stream resynchronised", "error", err)

		case errors.Is(err, transport.ErrTimeout):
			misses++
			if misses >= cfg.Retries {
				if collected > 0 {
					// The instrument went quiet after delivering some
					// readings; treat the window as short, not failed.
					p.logDebug("sample window cut short",
						"collected", collected, "wanted", cfg.Samples)
					return collected, decodeErrs, nil
				}
				return collected, decodeErrs,
					fmt.Errorf("no reply after %d read windows: %w", misses, err)
			}
			select {
			case <-ctx.Done():
				return collected, decodeErrs, ctx.Err()
			case <-time.After(cfg.RetryDelay):
			}
			continue

		default:
			return collected, decodeErrs, fmt.Errorf("receive: %w", err)
		}

		if len(units) > 0 {
			misses = 0
		}
		for _, u := range units {
			if u.Kind == protocol.UnitAck {
				*seq++
				if err := p.emitAck(ctx, *seq, u.Measurement.Mode); err != nil {
					return collected, decodeErrs, err
				}
				continue
			}
			if collected >= cfg.Samples {
				break
			}
			*seq++
			collected++
			if err := p.emit(ctx, *seq, u.Measurement); err != nil {
				return collected, decodeErrs, err
			}
		}
	}

	return collected, decodeErrs, nil
}

func (p *Pipeline) emit(ctx context.Context, seq int, m protocol.Measurement) error {
	min, max, ok := p.dev.State().Span()
	ev := Event{
		Device:      p.dev.Model(),
		Seq:         seq,
		Measurement: m,
		RunningMin:  min,
		RunningMax:  max,
		SpanValid:   ok,
	}
	if err := p.sink.Emit(ctx, ev); err != nil {
		return fmt.Errorf("sink: %w", err)
	}
	return nil
}

func (p *Pipeline) emitAck(ctx context.Context, seq int, kind command.Kind) error {
	ev := Event{
		Device:      p.dev.Model(),
		Seq:         seq,
		Ack:         true,
		Measurement: protocol.Measurement{Mode: kind, Timestamp: time.Now()},
	}
	if err := p.sink.Emit(ctx, ev); err != nil {
		return fmt.Errorf("sink: %w", err)
	}
	return nil
}

func (p *Pipeline) logDebug(msg string, kv ...any) {
	if p.log != nil {
		p.log.Debug(msg, kv...)
	}
}

func (p *Pipeline) logWarn(msg string, kv ...any) {
	if p.log != nil {
		p.log.Warn(msg, kv...)
	}
}
