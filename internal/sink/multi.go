package sink

import (
	"context"
	"errors"

	"github.com/openbench/bench-core/internal/pipeline"
)

// Multi fans events out to several sinks in order. The first emit
// failure aborts the fan-out so the pipeline sees it immediately.
type Multi struct {
	sinks []pipeline.Sink
}

// NewMulti combines sinks. A single sink is returned unwrapped.
func NewMulti(sinks ...pipeline.Sink) pipeline.Sink {
	if len(sinks) == 1 {
		return sinks[0]
	}
	return &Multi{sinks: sinks}
}

// Emit delivers the event to each sink in registration order.
func (m *Multi) Emit(ctx context.Context, ev pipeline.Event) error {
	for _, s := range m.sinks {
		if err := s.Emit(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every sink, even when earlier ones fail, and joins the
// errors.
func (m *Multi) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
