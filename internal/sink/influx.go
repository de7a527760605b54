package sink

import (
	"context"
	"fmt"

	"github.com/openbench/bench-core/internal/infrastructure/influxdb"
	"github.com/openbench/bench-core/internal/pipeline"
)

// Influx forwards readings into InfluxDB. Writes are asynchronous and
// batched by the client, so Emit never blocks on the network. It takes
// ownership of the client.
type Influx struct {
	client *influxdb.Client

	device  string
	count   int
	minV    float64
	maxV    float64
	haveMin bool
}

// NewInflux wraps a connected InfluxDB client.
func NewInflux(client *influxdb.Client) *Influx {
	return &Influx{client: client}
}

// Emit queues one point. Overloads land in their own measurement so
// they never pollute value aggregations; acknowledgements are not
// time-series data and are dropped.
func (s *Influx) Emit(_ context.Context, ev pipeline.Event) error {
	if ev.Ack {
		return nil
	}
	m := ev.Measurement
	if m.Overload {
		s.client.WriteOverload(ev.Device, m.Function, m.Timestamp)
	} else if !m.NCV {
		s.client.WriteMeasurement(ev.Device, m.Function, m.Unit.Symbol(), m.Value, m.Timestamp)
	}

	s.device = ev.Device
	s.count++
	if ev.SpanValid {
		s.minV, s.maxV = ev.RunningMin, ev.RunningMax
		s.haveMin = true
	}
	return nil
}

// Close writes the run summary, flushes pending batches and releases
// the client.
func (s *Influx) Close() error {
	if s.count > 0 && s.haveMin {
		s.client.WriteSummary(s.device, s.minV, s.maxV, s.count)
	}
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("%w: influxdb: %w", ErrCloseFailed, err)
	}
	return nil
}
