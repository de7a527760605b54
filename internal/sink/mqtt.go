package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/openbench/bench-core/internal/infrastructure/mqtt"
	"github.com/openbench/bench-core/internal/pipeline"
)

// MQTT publishes each reading for live dashboards and a retained
// summary on close. It takes ownership of the broker client.
type MQTT struct {
	client *mqtt.Client
	topics mqtt.Topics

	device  string
	count   int
	minV    float64
	maxV    float64
	haveMin bool
}

// NewMQTT wraps a connected broker client.
func NewMQTT(client *mqtt.Client) *MQTT {
	return &MQTT{client: client}
}

type measurementPayload struct {
	Device    string  `json:"device"`
	Seq       int     `json:"seq"`
	Mode      string  `json:"mode"`
	Value     float64 `json:"value"`
	Unit      string  `json:"unit"`
	Ack       bool    `json:"ack,omitempty"`
	Overload  bool    `json:"overload,omitempty"`
	Timestamp string  `json:"timestamp"`
}

type summaryPayload struct {
	Device   string   `json:"device"`
	Readings int      `json:"readings"`
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	EndedAt  string   `json:"ended_at"`
}

// Emit publishes one reading at QoS 0. Live readings are fire and
// forget; a dropped sample is cheaper than stalling the pipeline.
func (s *MQTT) Emit(_ context.Context, ev pipeline.Event) error {
	m := ev.Measurement
	payload, err := json.Marshal(measurementPayload{
		Device:    ev.Device,
		Seq:       ev.Seq,
		Mode:      m.Mode.String(),
		Value:     m.Value,
		Unit:      m.Unit.Symbol(),
		Ack:       ev.Ack,
		Overload:  m.Overload,
		Timestamp: m.Timestamp.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("%w: mqtt payload: %w", ErrEmitFailed, err)
	}

	topic := s.topics.Measurement(ev.Device)
	if err := s.client.Publish(topic, payload, 0, false); err != nil {
		return fmt.Errorf("%w: mqtt publish: %w", ErrEmitFailed, err)
	}

	s.device = ev.Device
	if !ev.Ack {
		s.count++
	}
	if ev.SpanValid {
		s.minV, s.maxV = ev.RunningMin, ev.RunningMax
		s.haveMin = true
	}
	return nil
}

// Close publishes a retained run summary, then disconnects.
func (s *MQTT) Close() error {
	if s.count > 0 {
		sum := summaryPayload{
			Device:   s.device,
			Readings: s.count,
			EndedAt:  time.Now().UTC().Format(time.RFC3339Nano),
		}
		if s.haveMin {
			sum.Min, sum.Max = &s.minV, &s.maxV
		}
		payload, err := json.Marshal(sum)
		if err == nil {
			// QoS 1 so the summary survives a flaky link.
			err = s.client.Publish(s.topics.Summary(s.device), payload, 1, true)
		}
		if err != nil {
			_ = s.client.Close() //nolint:errcheck // Summary failure is the primary error
			return fmt.Errorf("%w: mqtt summary: %w", ErrCloseFailed, err)
		}
	}
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("%w: mqtt: %w", ErrCloseFailed, err)
	}
	return nil
}
