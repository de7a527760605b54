package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/openbench/bench-core/internal/infrastructure/database"
	"github.com/openbench/bench-core/internal/pipeline"
)

// SQLite records every event in the measurements table and writes one
// sessions row on close. It takes ownership of the database handle.
type SQLite struct {
	db      *database.DB
	device  string
	started time.Time
	count   int
	minV    float64
	maxV    float64
	haveMin bool
}

// NewSQLite wraps an open, migrated database.
func NewSQLite(db *database.DB) *SQLite {
	return &SQLite{db: db, started: time.Now().UTC()}
}

const insertMeasurementSQL = `
INSERT INTO measurements (device, seq, function, unit, value, display, overload, recorded_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

const insertSessionSQL = `
INSERT INTO sessions (device, readings, min_value, max_value, started_at, ended_at)
VALUES (?, ?, ?, ?, ?, ?)`

// Emit inserts one measurement row. Acknowledgements carry no value
// and are not history.
func (s *SQLite) Emit(ctx context.Context, ev pipeline.Event) error {
	if ev.Ack {
		return nil
	}
	m := ev.Measurement

	var value any
	if !m.Overload && !m.NCV {
		value = m.Value
	}
	overload := 0
	if m.Overload {
		overload = 1
	}

	_, err := s.db.ExecContext(ctx, insertMeasurementSQL,
		ev.Device, ev.Seq, m.Function, m.Unit.Symbol(), value,
		m.Display, overload, m.Timestamp.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("%w: sqlite insert: %w", ErrEmitFailed, err)
	}

	s.device = ev.Device
	s.count++
	if ev.SpanValid {
		s.minV, s.maxV = ev.RunningMin, ev.RunningMax
		s.haveMin = true
	}
	return nil
}

// Close writes the session summary row and releases the database.
func (s *SQLite) Close() error {
	if s.count > 0 {
		var minV, maxV any
		if s.haveMin {
			minV, maxV = s.minV, s.maxV
		}
		ended := time.Now().UTC().Format(time.RFC3339Nano)
		started := s.started.Format(time.RFC3339Nano)
		_, err := s.db.ExecContext(context.Background(), insertSessionSQL,
			s.device, s.count, minV, maxV, started, ended)
		if err != nil {
			_ = s.db.Close() //nolint:errcheck // Summary failure is the primary error
			return fmt.Errorf("%w: sqlite session: %w", ErrCloseFailed, err)
		}
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("%w: sqlite: %w", ErrCloseFailed, err)
	}
	return nil
}
