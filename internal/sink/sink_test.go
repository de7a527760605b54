package sink

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/openbench/bench-core/internal/command"
	"github.com/openbench/bench-core/internal/infrastructure/database"
	"github.com/openbench/bench-core/internal/pipeline"
	"github.com/openbench/bench-core/internal/protocol"
	_ "github.com/openbench/bench-core/migrations"
)

func voltEvent(seq int, value float64) pipeline.Event {
	return pipeline.Event{
		Device: "scpiraw",
		Seq:    seq,
		Measurement: protocol.Measurement{
			Value:     value,
			Unit:      protocol.UnitVolt,
			Mode:      command.KindMeasure,
			Function:  "DCV",
			Timestamp: time.Date(2026, 8, 15, 12, 0, seq, 0, time.UTC),
		},
		RunningMin: value,
		RunningMax: value,
		SpanValid:  true,
	}
}

func TestConsoleEmitsCSV(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)

	if err := c.Emit(context.Background(), voltEvent(1, 3.1415)); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want header + 1", len(records))
	}
	if records[0][0] != "timestamp" || records[0][4] != "value" {
		t.Errorf("header = %v", records[0])
	}
	row := records[1]
	if row[1] != "scpiraw" || row[2] != "1" || row[4] != "3.1415" || row[5] != "V" {
		t.Errorf("row = %v", row)
	}
}

func TestConsoleOverloadRow(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)

	ev := voltEvent(1, 0)
	ev.Measurement.Overload = true
	ev.SpanValid = false
	if err := c.Emit(context.Background(), ev); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	row := records[1]
	if row[4] != "OL" {
		t.Errorf("value column = %q, want OL", row[4])
	}
	if row[6] != "" || row[7] != "" {
		t.Errorf("span columns = %q,%q, want empty", row[6], row[7])
	}
}

func TestConsoleAckRow(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)

	ev := pipeline.Event{
		Device: "peaktech4055mv",
		Seq:    1,
		Ack:    true,
		Measurement: protocol.Measurement{
			Mode:      command.KindApply,
			Timestamp: time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC),
		},
	}
	if err := c.Emit(context.Background(), ev); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	row := records[1]
	if row[4] != "ack" {
		t.Errorf("value column = %q, want ack", row[4])
	}
}

func openBenchDB(t *testing.T, path string) *database.DB {
	t.Helper()
	db, err := database.Open(database.Config{Path: path, WALMode: true, BusyTimeout: 5})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		db.Close()
		t.Fatalf("Migrate() error = %v", err)
	}
	return db
}

func TestSQLiteRecordsHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bench.db")
	s := NewSQLite(openBenchDB(t, path))

	ctx := context.Background()
	runMax := 0.0
	for i, v := range []float64{1.0, 9.0, 2.5} {
		runMax = max(runMax, v)
		ev := voltEvent(i+1, v)
		ev.RunningMin, ev.RunningMax = 1.0, runMax
		if err := s.Emit(ctx, ev); err != nil {
			t.Fatalf("Emit(%d) error = %v", i+1, err)
		}
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	db := openBenchDB(t, path)
	defer db.Close()

	var rows int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM measurements").Scan(&rows); err != nil {
		t.Fatalf("count measurements: %v", err)
	}
	if rows != 3 {
		t.Errorf("measurements = %d, want 3", rows)
	}

	var readings int
	var minV, maxV float64
	err := db.QueryRowContext(ctx,
		"SELECT readings, min_value, max_value FROM sessions").Scan(&readings, &minV, &maxV)
	if err != nil {
		t.Fatalf("read session: %v", err)
	}
	if readings != 3 || minV != 1.0 || maxV != 9.0 {
		t.Errorf("session = (%d, %g, %g), want (3, 1, 9)", readings, minV, maxV)
	}
}

func TestSQLiteOverloadStoresNullValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bench.db")
	s := NewSQLite(openBenchDB(t, path))

	ctx := context.Background()
	ev := voltEvent(1, 0)
	ev.Measurement.Overload = true
	ev.Measurement.Display = "OL"
	ev.SpanValid = false
	if err := s.Emit(ctx, ev); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	db := openBenchDB(t, path)
	defer db.Close()

	var overload int
	var value any
	err := db.QueryRowContext(ctx,
		"SELECT overload, value FROM measurements").Scan(&overload, &value)
	if err != nil {
		t.Fatalf("read measurement: %v", err)
	}
	if overload != 1 {
		t.Errorf("overload = %d, want 1", overload)
	}
	if value != nil {
		t.Errorf("value = %v, want NULL", value)
	}
}

type recordingSink struct {
	name    string
	order   *[]string
	emitErr error
	closed  bool
}

func (r *recordingSink) Emit(_ context.Context, _ pipeline.Event) error {
	*r.order = append(*r.order, r.name)
	return r.emitErr
}

func (r *recordingSink) Close() error {
	r.closed = true
	return r.emitErr
}

func TestMultiFansOutInOrder(t *testing.T) {
	var order []string
	a := &recordingSink{name: "a", order: &order}
	b := &recordingSink{name: "b", order: &order}
	m := NewMulti(a, b)

	if err := m.Emit(context.Background(), voltEvent(1, 1)); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Errorf("order = %v, want [a b]", order)
	}

	if err := m.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !a.closed || !b.closed {
		t.Error("Close() did not reach every sink")
	}
}

func TestMultiStopsOnEmitError(t *testing.T) {
	var order []string
	boom := errors.New("broker gone")
	a := &recordingSink{name: "a", order: &order, emitErr: boom}
	b := &recordingSink{name: "b", order: &order}
	m := NewMulti(a, b)

	if err := m.Emit(context.Background(), voltEvent(1, 1)); !errors.Is(err, boom) {
		t.Fatalf("Emit() error = %v, want %v", err, boom)
	}
	if len(order) != 1 {
		t.Errorf("order = %v, want fan-out aborted after a", order)
	}
}

func TestMultiCloseClosesAllDespiteErrors(t *testing.T) {
	var order []string
	boom := errors.New("disk full")
	a := &recordingSink{name: "a", order: &order, emitErr: boom}
	b := &recordingSink{name: "b", order: &order}

	m := NewMulti(a, b)
	if err := m.Close(); !errors.Is(err, boom) {
		t.Fatalf("Close() error = %v, want %v", err, boom)
	}
	if !b.closed {
		t.Error("later sink not closed after earlier failure")
	}
}

func TestMultiSingleSinkUnwrapped(t *testing.T) {
	var order []string
	a := &recordingSink{name: "a", order: &order}
	if got := NewMulti(a); got != pipeline.Sink(a) {
		t.Errorf("NewMulti(one) = %T, want the sink itself", got)
	}
}
