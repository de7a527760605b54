package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/openbench/bench-core/internal/pipeline"
)

// Console writes one CSV record per event. A header row precedes the
// first record so captures paste straight into analysis tools.
type Console struct {
	w           *csv.Writer
	wroteHeader bool
}

// NewConsole wraps w, typically os.Stdout.
func NewConsole(w io.Writer) *Console {
	return &Console{w: csv.NewWriter(w)}
}

var consoleHeader = []string{
	"timestamp", "device", "seq", "mode", "value", "unit", "min", "max",
}

// Emit appends one CSV record and flushes it, so partial captures
// survive an interrupted run.
func (c *Console) Emit(_ context.Context, ev pipeline.Event) error {
	if !c.wroteHeader {
		if err := c.w.Write(consoleHeader); err != nil {
			return fmt.Errorf("%w: console header: %w", ErrEmitFailed, err)
		}
		c.wroteHeader = true
	}

	value := strconv.FormatFloat(ev.Measurement.Value, 'g', -1, 64)
	switch {
	case ev.Ack:
		value = "ack"
	case ev.Measurement.Overload:
		value = "OL"
	}
	minV, maxV := "", ""
	if ev.SpanValid {
		minV = strconv.FormatFloat(ev.RunningMin, 'g', -1, 64)
		maxV = strconv.FormatFloat(ev.RunningMax, 'g', -1, 64)
	}

	record := []string{
		ev.Measurement.Timestamp.Format(time.RFC3339Nano),
		ev.Device,
		strconv.Itoa(ev.Seq),
		ev.Measurement.Mode.String(),
		value,
		ev.Measurement.Unit.Symbol(),
		minV,
		maxV,
	}
	if err := c.w.Write(record); err != nil {
		return fmt.Errorf("%w: console record: %w", ErrEmitFailed, err)
	}

	c.w.Flush()
	if err := c.w.Error(); err != nil {
		return fmt.Errorf("%w: console flush: %w", ErrEmitFailed, err)
	}
	return nil
}

// Close flushes any buffered output.
func (c *Console) Close() error {
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		return fmt.Errorf("%w: console: %w", ErrCloseFailed, err)
	}
	return nil
}
