package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteMeasurement writes a single instrument reading to InfluxDB.
//
// This is the primary method for recording capture sessions. The write
// is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - device: Instrument model name (e.g., "unit161d")
//   - function: Measurement function label (e.g., "DCV", "ACmV")
//   - unit: Base unit symbol (e.g., "V", "Hz")
//   - value: The reading in base units
//   - timestamp: When the reading was decoded
//
// Example:
//
//	client.WriteMeasurement("unit161d", "DCV", "V", 12.34, time.Now())
func (c *Client) WriteMeasurement(device, function, unit string, value float64, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"bench_measurements",
		map[string]string{
			"device":   device,
			"function": function,
			"unit":     unit,
		},
		map[string]interface{}{
			"value": value,
		},
		timestamp,
	)

	c.writeAPI.WritePoint(point)
}

// WriteOverload records a reading the instrument flagged out of range.
// Overloads carry no numeric value, so they land in their own series
// for gap analysis.
func (c *Client) WriteOverload(device, function string, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"bench_overloads",
		map[string]string{
			"device":   device,
			"function": function,
		},
		map[string]interface{}{
			"count": 1,
		},
		timestamp,
	)

	c.writeAPI.WritePoint(point)
}

// WriteSummary writes end-of-run aggregates for one capture session.
//
// Parameters:
//   - device: Instrument model name
//   - min, max: Session extremes in base units
//   - readings: Total readings collected
func (c *Client) WriteSummary(device string, min, max float64, readings int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"bench_summaries",
		map[string]string{
			"device": device,
		},
		map[string]interface{}{
			"min":      min,
			"max":      max,
			"readings": readings,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
