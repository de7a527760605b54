// Package sink delivers pipeline events to their destinations.
//
// Four sinks cover the supported outputs:
//
//   - Console: CSV lines on a writer, for interactive capture.
//   - SQLite: measurement history plus an end-of-run session row.
//   - MQTT: live readings for dashboards, summary on close.
//   - InfluxDB: time-series points, batched by the client.
//
// Multi fans one event stream out to several sinks; the first emit
// error aborts the run, matching the pipeline's abort-on-sink-failure
// contract.
package sink
