package influxdb_test

import (
	"errors"
	"testing"
	"time"

	"github.com/openbench/bench-core/internal/infrastructure/config"
	"github.com/openbench/bench-core/internal/infrastructure/influxdb"
)

// testConfig returns a configuration for a local dev InfluxDB.
func testConfig() config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           "http://127.0.0.1:8086",
		Token:         "bench-dev-token",
		Org:           "bench",
		Bucket:        "measurements",
		BatchSize:     100,
		FlushInterval: 1, // 1 second for faster test feedback
	}
}

// skipIfNoInfluxDB skips the test if InfluxDB is not running.
func skipIfNoInfluxDB(t *testing.T) *influxdb.Client {
	t.Helper()
	client, err := influxdb.Connect(testConfig())
	if err != nil {
		t.Skip("InfluxDB not available, skipping integration test")
	}
	return client
}

func TestConnect_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false

	_, err := influxdb.Connect(cfg)
	if !errors.Is(err, influxdb.ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	cfg := testConfig()
	cfg.URL = "http://127.0.0.1:59999" // Non-existent port

	_, err := influxdb.Connect(cfg)
	if !errors.Is(err, influxdb.ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestWriteMeasurement(t *testing.T) {
	client := skipIfNoInfluxDB(t)

	client.WriteMeasurement("unit161d", "DCV", "V", 12.34, time.Now())
	client.WriteOverload("unit161d", "RES", time.Now())
	client.WriteSummary("unit161d", 1.0, 9.0, 5)

	// Close flushes the batch; a write error here would surface via
	// the error callback, not the return value.
	if err := client.Close(); err != nil {
		t.Errorf("Close() after writes: %v", err)
	}
}

func TestClose_Idempotent(t *testing.T) {
	client := skipIfNoInfluxDB(t)

	if err := client.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	// Writes after close are silently dropped.
	client.WriteMeasurement("unit161d", "DCV", "V", 1.0, time.Now())
	if !client.IsConnected() {
		return
	}
	t.Error("IsConnected() = true after Close()")
}
