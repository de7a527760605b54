package mqtt

import (
	"errors"
	"strings"
	"testing"

	"github.com/openbench/bench-core/internal/infrastructure/config"
)

func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "localhost",
			Port:     1883,
			ClientID: "benchctl-test",
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     60,
		},
	}
}

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	opts := buildClientOptions(cfg)

	servers := opts.Servers
	if len(servers) != 1 {
		t.Fatalf("got %d servers, want 1", len(servers))
	}
	if servers[0].String() != "tcp://localhost:1883" {
		t.Errorf("broker URL = %q, want tcp://localhost:1883", servers[0].String())
	}
	if opts.ClientID != "benchctl-test" {
		t.Errorf("ClientID = %q", opts.ClientID)
	}
	if !opts.AutoReconnect {
		t.Error("AutoReconnect must be enabled")
	}
}

func TestBuildClientOptionsTLS(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.TLS = true
	opts := buildClientOptions(cfg)

	if got := opts.Servers[0].Scheme; got != "ssl" {
		t.Errorf("scheme = %q, want ssl", got)
	}
	if opts.TLSConfig == nil {
		t.Error("TLSConfig must be set when TLS is enabled")
	}
}

func TestBuildClientOptionsAuth(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Username = "bench"
	cfg.Auth.Password = "secret"
	opts := buildClientOptions(cfg)

	if opts.Username != "bench" || opts.Password != "secret" {
		t.Error("credentials not applied")
	}
}

func TestConfigureLWT(t *testing.T) {
	opts := buildClientOptions(testConfig())
	configureLWT(opts, "benchctl-test")

	if !opts.WillEnabled {
		t.Fatal("LWT must be enabled")
	}
	if opts.WillTopic != "benchctl/system/status" {
		t.Errorf("WillTopic = %q", opts.WillTopic)
	}
	payload := string(opts.WillPayload)
	if !strings.Contains(payload, `"status":"offline"`) {
		t.Errorf("WillPayload = %q, want offline status", payload)
	}
	if !strings.Contains(payload, "benchctl-test") {
		t.Errorf("WillPayload = %q, want client id", payload)
	}
}

func TestStatusPayloads(t *testing.T) {
	online := buildOnlinePayload("c1")
	if !strings.Contains(online, `"status":"online"`) || !strings.Contains(online, "c1") {
		t.Errorf("online payload = %q", online)
	}
	offline := buildOfflinePayload("c1")
	if !strings.Contains(offline, `"status":"offline"`) ||
		!strings.Contains(offline, "graceful_shutdown") {
		t.Errorf("offline payload = %q", offline)
	}
}

func TestTopics(t *testing.T) {
	tests := []struct {
		name     string
		build    func() string
		expected string
	}{
		{"measurement", func() string { return Topics{}.Measurement("unit161d") },
			"benchctl/measurement/unit161d"},
		{"summary", func() string { return Topics{}.Summary("peaktech4055mv") },
			"benchctl/summary/peaktech4055mv"},
		{"all measurements", func() string { return Topics{}.AllMeasurements() },
			"benchctl/measurement/+"},
		{"system status", func() string { return Topics{}.SystemStatus() },
			"benchctl/system/status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.build(); got != tt.expected {
				t.Errorf("topic = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestPublishValidation(t *testing.T) {
	c := &Client{cfg: testConfig()}

	if err := c.Publish("", []byte("x"), 1, false); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("empty topic err = %v, want ErrInvalidTopic", err)
	}
	if err := c.Publish("benchctl/measurement/x", []byte("x"), 3, false); !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("bad qos err = %v, want ErrInvalidQoS", err)
	}

	big := make([]byte, maxPayloadSize+1)
	if err := c.Publish("benchctl/measurement/x", big, 1, false); !errors.Is(err, ErrPublishFailed) {
		t.Errorf("oversized payload err = %v, want ErrPublishFailed", err)
	}
}
