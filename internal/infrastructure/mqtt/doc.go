// Package mqtt provides MQTT client connectivity for benchctl.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Measurement publishing with QoS guarantees
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// benchctl publishes live readings so dashboards and loggers can follow
// a capture session without touching the instrument:
//
//	benchctl → MQTT Broker → subscribers (dashboards, recorders)
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	topic := mqtt.Topics{}.Measurement("unit161d")
//	client.Publish(topic, payload, 1, false)
package mqtt
