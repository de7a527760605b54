package mqtt

import "fmt"

// Topic prefixes for benchctl MQTT traffic.
//
// All topics use the flat scheme: benchctl/{category}/{device}
const (
	// TopicPrefix is the base for all benchctl topics.
	TopicPrefix = "benchctl"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "benchctl/system"
)

// Topics provides builders for benchctl MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	topic := topics.Measurement("unit161d")
//	// Returns: "benchctl/measurement/unit161d"
type Topics struct{}

// Measurement returns the topic for live readings from one device.
//
// Example: benchctl/measurement/unit161d
func (Topics) Measurement(device string) string {
	return fmt.Sprintf("%s/measurement/%s", TopicPrefix, device)
}

// Summary returns the topic for end-of-run aggregates from one device.
//
// Example: benchctl/summary/unit161d
func (Topics) Summary(device string) string {
	return fmt.Sprintf("%s/summary/%s", TopicPrefix, device)
}

// AllMeasurements returns a wildcard topic matching every device's
// readings. For subscribers, not publishers.
//
// Example: benchctl/measurement/+
func (Topics) AllMeasurements() string {
	return TopicPrefix + "/measurement/+"
}

// SystemStatus returns the online/offline status topic carrying the LWT.
//
// Example: benchctl/system/status
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}
