package mqtt

import (
	"fmt"
)

// maxPayloadSize caps a single publish at 1MB, in line with common
// broker defaults.
const maxPayloadSize = 1 << 20

// Publish sends a payload to a topic and waits for the broker to
// acknowledge it, up to the publish timeout. QoS 0 is fire and forget,
// 1 guarantees delivery with possible duplicates, 2 guarantees exactly
// once.
//
// Retained messages are stored by the broker and handed to new
// subscribers immediately. Use them for state topics such as the
// session summary, never for the live reading stream.
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}

	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	return nil
}
