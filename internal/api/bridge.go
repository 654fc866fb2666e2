package api

import (
	"encoding/json"
	"strings"

	"github.com/nerrad567/rfpanel-core/internal/infrastructure/mqtt"
)

// EventBridgeHealth is the WebSocket channel carrying radio bridge health.
const EventBridgeHealth = "bridge.health"

// subscribeBridgeHealth relays rfpanel/health/{protocol} messages from radio
// bridges to WebSocket clients subscribed to EventBridgeHealth.
func (s *Server) subscribeBridgeHealth() error {
	if s.mqtt == nil {
		return nil // MQTT not configured; relay disabled
	}

	topic := mqtt.Topics{}.AllBridgeHealth()
	s.logger.Info("subscribing to bridge health for WebSocket relay", "topic", topic)
	return s.mqtt.Subscribe(topic, 1, s.relayBridgeHealth)
}

// relayBridgeHealth broadcasts one bridge health message.
// Malformed payloads are logged and dropped.
func (s *Server) relayBridgeHealth(topic string, payload []byte) error {
	if s.hub == nil {
		return nil
	}

	var health map[string]any
	if err := json.Unmarshal(payload, &health); err != nil {
		s.logger.Warn("failed to parse bridge health message", "topic", topic, "error", err)
		return nil
	}

	protocol := topic[strings.LastIndex(topic, "/")+1:]
	s.hub.Broadcast(EventBridgeHealth, map[string]any{
		"protocol": protocol,
		"health":   health,
	})
	return nil
}
