package transmit

import (
	"encoding/json"

	"github.com/nerrad567/rfpanel-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/rfpanel-core/internal/panel"
	"github.com/nerrad567/rfpanel-core/internal/power"
)

// Announcer republishes panel events on MQTT so other systems can follow
// the panel without a WebSocket connection. It implements the
// EventBroadcaster interfaces of power and panel.
//
//   - button.pressed → rfpanel/core/press/{execution_id}
//   - mode.changed   → rfpanel/core/mode (retained)
//
// Other channels are ignored.
type Announcer struct {
	publisher Publisher
	qos       byte
	logger    Logger
}

// NewAnnouncer creates an announcer.
func NewAnnouncer(publisher Publisher, qos byte, logger Logger) *Announcer {
	return &Announcer{publisher: publisher, qos: qos, logger: orNoop(logger)}
}

// Broadcast publishes payload if channel has an MQTT mapping.
func (a *Announcer) Broadcast(channel string, payload any) {
	if a.publisher == nil {
		return
	}

	topics := mqtt.Topics{}
	var (
		topic    string
		retained bool
	)
	switch channel {
	case power.EventButtonPressed:
		ev, ok := payload.(power.PressedEvent)
		if !ok {
			return
		}
		topic = topics.CorePress(ev.ExecutionID)
	case panel.EventModeChanged:
		topic = topics.CoreMode()
		retained = true
	default:
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		a.logger.Error("failed to marshal announcement", "channel", channel, "error", err)
		return
	}
	if err := a.publisher.Publish(topic, data, a.qos, retained); err != nil {
		a.logger.Warn("failed to publish announcement", "topic", topic, "error", err)
	}
}
