package transmit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/rfpanel-core/internal/catalog"
	"github.com/nerrad567/rfpanel-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/rfpanel-core/internal/power"
)

// Publisher is the subset of the MQTT client the gateway needs.
// *mqtt.Client satisfies it.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// CommandMessage is the JSON payload sent to the radio bridge.
type CommandMessage struct {
	ID        string             `json:"id"`
	Address   uint32             `json:"address"`
	Socket    int                `json:"socket"`
	State     catalog.PowerState `json:"state"`
	Source    string             `json:"source"`
	Timestamp time.Time          `json:"timestamp"`
}

// MQTT is a gateway that hands each command to the radio bridge over MQTT.
//
// One message is published per command on
// rfpanel/command/ook/{address}/{socket}. Messages are never retained; a
// bridge that reconnects must not replay stale switching commands.
type MQTT struct {
	publisher Publisher
	qos       byte
	source    string
	logger    Logger
	now       func() time.Time
}

// NewMQTT creates an MQTT gateway.
//
// Parameters:
//   - publisher: Connected MQTT client
//   - qos: Publish QoS (0, 1 or 2)
//   - source: Value of the "source" field in every message
//   - logger: Logger for publish events (nil discards)
func NewMQTT(publisher Publisher, qos byte, source string, logger Logger) *MQTT {
	return &MQTT{
		publisher: publisher,
		qos:       qos,
		source:    source,
		logger:    orNoop(logger),
		now:       time.Now,
	}
}

// Transmit publishes cmd to the bridge. A publish error is returned
// unchanged so the dispatcher records it against this command.
func (g *MQTT) Transmit(_ context.Context, cmd power.Command) error {
	if g.publisher == nil {
		return ErrPublisherUnavailable
	}

	msg := CommandMessage{
		ID:        uuid.NewString(),
		Address:   cmd.Address,
		Socket:    cmd.Socket,
		State:     cmd.State,
		Source:    g.source,
		Timestamp: g.now().UTC(),
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshalling command: %w", err)
	}

	topic := mqtt.Topics{}.SocketCommand(cmd.Address, cmd.Socket)
	if err := g.publisher.Publish(topic, payload, g.qos, false); err != nil {
		return fmt.Errorf("publishing to %s: %w", topic, err)
	}

	g.logger.Debug("command published",
		"topic", topic,
		"message_id", msg.ID,
		"state", cmd.State,
	)
	return nil
}

func formatAddress(addr uint32) string {
	return fmt.Sprintf("0x%X", addr)
}
