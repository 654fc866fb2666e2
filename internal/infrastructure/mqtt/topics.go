package mqtt

import "fmt"

// Topic prefixes for the RF panel bus.
//
// Radio bridge topics use the flat scheme rfpanel/{category}/{protocol}/...
// Panel-originated events live under rfpanel/core.
const (
	// TopicPrefix is the base for all bridge topics.
	TopicPrefix = "rfpanel"

	// TopicPrefixCore is the base for topics published by the panel itself.
	TopicPrefixCore = "rfpanel/core"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "rfpanel/system"

	// ProtocolOOK is the protocol segment used for 433MHz on-off-keyed sockets.
	ProtocolOOK = "ook"
)

// Topics provides builders for RF panel MQTT topics.
// Using these helpers keeps topic naming consistent between the panel
// and the radio bridge.
//
//	topics := mqtt.Topics{}
//	topic := topics.SocketCommand(0xA0001, 1)
//	// Returns: "rfpanel/command/ook/a0001/1"
type Topics struct{}

// SocketCommand returns the topic the radio bridge listens on for a single
// socket. The address is rendered as lower-case hex without a prefix.
//
// Example: rfpanel/command/ook/a0001/1
func (Topics) SocketCommand(address uint32, socket int) string {
	return fmt.Sprintf("%s/command/%s/%x/%d", TopicPrefix, ProtocolOOK, address, socket)
}

// BridgeHealth returns the topic a bridge publishes its health on.
//
// Example: rfpanel/health/ook
func (Topics) BridgeHealth(protocol string) string {
	return fmt.Sprintf("%s/health/%s", TopicPrefix, protocol)
}

// CoreMode returns the retained topic carrying the panel's power mode.
//
// Example: rfpanel/core/mode
func (Topics) CoreMode() string {
	return TopicPrefixCore + "/mode"
}

// CorePress returns the topic a completed button press is announced on.
//
// Example: rfpanel/core/press/exe-1a2b3c4d
func (Topics) CorePress(executionID string) string {
	return fmt.Sprintf("%s/press/%s", TopicPrefixCore, executionID)
}

// SystemStatus returns the panel's online/offline status topic (also the LWT).
//
// Example: rfpanel/system/status
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}

// AllSocketCommands matches every socket command.
//
// Pattern: rfpanel/command/+/+/+
func (Topics) AllSocketCommands() string {
	return TopicPrefix + "/command/+/+/+"
}

// AllBridgeHealth matches health updates from every bridge.
//
// Pattern: rfpanel/health/+
func (Topics) AllBridgeHealth() string {
	return TopicPrefix + "/health/+"
}

// AllCorePresses matches every press announcement.
//
// Pattern: rfpanel/core/press/+
func (Topics) AllCorePresses() string {
	return TopicPrefixCore + "/press/+"
}
