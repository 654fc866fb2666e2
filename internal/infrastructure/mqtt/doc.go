// Package mqtt provides MQTT connectivity between the RF panel and the
// radio bridge.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Publishing socket commands with QoS guarantees
//   - Subscriptions (bridge health) restored after reconnect
//   - Last Will and Testament (LWT) for offline detection
//
// # Architecture
//
// The panel never drives the 433MHz transmitter directly. It publishes one
// message per resolved command and a bridge process next to the radio
// keys the transmitter:
//
//	RF Panel → MQTT Broker → OOK Bridge → sockets
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	topic := mqtt.Topics{}.SocketCommand(0xA0001, 1)
//	client.Publish(topic, payload, 1, false)
//
// TLS should be enabled (cfg.Broker.TLS) whenever the broker is not on
// the kiosk itself.
package mqtt
