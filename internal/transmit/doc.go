// Package transmit provides the gateways that put resolved commands on air.
//
// Every gateway implements power.Gateway:
//
//   - MQTT publishes each command to the radio bridge
//   - Noop only logs, for running without a bridge
//   - Recorder keeps commands in memory and can fail chosen sockets
//
// Pair runs the socket learn sequence used by cmd/rfpair, and Announcer
// mirrors panel events onto rfpanel/core topics.
package transmit
