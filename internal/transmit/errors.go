package transmit

import "errors"

// Domain errors for the transmit package.
var (
	// ErrPublisherUnavailable is returned when the MQTT gateway has no client.
	ErrPublisherUnavailable = errors.New("transmit: mqtt publisher not available")

	// ErrNoAddresses is returned when pairing is started with an empty list.
	ErrNoAddresses = errors.New("transmit: no addresses to pair")

	// ErrInjectedFailure is the default error a Recorder returns for a
	// command configured to fail.
	ErrInjectedFailure = errors.New("transmit: injected failure")
)
