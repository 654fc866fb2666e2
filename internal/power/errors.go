package power

import "errors"

// Domain errors for the power package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, power.ErrInvalidArgument) {
//	    // reject the request, nothing was sent
//	}
var (
	// ErrInvalidArgument is returned when a caller passes a value the
	// resolver cannot act on. No commands are produced.
	ErrInvalidArgument = errors.New("power: invalid argument")

	// ErrTransmitFailed wraps a gateway error for one command.
	// It is recorded on the execution and never aborts the sequence.
	ErrTransmitFailed = errors.New("power: transmit failed")

	// ErrGatewayUnavailable is returned when a dispatcher has no gateway.
	ErrGatewayUnavailable = errors.New("power: transmit gateway not available")
)
