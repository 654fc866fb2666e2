package transmit

import (
	"context"

	"github.com/nerrad567/rfpanel-core/internal/power"
)

// Noop is a gateway that logs each command and reports success.
// It is used when the panel runs without a radio bridge.
type Noop struct {
	logger Logger
}

// NewNoop creates a logging no-op gateway.
func NewNoop(logger Logger) *Noop {
	return &Noop{logger: orNoop(logger)}
}

// Transmit logs cmd and returns nil.
func (n *Noop) Transmit(_ context.Context, cmd power.Command) error {
	n.logger.Info("transmit (noop)",
		"address", formatAddress(cmd.Address),
		"socket", cmd.Socket,
		"state", cmd.State,
	)
	return nil
}
