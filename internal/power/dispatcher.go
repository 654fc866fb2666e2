package power

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/rfpanel-core/internal/catalog"
)

// Dispatcher resolves a press and hands each command to the gateway in order.
//
// Only one press is in flight at a time. The RF channel is half duplex and
// commands from two presses must not interleave on the air.
type Dispatcher struct {
	resolver *Resolver
	gateway  Gateway
	logger   Logger

	history HistoryRecorder
	metrics MetricsWriter
	hub     EventBroadcaster

	mu  sync.Mutex
	now func() time.Time
}

// NewDispatcher creates a dispatcher.
//
// Parameters:
//   - resolver: Expands buttons into commands
//   - gateway: Performs the transmissions
//   - logger: Logger for press events (nil discards)
//
// Returns:
//   - *Dispatcher: Ready to accept presses
func NewDispatcher(resolver *Resolver, gateway Gateway, logger Logger) *Dispatcher {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Dispatcher{
		resolver: resolver,
		gateway:  gateway,
		logger:   logger,
		now:      time.Now,
	}
}

// SetHistory sets where finished executions are persisted.
func (d *Dispatcher) SetHistory(h HistoryRecorder) {
	d.history = h
}

// SetMetrics sets the metrics sink.
func (d *Dispatcher) SetMetrics(m MetricsWriter) {
	d.metrics = m
}

// SetBroadcaster sets the event broadcaster for press notifications.
func (d *Dispatcher) SetBroadcaster(b EventBroadcaster) {
	d.hub = b
}

// Resolver returns the dispatcher's resolver.
func (d *Dispatcher) Resolver() *Resolver {
	return d.resolver
}

// Press looks up the button at ref and dispatches it in state.
func (d *Dispatcher) Press(ctx context.Context, ref catalog.ButtonRef, state catalog.PowerState, source string) (*Execution, error) {
	button, err := d.resolver.Catalog().Button(ref)
	if err != nil {
		return nil, err
	}
	return d.Dispatch(ctx, button, state, source)
}

// Dispatch resolves button in state and transmits every resulting command.
//
// Resolution happens before anything is sent, so an invalid state leaves the
// air untouched. Once transmission starts the full sequence is attempted:
// a failing command is logged and recorded on the execution and the next one
// still goes out. Cancelling ctx does not stop the sequence; the gateway
// receives a context without cancellation but with ctx's values.
//
// Parameters:
//   - ctx: Request context
//   - button: The tapped button
//   - state: Exactly catalog.PowerOn or catalog.PowerOff
//   - source: Who asked ("panel", "api", "mqtt")
//
// Returns:
//   - *Execution: The completed execution record
//   - error: Resolution errors only; transmit failures are in the record
func (d *Dispatcher) Dispatch(ctx context.Context, button catalog.Button, state catalog.PowerState, source string) (*Execution, error) {
	if d.gateway == nil {
		return nil, ErrGatewayUnavailable
	}

	commands, err := d.resolver.Resolve(button, state)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	exec := &Execution{
		ID:            GenerateID(),
		Button:        button.Ref(),
		Label:         button.Label,
		State:         state,
		Source:        source,
		Commands:      commands,
		CommandsTotal: len(commands),
		StartedAt:     d.now().UTC(),
	}

	d.logger.Info("button press started",
		"execution_id", exec.ID,
		"button", exec.Button.String(),
		"label", exec.Label,
		"state", state,
		"commands", len(commands),
		"source", source,
	)

	sendCtx := context.WithoutCancel(ctx)
	for i, cmd := range commands {
		txErr := d.gateway.Transmit(sendCtx, cmd)
		if d.metrics != nil {
			d.metrics.RecordCommand(cmd, txErr)
		}
		if txErr != nil {
			exec.CommandsFailed++
			exec.Failures = append(exec.Failures, CommandFailure{
				Index:   i,
				Command: cmd,
				Error:   fmt.Errorf("%w: %w", ErrTransmitFailed, txErr).Error(),
			})
			d.logger.Warn("transmit failed",
				"execution_id", exec.ID,
				"index", i,
				"command", cmd.String(),
				"error", txErr,
			)
			continue
		}
		exec.CommandsSent++
	}

	exec.CompletedAt = d.now().UTC()
	exec.DurationMS = int(exec.CompletedAt.Sub(exec.StartedAt).Milliseconds())
	exec.Status = statusFor(exec.CommandsTotal, exec.CommandsFailed)

	d.logger.Info("button press complete",
		"execution_id", exec.ID,
		"status", exec.Status,
		"sent", exec.CommandsSent,
		"failed", exec.CommandsFailed,
		"duration_ms", exec.DurationMS,
	)

	d.notify(sendCtx, exec)
	return exec, nil
}

// notify hands a finished execution to the optional observers.
// Observer failures are logged and never fail the press.
func (d *Dispatcher) notify(ctx context.Context, exec *Execution) {
	if d.history != nil {
		if err := d.history.Create(ctx, exec); err != nil {
			d.logger.Error("failed to persist execution",
				"execution_id", exec.ID,
				"error", err,
			)
		}
	}
	if d.metrics != nil {
		d.metrics.RecordPress(exec)
	}
	if d.hub != nil {
		d.hub.Broadcast(EventButtonPressed, exec.Event())
	}
}

func statusFor(total, failed int) ExecutionStatus {
	switch {
	case failed == 0:
		return StatusCompleted
	case failed == total:
		return StatusFailed
	default:
		return StatusPartial
	}
}
