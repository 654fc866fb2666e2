package power

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/rfpanel-core/internal/catalog"
)

// Command is one resolved radio instruction: drive socket at address to state.
type Command struct {
	Address uint32             `json:"address"`
	Socket  int                `json:"socket"`
	State   catalog.PowerState `json:"state"`
}

// String formats the command as "0xA0001/1 ON".
func (c Command) String() string {
	return fmt.Sprintf("0x%X/%d %s", c.Address, c.Socket, c.State)
}

// Gateway performs the physical transmission of one command.
// Implementations live outside this package and are injected.
type Gateway interface {
	Transmit(ctx context.Context, cmd Command) error
}

// HistoryRecorder persists finished executions.
type HistoryRecorder interface {
	Create(ctx context.Context, exec *Execution) error
}

// MetricsWriter records per-command and per-press metrics.
// Writes are expected to be non-blocking.
type MetricsWriter interface {
	RecordCommand(cmd Command, err error)
	RecordPress(exec *Execution)
}

// EventBroadcaster pushes events to live listeners (WebSocket clients,
// MQTT announcements).
type EventBroadcaster interface {
	Broadcast(channel string, payload any)
}

// EventButtonPressed is the broadcast channel for finished presses.
const EventButtonPressed = "button.pressed"

// PressedEvent is the payload broadcast on EventButtonPressed.
type PressedEvent struct {
	ExecutionID string             `json:"execution_id"`
	Button      catalog.ButtonRef  `json:"button"`
	Label       string             `json:"label"`
	State       catalog.PowerState `json:"state"`
	Status      ExecutionStatus    `json:"status"`
	Commands    int                `json:"commands"`
	Failed      int                `json:"failed"`
	DurationMS  int                `json:"duration_ms"`
}

// ExecutionStatus is the outcome of a dispatched press.
type ExecutionStatus string

// Execution statuses.
const (
	StatusCompleted ExecutionStatus = "completed"
	StatusPartial   ExecutionStatus = "partial" // some commands failed
	StatusFailed    ExecutionStatus = "failed"  // every command failed
)

// Execution records one button press from resolution to the last transmit.
type Execution struct {
	ID     string             `json:"id"`
	Button catalog.ButtonRef  `json:"button"`
	Label  string             `json:"label"`
	State  catalog.PowerState `json:"state"`
	Source string             `json:"source"`
	Status ExecutionStatus    `json:"status"`

	Commands []Command        `json:"commands"`
	Failures []CommandFailure `json:"failures,omitempty"`

	CommandsTotal  int `json:"commands_total"`
	CommandsSent   int `json:"commands_sent"`
	CommandsFailed int `json:"commands_failed"`

	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	DurationMS  int       `json:"duration_ms"`
}

// CommandFailure records a command the gateway rejected.
type CommandFailure struct {
	Index   int     `json:"index"`
	Command Command `json:"command"`
	Error   string  `json:"error_message"`
}

// Event returns the broadcast payload for e.
func (e *Execution) Event() PressedEvent {
	return PressedEvent{
		ExecutionID: e.ID,
		Button:      e.Button,
		Label:       e.Label,
		State:       e.State,
		Status:      e.Status,
		Commands:    e.CommandsTotal,
		Failed:      e.CommandsFailed,
		DurationMS:  e.DurationMS,
	}
}

// GenerateID returns a short execution identifier such as "exe-1a2b3c4d".
func GenerateID() string {
	return "exe-" + uuid.NewString()[:8]
}

// Logger defines the logging interface used by this package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
