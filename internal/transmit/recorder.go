package transmit

import (
	"context"
	"sync"

	"github.com/nerrad567/rfpanel-core/internal/power"
)

// socketKey identifies one address/socket pair regardless of state.
type socketKey struct {
	address uint32
	socket  int
}

// Recorder is an in-memory gateway that remembers every command.
// Selected sockets can be made to fail. Safe for concurrent use.
type Recorder struct {
	mu       sync.Mutex
	commands []power.Command
	failures map[socketKey]error
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{failures: make(map[socketKey]error)}
}

// FailSocket makes every command to address/socket fail with err.
// A nil err uses ErrInjectedFailure.
func (r *Recorder) FailSocket(address uint32, socket int, err error) {
	if err == nil {
		err = ErrInjectedFailure
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[socketKey{address, socket}] = err
}

// Transmit records cmd and returns the configured failure, if any.
// Failed commands are recorded too.
func (r *Recorder) Transmit(_ context.Context, cmd power.Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, cmd)
	return r.failures[socketKey{cmd.Address, cmd.Socket}]
}

// Commands returns a copy of every command seen so far.
func (r *Recorder) Commands() []power.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]power.Command, len(r.commands))
	copy(out, r.commands)
	return out
}

// Reset forgets recorded commands. Configured failures are kept.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = nil
}
