package panel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/nerrad567/rfpanel-core/internal/catalog"
	"github.com/nerrad567/rfpanel-core/internal/power"
)

// EventModeChanged is the broadcast channel for power mode changes.
const EventModeChanged = "mode.changed"

// SourcePanel is the execution source recorded for taps.
const SourcePanel = "panel"

// Presser dispatches a button press. *power.Dispatcher satisfies it.
type Presser interface {
	Press(ctx context.Context, ref catalog.ButtonRef, state catalog.PowerState, source string) (*power.Execution, error)
}

// ModeEvent is the payload broadcast on EventModeChanged.
type ModeEvent struct {
	Mode catalog.PowerState `json:"mode"`
}

// Options configures a Session.
type Options struct {
	DefaultMode catalog.PowerState // ON when empty
	BounceTime  time.Duration      // zero disables debouncing
	Clock       clockwork.Clock    // real clock when nil
	Logger      Logger
}

// Session is the headless state behind the touch panel: the global power
// mode and the per-button debounce. Taps are processed one at a time.
type Session struct {
	presser Presser
	clock   clockwork.Clock
	bounce  time.Duration
	logger  Logger
	hub     power.EventBroadcaster

	mu      sync.Mutex
	mode    catalog.PowerState
	lastRef catalog.ButtonRef
	lastTap time.Time
	tapped  bool
}

// NewSession creates a session.
//
// Returns ErrInvalidMode if opts.DefaultMode is set to anything other than
// ON or OFF.
func NewSession(presser Presser, opts Options) (*Session, error) {
	mode := opts.DefaultMode
	if mode == "" {
		mode = catalog.PowerOn
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
	if opts.BounceTime < 0 {
		opts.BounceTime = 0
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}

	return &Session{
		presser: presser,
		clock:   opts.Clock,
		bounce:  opts.BounceTime,
		logger:  opts.Logger,
		mode:    mode,
	}, nil
}

// SetBroadcaster sets where mode changes are announced.
func (s *Session) SetBroadcaster(b power.EventBroadcaster) {
	s.hub = b
}

// Mode returns the current power mode.
func (s *Session) Mode() catalog.PowerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Toggle flips the power mode and returns the new value.
func (s *Session) Toggle() catalog.PowerState {
	s.mu.Lock()
	s.mode = s.mode.Toggle()
	mode := s.mode
	s.mu.Unlock()

	s.announce(mode)
	return mode
}

// SetMode sets the power mode explicitly.
func (s *Session) SetMode(mode catalog.PowerState) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
	s.mu.Lock()
	changed := s.mode != mode
	s.mode = mode
	s.mu.Unlock()

	if changed {
		s.announce(mode)
	}
	return nil
}

func (s *Session) announce(mode catalog.PowerState) {
	s.logger.Info("power mode changed", "mode", mode)
	if s.hub != nil {
		s.hub.Broadcast(EventModeChanged, ModeEvent{Mode: mode})
	}
}

// Tap handles a touch on the button at ref using the current mode.
//
// A tap on the same button as the previous accepted tap, less than the
// bounce time later, returns ErrBounced. Taps on a different button are
// always accepted. The tap is remembered only once the press was
// dispatched, so an unknown button does not start a bounce window.
//
// Parameters:
//   - ctx: Passed to the dispatcher
//   - ref: Button that was touched
//
// Returns:
//   - *power.Execution: The dispatched press
//   - error: ErrBounced or the dispatcher's error
func (s *Session) Tap(ctx context.Context, ref catalog.ButtonRef) (*power.Execution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	if s.tapped && s.lastRef == ref {
		if since := now.Sub(s.lastTap); since < s.bounce {
			s.logger.Debug("ignoring tap, possible button bounce",
				"button", ref.String(),
				"since_ms", since.Milliseconds(),
				"bounce_ms", s.bounce.Milliseconds(),
			)
			return nil, ErrBounced
		}
	}

	exec, err := s.presser.Press(ctx, ref, s.mode, SourcePanel)
	if err != nil {
		return nil, err
	}

	s.lastRef = ref
	s.lastTap = now
	s.tapped = true
	return exec, nil
}
