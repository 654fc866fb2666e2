package power

import (
	"fmt"

	"github.com/nerrad567/rfpanel-core/internal/catalog"
)

// Resolver expands a button's action list into concrete commands.
//
// Resolution is a pure function of the button, the requested state and the
// catalog, which is immutable. A Resolver is safe for concurrent use.
type Resolver struct {
	catalog *catalog.Catalog
	logger  Logger
}

// NewResolver creates a resolver over cat. A nil logger discards output.
func NewResolver(cat *catalog.Catalog, logger Logger) *Resolver {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Resolver{catalog: cat, logger: logger}
}

// Catalog returns the catalog the resolver reads.
func (r *Resolver) Catalog() *catalog.Catalog {
	return r.catalog
}

// Resolve returns the ordered commands a tap on button produces in state.
//
// The action list for state is walked in declared order:
//   - A DirectAction yields one command unchanged.
//   - A MacroAction yields, for each of its tags in order, one command per
//     catalog button carrying that tag, excluding buttons whose label equals
//     button.Label. Matches come in catalog order and are not de-duplicated
//     across tags.
//
// An empty list falls back to a single command for the button's own
// address and socket; this is logged at warn level and is not an error.
//
// Parameters:
//   - button: The tapped button
//   - state: Exactly catalog.PowerOn or catalog.PowerOff
//
// Returns:
//   - []Command: Commands in transmit order
//   - error: ErrInvalidArgument (with catalog.ErrInvalidPowerState) for any
//     other state; no commands are returned
func (r *Resolver) Resolve(button catalog.Button, state catalog.PowerState) ([]Command, error) {
	if !state.Valid() {
		return nil, fmt.Errorf("%w: %w: %q", ErrInvalidArgument, catalog.ErrInvalidPowerState, state)
	}

	actions := button.Actions(state)
	if len(actions) == 0 {
		r.logger.Warn("no actions defined, using button's own socket",
			"button", button.Ref().String(),
			"label", button.Label,
			"state", state,
		)
		return []Command{{Address: button.Address, Socket: button.Socket, State: state}}, nil
	}

	var commands []Command
	for _, action := range actions {
		switch a := action.(type) {
		case catalog.DirectAction:
			commands = append(commands, Command{Address: a.Address, Socket: a.Socket, State: a.Command})
		case catalog.MacroAction:
			for _, tag := range a.Tags {
				for _, match := range r.catalog.FindButtonsByTag(tag, button.Label) {
					commands = append(commands, Command{Address: match.Address, Socket: match.Socket, State: a.Command})
				}
			}
		}
	}

	r.logger.Debug("resolved button",
		"button", button.Ref().String(),
		"label", button.Label,
		"state", state,
		"commands", len(commands),
	)
	return commands, nil
}

// ResolveRef looks up the button at ref and resolves it.
// Returns catalog.ErrButtonNotFound for an unknown ref.
func (r *Resolver) ResolveRef(ref catalog.ButtonRef, state catalog.PowerState) ([]Command, error) {
	button, err := r.catalog.Button(ref)
	if err != nil {
		return nil, err
	}
	return r.Resolve(button, state)
}
