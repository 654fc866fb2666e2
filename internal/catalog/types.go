package catalog

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// PowerState is the commanded state of a socket.
type PowerState string

// Power states.
const (
	PowerOn  PowerState = "ON"
	PowerOff PowerState = "OFF"
)

// Valid reports whether s is exactly ON or OFF.
func (s PowerState) Valid() bool {
	return s == PowerOn || s == PowerOff
}

// Toggle returns the opposite state. An invalid state toggles to ON.
func (s PowerState) Toggle() PowerState {
	if s == PowerOn {
		return PowerOff
	}
	return PowerOn
}

// ParsePowerState parses user input such as "on" or " OFF ".
// The result is always a valid PowerState or an ErrInvalidPowerState error.
func ParsePowerState(s string) (PowerState, error) {
	state := PowerState(strings.ToUpper(strings.TrimSpace(s)))
	if !state.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPowerState, s)
	}
	return state, nil
}

// Column is one of the two button columns on a page.
type Column string

// Columns, in enumeration order.
const (
	ColumnLeft  Column = "L"
	ColumnRight Column = "R"
)

// AllColumns returns the columns in catalog enumeration order.
func AllColumns() []Column {
	return []Column{ColumnLeft, ColumnRight}
}

// Valid reports whether c is L or R.
func (c Column) Valid() bool {
	return c == ColumnLeft || c == ColumnRight
}

// ParseColumn accepts "L", "R", "left" or "right" in any case.
func ParseColumn(s string) (Column, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "L", "LEFT":
		return ColumnLeft, nil
	case "R", "RIGHT":
		return ColumnRight, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidColumn, s)
}

// rank orders columns: L before R.
func (c Column) rank() int {
	if c == ColumnLeft {
		return 0
	}
	return 1
}

// ButtonRef identifies a button by position. It is the key for any
// per-button data kept outside the catalog (render layout, debounce state).
type ButtonRef struct {
	Page   int    `json:"page"`
	Column Column `json:"column"`
	Slot   int    `json:"slot"`
}

// String formats the ref as page/column/slot, e.g. "1/L/2".
func (r ButtonRef) String() string {
	return fmt.Sprintf("%d/%s/%d", r.Page, r.Column, r.Slot)
}

// compareRefs orders refs in catalog enumeration order:
// page ascending, L before R, slot ascending.
func compareRefs(a, b ButtonRef) int {
	if a.Page != b.Page {
		return a.Page - b.Page
	}
	if a.Column != b.Column {
		return a.Column.rank() - b.Column.rank()
	}
	return a.Slot - b.Slot
}

// Action is a single entry in a button's power-on or power-off list.
// It is either a DirectAction or a MacroAction; the set is closed.
type Action interface {
	fmt.Stringer
	isAction()
}

// DirectAction transmits Command to one fixed address and socket.
type DirectAction struct {
	Address uint32
	Socket  int
	Command PowerState
}

func (DirectAction) isAction() {}

// String implements fmt.Stringer.
func (a DirectAction) String() string {
	return fmt.Sprintf("direct 0x%X/%d %s", a.Address, a.Socket, a.Command)
}

// MarshalJSON adds a type discriminator.
func (a DirectAction) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    string     `json:"type"`
		Address uint32     `json:"address"`
		Socket  int        `json:"socket"`
		Command PowerState `json:"command"`
	}{"direct", a.Address, a.Socket, a.Command})
}

// MacroAction sends Command to every other button carrying any of Tags.
// Tags are expanded in the order listed, repeats included.
type MacroAction struct {
	Tags    []string
	Command PowerState
}

func (MacroAction) isAction() {}

// String implements fmt.Stringer.
func (a MacroAction) String() string {
	return fmt.Sprintf("macro [%s] %s", strings.Join(a.Tags, ", "), a.Command)
}

// MarshalJSON adds a type discriminator.
func (a MacroAction) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    string     `json:"type"`
		Tags    []string   `json:"tags"`
		Command PowerState `json:"command"`
	}{"macro", a.Tags, a.Command})
}

// Button is one control on the panel and the socket it drives by default.
type Button struct {
	Page    int    `json:"page"`
	Column  Column `json:"column"`
	Slot    int    `json:"slot"`
	Label   string `json:"label"`
	Address uint32 `json:"address"`
	Socket  int    `json:"socket"`

	// Tags are trimmed and unique. Matching is case-sensitive.
	Tags []string `json:"tags"`

	PowerOn  []Action `json:"power_on"`
	PowerOff []Action `json:"power_off"`
}

// Ref returns the button's position.
func (b Button) Ref() ButtonRef {
	return ButtonRef{Page: b.Page, Column: b.Column, Slot: b.Slot}
}

// HasTag reports whether the button carries tag. Only surrounding
// whitespace is ignored.
func (b Button) HasTag(tag string) bool {
	return slices.Contains(b.Tags, trimTag(tag))
}

// Actions returns the action list for state. Invalid states yield nil.
func (b Button) Actions(state PowerState) []Action {
	switch state {
	case PowerOn:
		return b.PowerOn
	case PowerOff:
		return b.PowerOff
	}
	return nil
}

// Clone returns a deep copy so callers cannot alter catalog records.
func (b Button) Clone() Button {
	out := b
	out.Tags = slices.Clone(b.Tags)
	out.PowerOn = cloneActions(b.PowerOn)
	out.PowerOff = cloneActions(b.PowerOff)
	return out
}

func cloneActions(actions []Action) []Action {
	if actions == nil {
		return nil
	}
	out := make([]Action, len(actions))
	for i, a := range actions {
		if m, ok := a.(MacroAction); ok {
			m.Tags = slices.Clone(m.Tags)
			a = m
		}
		out[i] = a
	}
	return out
}
