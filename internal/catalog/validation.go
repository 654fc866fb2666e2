package catalog

import (
	"fmt"
	"strings"
)

// validateButton returns every problem found on b. Messages are prefixed
// with the button's position so a bad catalog can be fixed in one pass.
func validateButton(b Button) []string {
	var errs []string
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf("page %d column %s slot %d: ", b.Page, b.Column, b.Slot)+
			fmt.Sprintf(format, args...))
	}

	if b.Page < 1 {
		add("page must be 1 or greater")
	}
	if !b.Column.Valid() {
		add("column must be L or R")
	}
	if b.Slot < 1 {
		add("slot must be 1 or greater")
	}
	if strings.TrimSpace(b.Label) == "" {
		add("label is required")
	}
	if b.Socket < 0 {
		add("socket must not be negative")
	}

	for i, a := range b.PowerOn {
		if msg := validateAction(a); msg != "" {
			add("power_on[%d]: %s", i, msg)
		}
	}
	for i, a := range b.PowerOff {
		if msg := validateAction(a); msg != "" {
			add("power_off[%d]: %s", i, msg)
		}
	}

	return errs
}

// validateAction returns the first problem with a, or "".
func validateAction(a Action) string {
	switch v := a.(type) {
	case nil:
		return "action is empty"
	case DirectAction:
		if v.Socket < 0 {
			return "socket must not be negative"
		}
		if !v.Command.Valid() {
			return fmt.Sprintf("command must be ON or OFF, got %q", v.Command)
		}
	case MacroAction:
		if len(v.Tags) == 0 {
			return "tags must not be empty"
		}
		if !v.Command.Valid() {
			return fmt.Sprintf("command must be ON or OFF, got %q", v.Command)
		}
	default:
		return fmt.Sprintf("unsupported action type %T", a)
	}
	return ""
}

// normaliseButton returns a deep copy of b with whitespace trimmed from
// the label and from tags on the button and in every macro action.
func normaliseButton(b Button) Button {
	out := b.Clone()
	out.Label = strings.TrimSpace(out.Label)
	out.Tags = buttonTags(out.Tags)
	normaliseActions(out.PowerOn)
	normaliseActions(out.PowerOff)
	return out
}

func normaliseActions(actions []Action) {
	for i, a := range actions {
		if m, ok := a.(MacroAction); ok {
			m.Tags = macroTags(m.Tags)
			actions[i] = m
		}
	}
}
