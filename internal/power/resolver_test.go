package power

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/nerrad567/rfpanel-core/internal/catalog"
)

// ─── Helpers ────────────────────────────────────────────────────────

type logEntry struct {
	level string
	msg   string
}

// recordingLogger captures log calls for assertions.
type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) add(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg})
}

func (l *recordingLogger) Debug(msg string, _ ...any) { l.add("debug", msg) }
func (l *recordingLogger) Info(msg string, _ ...any)  { l.add("info", msg) }
func (l *recordingLogger) Warn(msg string, _ ...any)  { l.add("warn", msg) }
func (l *recordingLogger) Error(msg string, _ ...any) { l.add("error", msg) }

func (l *recordingLogger) count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.entries {
		if e.level == level {
			n++
		}
	}
	return n
}

func mustCatalog(t *testing.T, buttons ...catalog.Button) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New(buttons)
	if err != nil {
		t.Fatalf("catalog.New() error = %v", err)
	}
	return cat
}

func mustButton(t *testing.T, cat *catalog.Catalog, page int, column catalog.Column, slot int) catalog.Button {
	t.Helper()
	b, err := cat.Button(catalog.ButtonRef{Page: page, Column: column, Slot: slot})
	if err != nil {
		t.Fatalf("Button(%d/%s/%d) error = %v", page, column, slot, err)
	}
	return b
}

func on(addr uint32, socket int) Command {
	return Command{Address: addr, Socket: socket, State: catalog.PowerOn}
}

func off(addr uint32, socket int) Command {
	return Command{Address: addr, Socket: socket, State: catalog.PowerOff}
}

// mt32Catalog is the two-button audio catalog used by several scenarios.
// selfTagged also tags MT-32 as an audio sink.
func mt32Catalog(t *testing.T, selfTagged bool) *catalog.Catalog {
	t.Helper()
	mt32 := catalog.Button{
		Page: 1, Column: catalog.ColumnLeft, Slot: 1,
		Label: "MT-32", Address: 0xA0001, Socket: 1,
		PowerOn: []catalog.Action{
			catalog.DirectAction{Address: 0xA0001, Socket: 1, Command: catalog.PowerOn},
			catalog.MacroAction{Tags: []string{"audio sink"}, Command: catalog.PowerOn},
		},
	}
	if selfTagged {
		mt32.Tags = []string{"audio sink"}
	}
	mixer := catalog.Button{
		Page: 1, Column: catalog.ColumnLeft, Slot: 2,
		Label: "Mixer", Address: 0xA0002, Socket: 4,
		Tags: []string{"audio sink"},
	}
	return mustCatalog(t, mt32, mixer)
}

// ─── Scenarios ──────────────────────────────────────────────────────

func TestResolve_EmptyListFallsBackToOwnSocket(t *testing.T) {
	cat := mustCatalog(t, catalog.Button{
		Page: 1, Column: catalog.ColumnLeft, Slot: 1,
		Label: "Mixer", Address: 0xA0001, Socket: 4,
		Tags: []string{"audio sink"},
	})
	logger := &recordingLogger{}
	r := NewResolver(cat, logger)

	mixer := mustButton(t, cat, 1, catalog.ColumnLeft, 1)
	for _, state := range []catalog.PowerState{catalog.PowerOn, catalog.PowerOff} {
		got, err := r.Resolve(mixer, state)
		if err != nil {
			t.Fatalf("Resolve(%s) error = %v", state, err)
		}
		want := []Command{{Address: 0xA0001, Socket: 4, State: state}}
		if !slices.Equal(got, want) {
			t.Errorf("Resolve(%s) = %v, want %v", state, got, want)
		}
	}

	if n := logger.count("warn"); n != 2 {
		t.Errorf("fallback warnings = %d, want 2", n)
	}
}

func TestResolve_DirectThenMacro(t *testing.T) {
	cat := mt32Catalog(t, false)
	r := NewResolver(cat, nil)

	got, err := r.Resolve(mustButton(t, cat, 1, catalog.ColumnLeft, 1), catalog.PowerOn)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	want := []Command{on(0xA0001, 1), on(0xA0002, 4)}
	if !slices.Equal(got, want) {
		t.Errorf("Resolve() = %v, want %v", got, want)
	}
}

func TestResolve_MacroExcludesTriggeringButton(t *testing.T) {
	cat := mt32Catalog(t, true)
	r := NewResolver(cat, nil)

	got, err := r.Resolve(mustButton(t, cat, 1, catalog.ColumnLeft, 1), catalog.PowerOn)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	want := []Command{on(0xA0001, 1), on(0xA0002, 4)}
	if !slices.Equal(got, want) {
		t.Errorf("Resolve() = %v, want %v (MT-32 must not expand to itself)", got, want)
	}
}

func TestResolve_MacroMatchesInCatalogOrder(t *testing.T) {
	// Declared out of order; catalog order is X (1/R/3) then Y (2/L/1).
	cat := mustCatalog(t,
		catalog.Button{Page: 2, Column: catalog.ColumnLeft, Slot: 1, Label: "Y", Address: 0xB0002, Socket: 2, Tags: []string{"hdmi sink"}},
		catalog.Button{
			Page: 1, Column: catalog.ColumnLeft, Slot: 1, Label: "Z", Address: 0xB0003, Socket: 3,
			PowerOn: []catalog.Action{catalog.MacroAction{Tags: []string{"hdmi sink"}, Command: catalog.PowerOn}},
		},
		catalog.Button{Page: 1, Column: catalog.ColumnRight, Slot: 3, Label: "X", Address: 0xB0001, Socket: 1, Tags: []string{"hdmi sink"}},
	)
	r := NewResolver(cat, nil)

	got, err := r.Resolve(mustButton(t, cat, 1, catalog.ColumnLeft, 1), catalog.PowerOn)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	want := []Command{on(0xB0001, 1), on(0xB0002, 2)}
	if !slices.Equal(got, want) {
		t.Errorf("Resolve() = %v, want %v", got, want)
	}
}

func TestResolve_InvalidState(t *testing.T) {
	cat := mt32Catalog(t, false)
	r := NewResolver(cat, nil)
	mt32 := mustButton(t, cat, 1, catalog.ColumnLeft, 1)

	for _, state := range []catalog.PowerState{"SIDEWAYS", "UNKNOWN", "", "on"} {
		t.Run(fmt.Sprintf("%q", state), func(t *testing.T) {
			got, err := r.Resolve(mt32, state)
			if !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("error = %v, want ErrInvalidArgument", err)
			}
			if !errors.Is(err, catalog.ErrInvalidPowerState) {
				t.Errorf("error = %v, want ErrInvalidPowerState", err)
			}
			if len(got) != 0 {
				t.Errorf("got %d commands, want 0", len(got))
			}
		})
	}
}

// ─── Properties ─────────────────────────────────────────────────────

func TestResolve_NoDeduplicationAcrossTags(t *testing.T) {
	cat := mustCatalog(t,
		catalog.Button{
			Page: 1, Column: catalog.ColumnLeft, Slot: 1, Label: "Desk", Address: 0xC0001, Socket: 1,
			PowerOff: []catalog.Action{
				catalog.MacroAction{Tags: []string{"audio sink", "midi sink"}, Command: catalog.PowerOff},
			},
		},
		catalog.Button{Page: 1, Column: catalog.ColumnLeft, Slot: 2, Label: "Synth", Address: 0xC0002, Socket: 2, Tags: []string{"midi sink", "audio sink"}},
		catalog.Button{Page: 1, Column: catalog.ColumnRight, Slot: 1, Label: "Speakers", Address: 0xC0003, Socket: 3, Tags: []string{"audio sink"}},
	)
	r := NewResolver(cat, nil)

	got, err := r.Resolve(mustButton(t, cat, 1, catalog.ColumnLeft, 1), catalog.PowerOff)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	// audio sink: Synth, Speakers; then midi sink: Synth again.
	want := []Command{off(0xC0002, 2), off(0xC0003, 3), off(0xC0002, 2)}
	if !slices.Equal(got, want) {
		t.Errorf("Resolve() = %v, want %v", got, want)
	}
}

func TestResolve_RepeatedTagExpandsTwice(t *testing.T) {
	cat := mustCatalog(t,
		catalog.Button{
			Page: 1, Column: catalog.ColumnLeft, Slot: 1, Label: "Desk", Address: 0xC0001, Socket: 1,
			PowerOn: []catalog.Action{
				catalog.MacroAction{Tags: []string{"audio sink", "audio sink"}, Command: catalog.PowerOn},
			},
		},
		catalog.Button{Page: 1, Column: catalog.ColumnLeft, Slot: 2, Label: "Speakers", Address: 0xC0003, Socket: 3, Tags: []string{"audio sink"}},
	)
	r := NewResolver(cat, nil)

	got, err := r.Resolve(mustButton(t, cat, 1, catalog.ColumnLeft, 1), catalog.PowerOn)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	want := []Command{on(0xC0003, 3), on(0xC0003, 3)}
	if !slices.Equal(got, want) {
		t.Errorf("Resolve() = %v, want %v", got, want)
	}
}

func TestResolve_TagMatchIsCaseSensitive(t *testing.T) {
	cat := mustCatalog(t,
		catalog.Button{
			Page: 1, Column: catalog.ColumnLeft, Slot: 1, Label: "Desk", Address: 0xC0001, Socket: 1,
			PowerOn: []catalog.Action{
				catalog.MacroAction{Tags: []string{"Audio Sink"}, Command: catalog.PowerOn},
			},
		},
		catalog.Button{Page: 1, Column: catalog.ColumnLeft, Slot: 2, Label: "Speakers", Address: 0xC0003, Socket: 3, Tags: []string{"audio sink"}},
	)
	r := NewResolver(cat, nil)

	got, err := r.Resolve(mustButton(t, cat, 1, catalog.ColumnLeft, 1), catalog.PowerOn)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Resolve() = %v, want no commands", got)
	}
}

func TestResolve_MacroWithNoMatchesIsEmpty(t *testing.T) {
	cat := mustCatalog(t, catalog.Button{
		Page: 1, Column: catalog.ColumnLeft, Slot: 1, Label: "Lonely", Address: 0xD0001, Socket: 1,
		PowerOn: []catalog.Action{catalog.MacroAction{Tags: []string{"nobody"}, Command: catalog.PowerOn}},
	})
	logger := &recordingLogger{}
	r := NewResolver(cat, logger)

	got, err := r.Resolve(mustButton(t, cat, 1, catalog.ColumnLeft, 1), catalog.PowerOn)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %v, want no commands", got)
	}
	// A non-empty list that matches nothing is not the fallback path.
	if n := logger.count("warn"); n != 0 {
		t.Errorf("warnings = %d, want 0", n)
	}
}

func TestResolve_DirectActionPassesThroughUnchanged(t *testing.T) {
	cat := mustCatalog(t, catalog.Button{
		Page: 1, Column: catalog.ColumnLeft, Slot: 1, Label: "All Off", Address: 0xE0001, Socket: 1,
		PowerOn: []catalog.Action{
			catalog.DirectAction{Address: 0xE0002, Socket: 2, Command: catalog.PowerOff},
			catalog.DirectAction{Address: 0xE0003, Socket: 3, Command: catalog.PowerOn},
		},
	})
	r := NewResolver(cat, nil)

	got, err := r.Resolve(mustButton(t, cat, 1, catalog.ColumnLeft, 1), catalog.PowerOn)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	want := []Command{off(0xE0002, 2), on(0xE0003, 3)}
	if !slices.Equal(got, want) {
		t.Errorf("Resolve() = %v, want %v", got, want)
	}
}

func TestResolve_Idempotent(t *testing.T) {
	cat := mt32Catalog(t, true)
	r := NewResolver(cat, nil)
	mt32 := mustButton(t, cat, 1, catalog.ColumnLeft, 1)

	first, err := r.Resolve(mt32, catalog.PowerOn)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := r.Resolve(mt32, catalog.PowerOn)
		if err != nil {
			t.Fatalf("Resolve() #%d error = %v", i, err)
		}
		if !slices.Equal(first, again) {
			t.Fatalf("Resolve() #%d = %v, want %v", i, again, first)
		}
	}
}

func TestResolve_DoesNotMutateCatalog(t *testing.T) {
	cat := mt32Catalog(t, true)
	r := NewResolver(cat, nil)
	before := cat.AllButtons()

	if _, err := r.Resolve(mustButton(t, cat, 1, catalog.ColumnLeft, 1), catalog.PowerOn); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	after := cat.AllButtons()
	for i := range before {
		if before[i].Label != after[i].Label || !slices.Equal(before[i].Tags, after[i].Tags) ||
			before[i].Address != after[i].Address || before[i].Socket != after[i].Socket {
			t.Errorf("button %d changed: %+v -> %+v", i, before[i], after[i])
		}
	}
}

func TestResolveRef(t *testing.T) {
	cat := mt32Catalog(t, false)
	r := NewResolver(cat, nil)

	got, err := r.ResolveRef(catalog.ButtonRef{Page: 1, Column: catalog.ColumnLeft, Slot: 2}, catalog.PowerOff)
	if err != nil {
		t.Fatalf("ResolveRef() error = %v", err)
	}
	if want := []Command{off(0xA0002, 4)}; !slices.Equal(got, want) {
		t.Errorf("ResolveRef() = %v, want %v", got, want)
	}

	_, err = r.ResolveRef(catalog.ButtonRef{Page: 9, Column: catalog.ColumnRight, Slot: 1}, catalog.PowerOn)
	if !errors.Is(err, catalog.ErrButtonNotFound) {
		t.Errorf("ResolveRef(unknown) error = %v, want ErrButtonNotFound", err)
	}
}

func TestCommand_String(t *testing.T) {
	if got := on(0xA0001, 1).String(); got != "0xA0001/1 ON" {
		t.Errorf("String() = %q", got)
	}
}
