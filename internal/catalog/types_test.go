package catalog

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParsePowerState(t *testing.T) {
	tests := []struct {
		input   string
		want    PowerState
		wantErr bool
	}{
		{input: "ON", want: PowerOn},
		{input: "off", want: PowerOff},
		{input: " On ", want: PowerOn},
		{input: "SIDEWAYS", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePowerState(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPowerState) {
					t.Errorf("ParsePowerState(%q) error = %v, want ErrInvalidPowerState", tt.input, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParsePowerState(%q) = %q, %v, want %q", tt.input, got, err, tt.want)
			}
		})
	}
}

func TestPowerState_ValidIsExact(t *testing.T) {
	if PowerState("on").Valid() {
		t.Error(`PowerState("on").Valid() = true, want false`)
	}
	if !PowerOn.Valid() || !PowerOff.Valid() {
		t.Error("ON and OFF must be valid")
	}
}

func TestPowerState_Toggle(t *testing.T) {
	if PowerOn.Toggle() != PowerOff || PowerOff.Toggle() != PowerOn {
		t.Error("Toggle() should flip ON and OFF")
	}
}

func TestParseColumn(t *testing.T) {
	tests := []struct {
		input   string
		want    Column
		wantErr bool
	}{
		{input: "L", want: ColumnLeft},
		{input: "r", want: ColumnRight},
		{input: "Left", want: ColumnLeft},
		{input: "RIGHT", want: ColumnRight},
		{input: "middle", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseColumn(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidColumn) {
					t.Errorf("ParseColumn(%q) error = %v, want ErrInvalidColumn", tt.input, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseColumn(%q) = %q, %v, want %q", tt.input, got, err, tt.want)
			}
		})
	}
}

func TestButtonRef_String(t *testing.T) {
	ref := ButtonRef{Page: 3, Column: ColumnRight, Slot: 2}
	if ref.String() != "3/R/2" {
		t.Errorf("String() = %q, want 3/R/2", ref.String())
	}
}

func TestButton_Actions(t *testing.T) {
	b := Button{
		PowerOn:  []Action{DirectAction{Address: 1, Socket: 1, Command: PowerOn}},
		PowerOff: []Action{MacroAction{Tags: []string{"x"}, Command: PowerOff}},
	}

	if len(b.Actions(PowerOn)) != 1 || len(b.Actions(PowerOff)) != 1 {
		t.Error("Actions() should select the list for the state")
	}
	if b.Actions("SIDEWAYS") != nil {
		t.Error("Actions() with invalid state should be nil")
	}
}

func TestButton_HasTag(t *testing.T) {
	b := Button{Tags: []string{"audio sink"}}
	if !b.HasTag(" audio sink ") {
		t.Error("HasTag() should ignore surrounding whitespace")
	}
	if b.HasTag("Audio Sink") {
		t.Error("HasTag() should be case-sensitive")
	}
	if b.HasTag("midi sink") {
		t.Error("HasTag() = true for missing tag")
	}
}

func TestAction_MarshalJSON(t *testing.T) {
	data, err := json.Marshal([]Action{
		DirectAction{Address: 0xA0001, Socket: 1, Command: PowerOn},
		MacroAction{Tags: []string{"audio sink"}, Command: PowerOff},
	})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	want := `[{"type":"direct","address":655361,"socket":1,"command":"ON"},` +
		`{"type":"macro","tags":["audio sink"],"command":"OFF"}]`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}
}

func TestAction_String(t *testing.T) {
	if got := (DirectAction{Address: 0xA0001, Socket: 1, Command: PowerOn}).String(); got != "direct 0xA0001/1 ON" {
		t.Errorf("DirectAction.String() = %q", got)
	}
	if got := (MacroAction{Tags: []string{"a", "b"}, Command: PowerOff}).String(); got != "macro [a, b] OFF" {
		t.Errorf("MacroAction.String() = %q", got)
	}
}
