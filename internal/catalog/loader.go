package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// catalogDoc is the on-disk catalog layout:
//
//	pages:
//	  1:
//	    L:
//	      1:
//	        label: MT-32
//	        address: 0xA0001
//	        socket: 1
//	        tags: [midi sink]
//	        power_on:
//	          - {address: 0xA0001, socket: 1, command: "ON"}
//	          - {tags: [audio sink], command: "ON"}
type catalogDoc struct {
	Pages map[int]map[string]map[int]buttonDoc `yaml:"pages"`
}

type buttonDoc struct {
	Label    string      `yaml:"label"`
	Address  *uint32     `yaml:"address"`
	Socket   *int        `yaml:"socket"`
	Tags     []string    `yaml:"tags"`
	PowerOn  []actionDoc `yaml:"power_on"`
	PowerOff []actionDoc `yaml:"power_off"`
}

// actionDoc accepts either "command" or "action" for the state.
type actionDoc struct {
	Address *uint32  `yaml:"address"`
	Socket  *int     `yaml:"socket"`
	Tags    []string `yaml:"tags"`
	Command string   `yaml:"command"`
	Action  string   `yaml:"action"`
}

// LoadFile reads and parses a YAML catalog file.
//
// Parameters:
//   - path: Path to the catalog YAML
//
// Returns:
//   - *Catalog: Validated catalog
//   - error: Read failure, or ErrInvalidCatalog for malformed content
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}

	cat, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("loading catalog %s: %w", path, err)
	}
	return cat, nil
}

// Parse decodes YAML catalog data and builds a Catalog.
// Unknown keys are rejected so typos surface at start-up.
func Parse(data []byte) (*Catalog, error) {
	var doc catalogDoc
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: parsing yaml: %w", ErrInvalidCatalog, err)
	}

	buttons, errs := doc.buttons()
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCatalog, strings.Join(errs, "; "))
	}
	if len(buttons) == 0 {
		return nil, fmt.Errorf("%w: no buttons defined", ErrInvalidCatalog)
	}

	return New(buttons)
}

// buttons converts the document into Buttons, collecting structural
// problems the Button type cannot express (missing fields, ambiguous actions).
func (d catalogDoc) buttons() ([]Button, []string) {
	var buttons []Button
	var errs []string

	for page, columns := range d.Pages {
		for colKey, slots := range columns {
			column, err := ParseColumn(colKey)
			if err != nil {
				errs = append(errs, fmt.Sprintf("page %d column %s: column must be L or R", page, colKey))
				continue
			}
			for slot, doc := range slots {
				loc := fmt.Sprintf("page %d column %s slot %d", page, column, slot)
				b, problems := doc.button(page, column, slot)
				for _, p := range problems {
					errs = append(errs, loc+": "+p)
				}
				buttons = append(buttons, b)
			}
		}
	}
	return buttons, errs
}

func (d buttonDoc) button(page int, column Column, slot int) (Button, []string) {
	var errs []string

	b := Button{
		Page:   page,
		Column: column,
		Slot:   slot,
		Label:  d.Label,
		Tags:   d.Tags,
	}
	if d.Address == nil {
		errs = append(errs, "address is required")
	} else {
		b.Address = *d.Address
	}
	if d.Socket == nil {
		errs = append(errs, "socket is required")
	} else {
		b.Socket = *d.Socket
	}

	var problems []string
	b.PowerOn, problems = convertActions("power_on", d.PowerOn)
	errs = append(errs, problems...)
	b.PowerOff, problems = convertActions("power_off", d.PowerOff)
	errs = append(errs, problems...)

	return b, errs
}

func convertActions(field string, docs []actionDoc) ([]Action, []string) {
	if len(docs) == 0 {
		return nil, nil
	}

	actions := make([]Action, 0, len(docs))
	var errs []string
	for i, doc := range docs {
		a, err := doc.action()
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s[%d]: %v", field, i, err))
			continue
		}
		actions = append(actions, a)
	}
	return actions, errs
}

func (d actionDoc) action() (Action, error) {
	cmd := d.Command
	if cmd == "" {
		cmd = d.Action
	} else if d.Action != "" && !strings.EqualFold(d.Action, d.Command) {
		return nil, fmt.Errorf("command %q and action %q disagree", d.Command, d.Action)
	}
	state := PowerState(strings.ToUpper(strings.TrimSpace(cmd)))

	direct := d.Address != nil || d.Socket != nil
	macro := len(d.Tags) > 0

	switch {
	case direct && macro:
		return nil, fmt.Errorf("action must be either direct (address, socket) or macro (tags), not both")
	case macro:
		return MacroAction{Tags: d.Tags, Command: state}, nil
	case direct:
		if d.Address == nil {
			return nil, fmt.Errorf("address is required")
		}
		if d.Socket == nil {
			return nil, fmt.Errorf("socket is required")
		}
		return DirectAction{Address: *d.Address, Socket: *d.Socket, Command: state}, nil
	}
	return nil, fmt.Errorf("action needs address and socket, or tags")
}
