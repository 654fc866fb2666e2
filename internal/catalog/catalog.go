package catalog

import (
	"fmt"
	"slices"
	"strings"
)

// Catalog is the immutable page → column → slot → Button mapping.
//
// It is built once at start-up and never modified, so it needs no locking.
// Every method returns copies; callers cannot alter catalog records.
type Catalog struct {
	// buttons holds every button in enumeration order:
	// page ascending, L before R, slot ascending.
	buttons []Button
	index   map[ButtonRef]int
	pages   []int
	tags    []string

	duplicateLabels map[string][]ButtonRef
}

// New builds a catalog from already-parsed buttons.
//
// Tags are trimmed on the way in. All validation problems are
// collected and returned together, wrapped in ErrInvalidCatalog.
//
// Parameters:
//   - buttons: Buttons in any order
//
// Returns:
//   - *Catalog: Immutable catalog
//   - error: ErrInvalidCatalog describing every problem found
func New(buttons []Button) (*Catalog, error) {
	var errs []string

	normalised := make([]Button, 0, len(buttons))
	for _, b := range buttons {
		nb := normaliseButton(b)
		errs = append(errs, validateButton(nb)...)
		normalised = append(normalised, nb)
	}

	slices.SortStableFunc(normalised, func(a, b Button) int {
		return compareRefs(a.Ref(), b.Ref())
	})

	c := &Catalog{
		buttons:         normalised,
		index:           make(map[ButtonRef]int, len(normalised)),
		duplicateLabels: make(map[string][]ButtonRef),
	}

	labels := make(map[string][]ButtonRef)
	tagSet := make(map[string]struct{})
	for i, b := range normalised {
		ref := b.Ref()
		if _, exists := c.index[ref]; exists {
			errs = append(errs, fmt.Sprintf("page %d column %s slot %d: duplicate slot", ref.Page, ref.Column, ref.Slot))
			continue
		}
		c.index[ref] = i

		if n := len(c.pages); n == 0 || c.pages[n-1] != b.Page {
			c.pages = append(c.pages, b.Page)
		}
		labels[b.Label] = append(labels[b.Label], ref)
		for _, tag := range b.Tags {
			tagSet[tag] = struct{}{}
		}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCatalog, strings.Join(errs, "; "))
	}

	for label, refs := range labels {
		if len(refs) > 1 {
			c.duplicateLabels[label] = refs
		}
	}
	for tag := range tagSet {
		c.tags = append(c.tags, tag)
	}
	slices.Sort(c.tags)

	return c, nil
}

// Len returns the number of buttons.
func (c *Catalog) Len() int {
	return len(c.buttons)
}

// ListPages returns page identifiers in ascending order without duplicates.
func (c *Catalog) ListPages() []int {
	return slices.Clone(c.pages)
}

// ListButtons returns the buttons in one column of a page, ordered by slot.
// An unknown page or column yields an empty result, not an error.
func (c *Catalog) ListButtons(page int, column Column) []Button {
	var out []Button
	for _, b := range c.buttons {
		if b.Page == page && b.Column == column {
			out = append(out, b.Clone())
		}
	}
	return out
}

// FindButtonsByTag scans the whole catalog for buttons carrying tag whose
// label differs from excludeLabel. Results are in enumeration order.
// No match yields an empty result.
//
// Surrounding whitespace is trimmed from tag; both comparisons are
// otherwise exact.
//
// Example:
//
//	sinks := cat.FindButtonsByTag("audio sink", "MT-32")
func (c *Catalog) FindButtonsByTag(tag, excludeLabel string) []Button {
	tag = trimTag(tag)
	var out []Button
	for _, b := range c.buttons {
		if b.Label == excludeLabel {
			continue
		}
		if slices.Contains(b.Tags, tag) {
			out = append(out, b.Clone())
		}
	}
	return out
}

// AllButtons returns every button in enumeration order.
func (c *Catalog) AllButtons() []Button {
	out := make([]Button, len(c.buttons))
	for i, b := range c.buttons {
		out[i] = b.Clone()
	}
	return out
}

// Button returns the button at ref.
func (c *Catalog) Button(ref ButtonRef) (Button, error) {
	i, ok := c.index[ref]
	if !ok {
		return Button{}, fmt.Errorf("%w: %s", ErrButtonNotFound, ref)
	}
	return c.buttons[i].Clone(), nil
}

// Tags returns every distinct tag in the catalog, sorted.
func (c *Catalog) Tags() []string {
	return slices.Clone(c.tags)
}

// DuplicateLabels returns labels carried by more than one button, with the
// buttons that share them. Macro expansion excludes by label, so buttons
// sharing a label exclude each other; callers should warn about these.
func (c *Catalog) DuplicateLabels() map[string][]ButtonRef {
	out := make(map[string][]ButtonRef, len(c.duplicateLabels))
	for label, refs := range c.duplicateLabels {
		out[label] = slices.Clone(refs)
	}
	return out
}
