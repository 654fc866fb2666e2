// Package catalog holds the panel's button catalog: pages of two columns,
// each column a list of slots, each slot a Button bound to one radio socket.
//
// A Button carries tags and two ordered action lists, one for each power
// state. An action is either a DirectAction (fixed address and socket) or a
// MacroAction (every other button carrying one of its tags).
//
// The catalog is loaded once at start-up from YAML and is read-only
// afterwards. Query results are deep copies, and ButtonRef (page, column,
// slot) is the key for any data a caller wants to associate with a button.
//
// Enumeration order, used by every query and by macro expansion, is page
// ascending, then column L before R, then slot ascending.
//
// Usage:
//
//	cat, err := catalog.LoadFile(cfg.Panel.CatalogFile)
//	if err != nil {
//	    return err // errors.Is(err, catalog.ErrInvalidCatalog)
//	}
//	for _, b := range cat.FindButtonsByTag("audio sink", "MT-32") {
//	    fmt.Println(b.Label, b.Address, b.Socket)
//	}
package catalog
