// Package power turns a button tap into radio commands.
//
// The Resolver expands a button's power-on or power-off action list into a
// flat, ordered list of Commands. Direct actions pass through unchanged.
// Macro actions expand to one command per catalog button carrying each of the
// macro's tags, skipping the tapped button itself (matched by label). A button
// with an empty list controls its own address and socket.
//
// The Dispatcher sends those commands one after another through an injected
// Gateway and records the outcome as an Execution:
//
//	resolver := power.NewResolver(cat, logger)
//	dispatcher := power.NewDispatcher(resolver, gateway, logger)
//	exec, err := dispatcher.Press(ctx, catalog.ButtonRef{Page: 1, Column: catalog.ColumnLeft, Slot: 1}, catalog.PowerOn, "panel")
//
// There is no acknowledgement channel on one-way RF, so a transmit failure
// never aborts the remaining commands.
package power
