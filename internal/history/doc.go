// Package history persists dispatched button presses.
//
// Every execution returned by the power dispatcher is written to the
// executions table so the API can show what the panel switched, when, and
// which commands failed. Rows are never updated after insert.
package history
