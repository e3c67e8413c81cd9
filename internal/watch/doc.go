// Package watch runs the poll-diff-dispatch loop against a game
// server.
//
// Each cycle queries every configured source for a partial view of the
// server, gathers the views into one snapshot, derives events by
// comparing it against the previous cycle's snapshot, and dispatches
// the derived events to sinks and the journal. The previous snapshot
// is frozen once replaced so late consumers always read a stable view.
package watch
