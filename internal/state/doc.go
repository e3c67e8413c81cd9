// Package state models the live state of a game server as a typed,
// linked entity graph and derives discrete domain events by diffing two
// successive snapshots of that graph.
//
// The package organizes around a few pieces:
//
// # Nodes and Collections
//
// A Node is a schema-fixed record (player, squad, team, server) whose
// fields are either concrete values, lazy Links, or unset. Unset is
// distinct from nil: "never observed" versus "observed as absent". A
// List is an ordered, kind-homogeneous sequence of Nodes.
//
// # Snapshot
//
// A Snapshot is the root aggregate. It owns the top-level players,
// squads, and teams collections, the singleton server node, and the
// events buffer. It is also the resolution context for every Link
// beneath it and the owner of the cascading mutability flag: freezing a
// Snapshot freezes every reachable Node.
//
// # Merge and Diff
//
// Merge reconciles one graph into another field by field, filling unset
// fields and matching collection members by key fields. It never
// inserts new collection members; admitting new entities is the diff
// engine's job. CompareOlder diffs a snapshot against the previous poll
// cycle's snapshot and appends typed events to the newer snapshot's
// events buffer.
//
// The package is single-threaded and performs no I/O. A Snapshot is
// exclusively owned by the collector that builds it until diffing
// completes; after that it should be frozen and may be shared with any
// number of readers.
package state
