// Package storage defines the persistence interfaces for the watcher.
//
// It separates two concerns with different retention policies:
//
//   - The event journal holds derived game events (joins, kills, map
//     changes) for replay and analysis.
//   - Telemetry holds operational records (poll failures, cycle
//     timings) for audits and incident analysis.
//
// Implementations of these interfaces live in subpackages; the SQLite
// backend is the default.
package storage
