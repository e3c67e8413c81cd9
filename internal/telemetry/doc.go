// Package telemetry provides operational observability for the watcher.
//
// Telemetry records are distinct from the game event journal: the
// journal captures derived gameplay events for replay and analysis,
// while telemetry captures system health (poll failures, cycle
// timings, merge warnings) for monitoring and incident analysis. The
// two concerns have different retention policies and must not mix.
package telemetry
