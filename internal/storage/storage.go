package storage

import (
	"context"
	"time"

	apperrors "github.com/ironsightlabs/spectator/internal/platform/errors"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// EventRecord is a derived game event persisted to the journal. The
// payload carries the event's resolved fields as JSON; Kind matches the
// in-memory event kind string.
type EventRecord struct {
	ID          string
	CycleID     string
	ServerName  string
	Kind        string
	OccurredAt  time.Time
	Payload     map[string]any
	PayloadJSON []byte
}

// EventStore persists derived game events for replay and analysis.
type EventStore interface {
	AppendEvents(ctx context.Context, records []EventRecord) error
	ListEventsByKind(ctx context.Context, kind string, limit int) ([]EventRecord, error)
	ListEventsByCycle(ctx context.Context, cycleID string) ([]EventRecord, error)
}

// TelemetryEvent is an operational telemetry record for audits and
// incident analysis. It is stored separately from the game event
// journal.
type TelemetryEvent struct {
	Timestamp      time.Time
	EventName      string
	Severity       string
	ServerName     string
	CycleID        string
	TraceID        string
	SpanID         string
	Attributes     map[string]any
	AttributesJSON []byte
}

// TelemetryStore persists operational telemetry records.
type TelemetryStore interface {
	AppendTelemetryEvent(ctx context.Context, evt TelemetryEvent) error
}

// WatchStatistics aggregates journal counts for status reporting.
type WatchStatistics struct {
	EventCount     int64
	CycleCount     int64
	TelemetryCount int64
}

// StatisticsStore reports aggregate journal statistics.
type StatisticsStore interface {
	GetWatchStatistics(ctx context.Context, since *time.Time) (WatchStatistics, error)
}
