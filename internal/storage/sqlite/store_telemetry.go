package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ironsightlabs/spectator/internal/storage"
)

const appendTelemetryQuery = `
INSERT INTO telemetry_events (timestamp, event_name, severity, server_name, cycle_id, trace_id, span_id, attributes_json)
VALUES (?, ?, ?, ?, ?, ?, ?, ?);
`

const watchStatisticsQuery = `
SELECT
    (SELECT COUNT(*) FROM game_events WHERE (?1 IS NULL OR occurred_at >= ?1)) AS event_count,
    (SELECT COUNT(DISTINCT cycle_id) FROM game_events WHERE (?1 IS NULL OR occurred_at >= ?1)) AS cycle_count,
    (SELECT COUNT(*) FROM telemetry_events WHERE (?1 IS NULL OR timestamp >= ?1)) AS telemetry_count;
`

// AppendTelemetryEvent records an operational telemetry event.
func (s *Store) AppendTelemetryEvent(ctx context.Context, evt storage.TelemetryEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(evt.EventName) == "" {
		return fmt.Errorf("event name is required")
	}
	if strings.TrimSpace(evt.Severity) == "" {
		return fmt.Errorf("severity is required")
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	if len(evt.AttributesJSON) == 0 && len(evt.Attributes) > 0 {
		payload, err := json.Marshal(evt.Attributes)
		if err != nil {
			return fmt.Errorf("marshal telemetry attributes: %w", err)
		}
		evt.AttributesJSON = payload
	}

	if _, err := s.sqlDB.ExecContext(ctx, appendTelemetryQuery,
		toMillis(evt.Timestamp),
		evt.EventName,
		evt.Severity,
		toNullString(evt.ServerName),
		toNullString(evt.CycleID),
		toNullString(evt.TraceID),
		toNullString(evt.SpanID),
		evt.AttributesJSON,
	); err != nil {
		return fmt.Errorf("append telemetry event: %w", err)
	}
	return nil
}

// GetWatchStatistics returns aggregate counts across the journal.
func (s *Store) GetWatchStatistics(ctx context.Context, since *time.Time) (storage.WatchStatistics, error) {
	if err := ctx.Err(); err != nil {
		return storage.WatchStatistics{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.WatchStatistics{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(ctx, watchStatisticsQuery, toNullMillis(since))

	var stats storage.WatchStatistics
	if err := row.Scan(&stats.EventCount, &stats.CycleCount, &stats.TelemetryCount); err != nil {
		return storage.WatchStatistics{}, fmt.Errorf("get watch statistics: %w", err)
	}
	return stats, nil
}
