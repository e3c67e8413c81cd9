package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ironsightlabs/spectator/internal/storage"
)

const appendEventQuery = `
INSERT INTO game_events (id, cycle_id, server_name, kind, occurred_at, payload_json)
VALUES (?, ?, ?, ?, ?, ?);
`

const listEventsByKindQuery = `
SELECT id, cycle_id, server_name, kind, occurred_at, payload_json
FROM game_events
WHERE kind = ?
ORDER BY occurred_at DESC, id DESC
LIMIT ?;
`

const listEventsByCycleQuery = `
SELECT id, cycle_id, server_name, kind, occurred_at, payload_json
FROM game_events
WHERE cycle_id = ?
ORDER BY occurred_at ASC, id ASC;
`

// AppendEvents persists a batch of derived game events in one
// transaction so a poll cycle's journal entries land atomically.
func (s *Store) AppendEvents(ctx context.Context, records []storage.EventRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if len(records) == 0 {
		return nil
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append events: %w", err)
	}

	for _, record := range records {
		if strings.TrimSpace(record.ID) == "" {
			_ = tx.Rollback()
			return fmt.Errorf("event id is required")
		}
		if strings.TrimSpace(record.Kind) == "" {
			_ = tx.Rollback()
			return fmt.Errorf("event kind is required")
		}
		if record.OccurredAt.IsZero() {
			record.OccurredAt = time.Now().UTC()
		}
		payload := record.PayloadJSON
		if len(payload) == 0 && len(record.Payload) > 0 {
			payload, err = json.Marshal(record.Payload)
			if err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("marshal event payload: %w", err)
			}
		}

		if _, err := tx.ExecContext(ctx, appendEventQuery,
			record.ID,
			record.CycleID,
			toNullString(record.ServerName),
			record.Kind,
			toMillis(record.OccurredAt),
			payload,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("append event %s: %w", record.Kind, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append events: %w", err)
	}
	return nil
}

// ListEventsByKind returns the newest events of a kind, most recent first.
func (s *Store) ListEventsByKind(ctx context.Context, kind string, limit int) ([]storage.EventRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.sqlDB.QueryContext(ctx, listEventsByKindQuery, kind, limit)
	if err != nil {
		return nil, fmt.Errorf("list events by kind: %w", err)
	}
	defer rows.Close()

	return scanEventRecords(rows)
}

// ListEventsByCycle returns every event derived in one poll cycle, in
// derivation order.
func (s *Store) ListEventsByCycle(ctx context.Context, cycleID string) ([]storage.EventRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx, listEventsByCycleQuery, cycleID)
	if err != nil {
		return nil, fmt.Errorf("list events by cycle: %w", err)
	}
	defer rows.Close()

	return scanEventRecords(rows)
}

func scanEventRecords(rows *sql.Rows) ([]storage.EventRecord, error) {
	var records []storage.EventRecord
	for rows.Next() {
		var record storage.EventRecord
		var serverName sql.NullString
		var occurredAt int64
		if err := rows.Scan(
			&record.ID,
			&record.CycleID,
			&serverName,
			&record.Kind,
			&occurredAt,
			&record.PayloadJSON,
		); err != nil {
			return nil, fmt.Errorf("scan event record: %w", err)
		}
		record.ServerName = serverName.String
		record.OccurredAt = fromMillis(occurredAt)
		if len(record.PayloadJSON) > 0 {
			if err := json.Unmarshal(record.PayloadJSON, &record.Payload); err != nil {
				return nil, fmt.Errorf("unmarshal event payload: %w", err)
			}
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read event records: %w", err)
	}
	return records, nil
}
