package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/mindchart/internal/platform/id"
	"github.com/louisbranch/mindchart/internal/services/timeline/domain/event"
	"github.com/louisbranch/mindchart/internal/services/timeline/storage"
)

const eventColumns = `id, clinical_record_id, event_date, event_type, title, description,
    source_kind, source_id, payload_json, hash, created_at`

// AppendEvent stores evt with id, insertion time and hash assigned. Insertion
// times strictly increase per record so they can break same-day ties.
func (s *Store) AppendEvent(ctx context.Context, evt event.Event) (event.Event, error) {
	if err := s.ready(ctx); err != nil {
		return event.Event{}, err
	}
	if strings.TrimSpace(evt.RecordID) == "" {
		return event.Event{}, fmt.Errorf("clinical record id is required")
	}

	var stored event.Event
	err := s.inTx(ctx, func(tx *Store) error {
		if evt.ID == "" {
			eventID, err := id.NewID()
			if err != nil {
				return fmt.Errorf("generate event id: %w", err)
			}
			evt.ID = eventID
		}

		createdAt, err := tx.nextCreatedAt(ctx, evt.RecordID)
		if err != nil {
			return err
		}
		evt.CreatedAt = createdAt

		hash, err := event.ContentHash(evt)
		if err != nil {
			return fmt.Errorf("compute event hash: %w", err)
		}
		evt.Hash = hash

		kind, sourceID := event.SourceKey(evt.Source)
		if _, err := tx.q.ExecContext(ctx, `INSERT INTO clinical_events (`+eventColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			evt.ID,
			evt.RecordID,
			evt.Date.String(),
			string(evt.Type),
			evt.Title,
			evt.Description,
			string(kind),
			sourceID,
			string(evt.PayloadJSON),
			evt.Hash,
			toMillis(evt.CreatedAt),
		); err != nil {
			return mapWriteError("append event", err, storage.ErrDuplicateEvent)
		}
		stored = evt
		return nil
	})
	if err != nil {
		return event.Event{}, err
	}
	return stored, nil
}

func (s *Store) nextCreatedAt(ctx context.Context, recordID string) (time.Time, error) {
	var last int64
	if err := s.q.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(created_at), 0) FROM clinical_events WHERE clinical_record_id = ?`,
		recordID,
	).Scan(&last); err != nil {
		return time.Time{}, fmt.Errorf("load last insertion time: %w", err)
	}
	next := toMillis(s.now())
	if next <= last {
		next = last + 1
	}
	return fromMillis(next), nil
}

// GetEvent returns a single event.
func (s *Store) GetEvent(ctx context.Context, eventID string) (event.Event, error) {
	if err := s.ready(ctx); err != nil {
		return event.Event{}, err
	}
	row := s.q.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM clinical_events WHERE id = ?`, eventID)
	evt, err := scanEvent(row)
	if err != nil {
		return event.Event{}, notFound(err)
	}
	return evt, nil
}

// ListEvents returns a record's events matching filter, oldest first.
func (s *Store) ListEvents(ctx context.Context, recordID string, filter storage.EventFilter) ([]event.Event, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	var (
		clauses = []string{"clinical_record_id = ?"}
		args    = []any{recordID}
	)
	if len(filter.Types) > 0 {
		placeholders := make([]string, 0, len(filter.Types))
		for _, typ := range filter.Types {
			placeholders = append(placeholders, "?")
			args = append(args, string(typ))
		}
		clauses = append(clauses, "event_type IN ("+strings.Join(placeholders, ", ")+")")
	}
	if !filter.From.IsZero() {
		clauses = append(clauses, "event_date >= ?")
		args = append(args, filter.From.String())
	}
	if !filter.To.IsZero() {
		clauses = append(clauses, "event_date <= ?")
		args = append(args, filter.To.String())
	}
	if filter.SourceKind != event.SourceKindNone {
		clauses = append(clauses, "source_kind = ?")
		args = append(args, string(filter.SourceKind))
	}

	return s.queryEvents(ctx, `SELECT `+eventColumns+` FROM clinical_events
WHERE `+strings.Join(clauses, " AND ")+`
ORDER BY event_date, created_at, id`, args...)
}

// FindEventBySource returns the earliest event of typ pointing at src.
func (s *Store) FindEventBySource(ctx context.Context, recordID string, typ event.Type, src event.Source) (event.Event, error) {
	if err := s.ready(ctx); err != nil {
		return event.Event{}, err
	}
	kind, sourceID := event.SourceKey(src)
	row := s.q.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM clinical_events
WHERE clinical_record_id = ? AND event_type = ? AND source_kind = ? AND source_id = ?
ORDER BY created_at, id
LIMIT 1`, recordID, string(typ), string(kind), sourceID)
	evt, err := scanEvent(row)
	if err != nil {
		return event.Event{}, notFound(err)
	}
	return evt, nil
}

// DeleteEventsBySource removes the events pointing at src. The schema only
// permits this for events of a draft note.
func (s *Store) DeleteEventsBySource(ctx context.Context, recordID string, src event.Source) (int, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	if src == nil {
		return 0, fmt.Errorf("source is required")
	}
	kind, sourceID := event.SourceKey(src)
	res, err := s.q.ExecContext(ctx,
		`DELETE FROM clinical_events WHERE clinical_record_id = ? AND source_kind = ? AND source_id = ?`,
		recordID, string(kind), sourceID,
	)
	if err != nil {
		return 0, mapWriteError("delete events", err, nil)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete events: %w", err)
	}
	return int(n), nil
}

func (s *Store) queryEvents(ctx context.Context, query string, args ...any) ([]event.Event, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []event.Event
	for rows.Next() {
		evt, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanEvent decodes one row and verifies its content hash.
func scanEvent(row rowScanner) (event.Event, error) {
	var (
		evt        event.Event
		date       string
		eventType  string
		sourceKind string
		sourceID   string
		payload    string
		createdAt  int64
	)
	if err := row.Scan(
		&evt.ID,
		&evt.RecordID,
		&date,
		&eventType,
		&evt.Title,
		&evt.Description,
		&sourceKind,
		&sourceID,
		&payload,
		&evt.Hash,
		&createdAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return event.Event{}, err
		}
		return event.Event{}, fmt.Errorf("scan event: %w", err)
	}

	parsedDate, err := event.ParseDate(date)
	if err != nil {
		return event.Event{}, fmt.Errorf("%w: event %s: %v", storage.ErrIntegrity, evt.ID, err)
	}
	src, err := event.ParseSource(sourceKind, sourceID)
	if err != nil {
		return event.Event{}, fmt.Errorf("%w: event %s: %v", storage.ErrIntegrity, evt.ID, err)
	}
	evt.Date = parsedDate
	evt.Type = event.Type(eventType)
	evt.Source = src
	if payload != "" {
		evt.PayloadJSON = []byte(payload)
	}
	evt.CreatedAt = fromMillis(createdAt)

	if err := event.VerifyHash(evt); err != nil {
		return event.Event{}, fmt.Errorf("%w: %v", storage.ErrIntegrity, err)
	}
	return evt, nil
}
