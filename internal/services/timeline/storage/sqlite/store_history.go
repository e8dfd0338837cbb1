package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/louisbranch/mindchart/internal/services/timeline/domain/history"
)

const historyColumns = `id, clinical_record_id, version, content_json, history_date, created_at`

// PutHistory stores a new psychiatric history version.
func (s *Store) PutHistory(ctx context.Context, h history.History) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	content, err := json.Marshal(h.Content)
	if err != nil {
		return fmt.Errorf("marshal history content: %w", err)
	}
	_, err = s.q.ExecContext(ctx, `INSERT INTO psychiatric_history (`+historyColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		h.ID, h.RecordID, h.Version, string(content), h.Date.String(), toMillis(h.CreatedAt),
	)
	return mapWriteError("put history", err, nil)
}

// GetHistory returns one history version.
func (s *Store) GetHistory(ctx context.Context, historyID string) (history.History, error) {
	if err := s.ready(ctx); err != nil {
		return history.History{}, err
	}
	row := s.q.QueryRowContext(ctx, `SELECT `+historyColumns+` FROM psychiatric_history WHERE id = ?`, historyID)
	h, err := scanHistory(row)
	if err != nil {
		return history.History{}, notFound(err)
	}
	return h, nil
}

// LatestHistory returns the highest version for a record.
func (s *Store) LatestHistory(ctx context.Context, recordID string) (history.History, error) {
	if err := s.ready(ctx); err != nil {
		return history.History{}, err
	}
	row := s.q.QueryRowContext(ctx, `SELECT `+historyColumns+` FROM psychiatric_history
WHERE clinical_record_id = ? ORDER BY version DESC LIMIT 1`, recordID)
	h, err := scanHistory(row)
	if err != nil {
		return history.History{}, notFound(err)
	}
	return h, nil
}

func scanHistory(row rowScanner) (history.History, error) {
	var (
		h         history.History
		content   string
		date      string
		createdAt int64
	)
	if err := row.Scan(&h.ID, &h.RecordID, &h.Version, &content, &date, &createdAt); err != nil {
		return history.History{}, err
	}
	if err := json.Unmarshal([]byte(content), &h.Content); err != nil {
		return history.History{}, fmt.Errorf("history %s content: %w", h.ID, err)
	}
	parsed, err := parseDate(date)
	if err != nil {
		return history.History{}, fmt.Errorf("history %s date: %w", h.ID, err)
	}
	h.Date = parsed
	h.CreatedAt = fromMillis(createdAt)
	return h, nil
}
