package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/louisbranch/mindchart/internal/platform/id"
	"github.com/louisbranch/mindchart/internal/services/timeline/domain/event"
	"github.com/louisbranch/mindchart/internal/services/timeline/domain/history"
	"github.com/louisbranch/mindchart/internal/services/timeline/storage"
)

// HistoryService writes psychiatric history versions.
type HistoryService struct {
	deps
	events *EventStore
}

// Update stores content as the next history version of recordID, dated at
// date, with the HistoryUpdate event carrying the full snapshot.
func (s *HistoryService) Update(ctx context.Context, recordID string, content map[string]string, date event.Date) (history.History, error) {
	if err := history.CheckContent(content); err != nil {
		return history.History{}, err
	}
	historyID, err := id.NewID()
	if err != nil {
		return history.History{}, fmt.Errorf("generate history id: %w", err)
	}

	var (
		stored   history.History
		appended event.Event
	)
	err = s.store.InTx(ctx, func(tx storage.Store) error {
		var latest *history.History
		prev, err := tx.LatestHistory(ctx, recordID)
		switch {
		case err == nil:
			latest = &prev
		case errors.Is(err, storage.ErrNotFound):
		default:
			return fmt.Errorf("load latest history: %w", err)
		}

		h := history.History{
			ID:        historyID,
			RecordID:  recordID,
			Version:   history.NextVersion(latest),
			Content:   history.Normalize(content),
			Date:      date,
			CreatedAt: s.now().UTC(),
		}
		appended, err = s.events.AppendTx(ctx, tx, event.Input{
			RecordID: recordID,
			Date:     date,
			Type:     event.TypeHistoryUpdate,
			Title:    fmt.Sprintf("Psychiatric history v%d", h.Version),
			Source:   event.HistorySource{HistoryID: h.ID},
			Payload:  h.Payload(),
		})
		if err != nil {
			return err
		}
		if err := tx.PutHistory(ctx, h); err != nil {
			return fmt.Errorf("put history: %w", err)
		}
		stored = h
		return nil
	})
	if err != nil {
		return history.History{}, err
	}
	s.events.Publish(ctx, appended)
	return stored, nil
}
