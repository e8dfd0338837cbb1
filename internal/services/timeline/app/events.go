package app

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/louisbranch/mindchart/internal/platform/errors"
	"github.com/louisbranch/mindchart/internal/services/timeline/domain/bus"
	"github.com/louisbranch/mindchart/internal/services/timeline/domain/event"
	"github.com/louisbranch/mindchart/internal/services/timeline/storage"
)

// EventStore is the single write path for clinical events.
type EventStore struct {
	deps
}

// Append validates in, persists it and publishes it once committed.
// Validation failures leave nothing behind.
func (s *EventStore) Append(ctx context.Context, in event.Input) (event.Event, error) {
	var stored event.Event
	err := s.store.InTx(ctx, func(tx storage.Store) error {
		var err error
		stored, err = s.AppendTx(ctx, tx, in)
		return err
	})
	if err != nil {
		return event.Event{}, err
	}
	s.Publish(ctx, stored)
	return stored, nil
}

// AppendTx validates in and appends it on tx without publishing. Callers
// publish the returned event after tx commits.
func (s *EventStore) AppendTx(ctx context.Context, tx storage.Store, in event.Input) (event.Event, error) {
	evt, err := event.New(in, s.today())
	if err != nil {
		return event.Event{}, err
	}
	if _, err := tx.GetRecord(ctx, evt.RecordID); err != nil {
		return event.Event{}, lookupError(err, apperrors.CodeClinicalRecordNotFound, "clinical record", evt.RecordID)
	}
	stored, err := tx.AppendEvent(ctx, evt)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateEvent) {
			return event.Event{}, err
		}
		return event.Event{}, fmt.Errorf("append %s event: %w", evt.Type, err)
	}
	return stored, nil
}

// Publish notifies the bus of committed events. Handler failures never
// reach the caller.
func (s *EventStore) Publish(ctx context.Context, events ...event.Event) {
	for _, evt := range events {
		s.bus.Emit(ctx, bus.Event{
			Kind:     EventKind(evt.Type),
			RecordID: evt.RecordID,
			Payload:  evt,
		})
	}
}
