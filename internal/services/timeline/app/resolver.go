package app

import (
	"context"
	"fmt"

	apperrors "github.com/louisbranch/mindchart/internal/platform/errors"
	"github.com/louisbranch/mindchart/internal/services/timeline/domain/event"
	"github.com/louisbranch/mindchart/internal/services/timeline/domain/state"
	"github.com/louisbranch/mindchart/internal/services/timeline/storage"
	"go.opentelemetry.io/otel/trace"
)

// Resolver reconstructs clinical state by replaying the timeline.
type Resolver struct {
	deps
	generator *Generator
}

// GetCurrentState replays the patient's timeline through today.
func (r *Resolver) GetCurrentState(ctx context.Context, patientID string) (state.Snapshot, error) {
	return r.resolve(ctx, "timeline.GetCurrentState", patientID, r.today())
}

// GetHistoricalState replays the patient's timeline through asOf,
// inclusive. Events dated later are invisible, and so is any note not yet
// finalized on asOf.
func (r *Resolver) GetHistoricalState(ctx context.Context, patientID string, asOf event.Date) (state.Snapshot, error) {
	if asOf.IsZero() {
		return state.Snapshot{}, apperrors.New(apperrors.CodeMissingEventTimestamp, "as-of date is required")
	}
	return r.resolve(ctx, "timeline.GetHistoricalState", patientID, asOf)
}

func (r *Resolver) resolve(ctx context.Context, spanName, patientID string, cutoff event.Date) (snap state.Snapshot, err error) {
	ctx, span := r.tracer.Start(ctx, spanName, trace.WithAttributes(patientAttr(patientID), cutoffAttr(cutoff)))
	defer func() {
		span.SetAttributes(countAttr("events_applied", snap.Applied))
		endSpan(span, err)
	}()

	rec, err := resolveRecord(ctx, r.store, patientID)
	if err != nil {
		return state.Snapshot{}, err
	}
	if _, err := r.generator.EnsureEncounterEvents(ctx, rec.ID); err != nil {
		return state.Snapshot{}, err
	}

	var (
		events  []event.Event
		sources state.Sources
	)
	err = r.store.InTx(ctx, func(tx storage.Store) error {
		var err error
		events, err = tx.ListEvents(ctx, rec.ID, storage.EventFilter{To: cutoff})
		if err != nil {
			return fmt.Errorf("list events: %w", err)
		}
		sources, err = loadReplaySources(ctx, tx, rec.ID)
		return err
	})
	if err != nil {
		return state.Snapshot{}, err
	}

	snap, err = state.Replay(rec.ID, events, sources, state.Options{Cutoff: cutoff, Location: r.loc})
	if err != nil {
		r.logger.ErrorContext(ctx, "timeline replay failed",
			"clinical_record_id", rec.ID,
			"cutoff", cutoff.String(),
			"error", err,
		)
		return state.Snapshot{}, err
	}
	return snap, nil
}

// loadReplaySources fetches the notes and appointment links encounters
// resolve against.
func loadReplaySources(ctx context.Context, tx storage.Store, recordID string) (state.Sources, error) {
	notes, err := tx.ListNotes(ctx, recordID)
	if err != nil {
		return state.Sources{}, fmt.Errorf("list notes: %w", err)
	}
	addenda, err := tx.ListAddendaByRecord(ctx, recordID)
	if err != nil {
		return state.Sources{}, fmt.Errorf("list addenda: %w", err)
	}
	appointments, err := tx.ListAppointments(ctx, recordID, "")
	if err != nil {
		return state.Sources{}, fmt.Errorf("list appointments: %w", err)
	}

	sources := state.Sources{
		Notes:            make(map[string]state.Note, len(notes)),
		AppointmentNotes: make(map[string]string),
	}
	for _, n := range notes {
		sources.Notes[n.ID] = state.Note{
			ID:          n.ID,
			Title:       n.Title,
			Content:     n.Content,
			FinalizedAt: n.FinalizedAt,
		}
	}
	for _, a := range addenda {
		n, ok := sources.Notes[a.NoteID]
		if !ok {
			continue
		}
		n.AddendaCreatedAt = append(n.AddendaCreatedAt, a.CreatedAt)
		sources.Notes[a.NoteID] = n
	}
	for _, appt := range appointments {
		if appt.NoteID != "" {
			sources.AppointmentNotes[appt.ID] = appt.NoteID
		}
	}
	return sources, nil
}
