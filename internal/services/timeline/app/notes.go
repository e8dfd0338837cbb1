package app

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/mindchart/internal/platform/errors"
	"github.com/louisbranch/mindchart/internal/platform/id"
	"github.com/louisbranch/mindchart/internal/services/timeline/domain/bus"
	"github.com/louisbranch/mindchart/internal/services/timeline/domain/event"
	"github.com/louisbranch/mindchart/internal/services/timeline/domain/note"
	"github.com/louisbranch/mindchart/internal/services/timeline/storage"
)

// DraftInput describes a new clinical note.
type DraftInput struct {
	RecordID string
	Title    string
	Content  string
	// Date is the encounter date the note documents.
	Date event.Date
}

// NoteService writes clinical notes. Every draft is paired with the
// encounter event that points at it.
type NoteService struct {
	deps
	events *EventStore
}

// CreateDraft stores a draft note and its encounter event.
func (s *NoteService) CreateDraft(ctx context.Context, in DraftInput) (note.Note, error) {
	if err := note.CheckDraft(in.Title); err != nil {
		return note.Note{}, err
	}
	noteID, err := id.NewID()
	if err != nil {
		return note.Note{}, fmt.Errorf("generate note id: %w", err)
	}
	now := s.now().UTC()
	n := note.Note{
		ID:        noteID,
		RecordID:  in.RecordID,
		Title:     strings.TrimSpace(in.Title),
		Content:   in.Content,
		Date:      in.Date,
		Status:    note.StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}

	var encounter event.Event
	err = s.store.InTx(ctx, func(tx storage.Store) error {
		var err error
		encounter, err = s.events.AppendTx(ctx, tx, event.Input{
			RecordID: n.RecordID,
			Date:     n.Date,
			Type:     event.TypeEncounter,
			Title:    n.Title,
			Source:   event.NoteSource{NoteID: n.ID},
		})
		if err != nil {
			return err
		}
		if err := tx.PutNote(ctx, n); err != nil {
			return fmt.Errorf("put note: %w", err)
		}
		return nil
	})
	if err != nil {
		return note.Note{}, err
	}
	s.events.Publish(ctx, encounter)
	return n, nil
}

// UpdateDraft replaces the title and content of a draft.
func (s *NoteService) UpdateDraft(ctx context.Context, noteID, title, content string) (note.Note, error) {
	if err := note.CheckDraft(title); err != nil {
		return note.Note{}, err
	}
	var updated note.Note
	err := s.store.InTx(ctx, func(tx storage.Store) error {
		n, err := getNote(ctx, tx, noteID)
		if err != nil {
			return err
		}
		if err := note.CheckEditable(n); err != nil {
			return err
		}
		n.Title = strings.TrimSpace(title)
		n.Content = content
		n.UpdatedAt = s.now().UTC()
		if err := tx.PutNote(ctx, n); err != nil {
			return fmt.Errorf("put note: %w", err)
		}
		updated = n
		return nil
	})
	if err != nil {
		return note.Note{}, err
	}
	return updated, nil
}

// DeleteDraft removes a draft together with the events that point at it
// and any appointment link to it.
func (s *NoteService) DeleteDraft(ctx context.Context, noteID string) error {
	return s.store.InTx(ctx, func(tx storage.Store) error {
		n, err := getNote(ctx, tx, noteID)
		if err != nil {
			return err
		}
		if err := note.CheckEditable(n); err != nil {
			return err
		}
		removed, err := tx.DeleteEventsBySource(ctx, n.RecordID, event.NoteSource{NoteID: n.ID})
		if err != nil {
			return fmt.Errorf("delete note events: %w", err)
		}
		if err := tx.ClearAppointmentNote(ctx, n.ID); err != nil {
			return fmt.Errorf("unlink note from appointments: %w", err)
		}
		if err := tx.DeleteNote(ctx, n.ID); err != nil {
			return fmt.Errorf("delete note: %w", err)
		}
		s.logger.InfoContext(ctx, "draft note deleted",
			"clinical_record_id", n.RecordID,
			"note_id", n.ID,
			"events_removed", removed,
		)
		return nil
	})
}

// Finalize locks a draft. It can happen once.
func (s *NoteService) Finalize(ctx context.Context, noteID string) (note.Note, error) {
	var finalized note.Note
	err := s.store.InTx(ctx, func(tx storage.Store) error {
		n, err := getNote(ctx, tx, noteID)
		if err != nil {
			return err
		}
		if err := note.CheckEditable(n); err != nil {
			return err
		}
		finalized = note.Finalize(n, s.now())
		if err := tx.PutNote(ctx, finalized); err != nil {
			return fmt.Errorf("put note: %w", err)
		}
		return nil
	})
	if err != nil {
		return note.Note{}, err
	}
	s.bus.Emit(ctx, bus.Event{
		Kind:     KindNoteFinalized,
		RecordID: finalized.RecordID,
		Payload:  finalized,
	})
	return finalized, nil
}

// AddAddendum appends an amendment to a finalized note.
func (s *NoteService) AddAddendum(ctx context.Context, noteID, content string) (note.Addendum, error) {
	var added note.Addendum
	err := s.store.InTx(ctx, func(tx storage.Store) error {
		n, err := getNote(ctx, tx, noteID)
		if err != nil {
			return err
		}
		if err := note.CheckAddendum(n, content); err != nil {
			return err
		}
		addendumID, err := id.NewID()
		if err != nil {
			return fmt.Errorf("generate addendum id: %w", err)
		}
		added = note.Addendum{
			ID:        addendumID,
			NoteID:    n.ID,
			Content:   strings.TrimSpace(content),
			CreatedAt: s.now().UTC(),
		}
		if err := tx.AddAddendum(ctx, added); err != nil {
			return fmt.Errorf("add addendum: %w", err)
		}
		return nil
	})
	if err != nil {
		return note.Addendum{}, err
	}
	return added, nil
}

func getNote(ctx context.Context, st storage.NoteStore, noteID string) (note.Note, error) {
	n, err := st.GetNote(ctx, strings.TrimSpace(noteID))
	if err != nil {
		return note.Note{}, lookupError(err, apperrors.CodeNoteNotFound, "note", noteID)
	}
	return n, nil
}
