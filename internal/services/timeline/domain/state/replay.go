package state

import (
	"maps"
	"slices"
	"strings"
	"time"

	apperrors "github.com/louisbranch/mindchart/internal/platform/errors"
	"github.com/louisbranch/mindchart/internal/services/timeline/domain/event"
	"github.com/louisbranch/mindchart/internal/services/timeline/domain/note"
	"github.com/louisbranch/mindchart/internal/services/timeline/domain/ordering"
)

type fold struct {
	opts        Options
	sources     Sources
	medications map[string]Medication
	history     *History
	latestNote  *NoteSummary
	applied     int
}

// Replay folds events of recordID dated on or before opts.Cutoff into a
// snapshot. Events are ordered here; callers may pass them in any order.
// An inconsistent sequence, such as a change to a medication that never
// started, fails with INVALID_STATE and is never patched over.
func Replay(recordID string, events []event.Event, sources Sources, opts Options) (Snapshot, error) {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	included := make([]event.Event, 0, len(events))
	for _, evt := range events {
		if evt.Date.After(opts.Cutoff) {
			continue
		}
		included = append(included, evt)
	}
	ordering.Sort(included, ordering.Ascending)

	f := &fold{
		opts:        opts,
		sources:     sources,
		medications: make(map[string]Medication),
	}
	for _, evt := range included {
		if err := f.apply(evt); err != nil {
			return Snapshot{}, err
		}
		f.applied++
	}

	return Snapshot{
		RecordID:    recordID,
		AsOf:        opts.Cutoff,
		Medications: f.activeMedications(),
		History:     f.history,
		LatestNote:  f.latestNote,
		Applied:     f.applied,
	}, nil
}

func (f *fold) apply(evt event.Event) error {
	switch evt.Type {
	case event.TypeMedicationStart:
		payload, err := decode[event.MedicationPayload](evt)
		if err != nil {
			return err
		}
		id := medicationID(evt, payload.MedicationID)
		if _, exists := f.medications[id]; exists {
			return invalidState(evt, "medication already started")
		}
		f.medications[id] = Medication{
			MedicationID: id,
			Name:         payload.Name,
			Dosage:       payload.Dosage,
			Unit:         payload.Unit,
			Frequency:    payload.Frequency,
			Route:        payload.Route,
			StartDate:    evt.Date,
			LastChanged:  evt.Date,
		}
	case event.TypeMedicationChange:
		payload, err := decode[event.MedicationPayload](evt)
		if err != nil {
			return err
		}
		id := medicationID(evt, payload.MedicationID)
		slot, exists := f.medications[id]
		if !exists {
			return invalidState(evt, "medication change without an active start")
		}
		slot.Dosage = payload.Dosage
		slot.Unit = payload.Unit
		slot.Frequency = payload.Frequency
		slot.Route = payload.Route
		if name := strings.TrimSpace(payload.Name); name != "" {
			slot.Name = name
		}
		slot.LastChanged = evt.Date
		f.medications[id] = slot
	case event.TypeMedicationStop:
		payload, err := decode[event.MedicationStopPayload](evt)
		if err != nil {
			return err
		}
		id := medicationID(evt, payload.MedicationID)
		if _, exists := f.medications[id]; !exists {
			return invalidState(evt, "medication stop without an active start")
		}
		delete(f.medications, id)
	case event.TypeHistoryUpdate:
		payload, err := decode[event.HistoryPayload](evt)
		if err != nil {
			return err
		}
		historyID := payload.HistoryID
		if historyID == "" {
			historyID = evt.SourceID()
		}
		f.history = &History{
			HistoryID: historyID,
			Version:   payload.Version,
			Content:   maps.Clone(payload.Content),
			UpdatedOn: evt.Date,
		}
	case event.TypeEncounter:
		return f.applyEncounter(evt)
	}
	return nil
}

func (f *fold) applyEncounter(evt event.Event) error {
	var noteID string
	switch src := evt.Source.(type) {
	case event.NoteSource:
		noteID = src.NoteID
	case event.AppointmentSource:
		noteID = f.sources.AppointmentNotes[src.AppointmentID]
	}
	if noteID == "" {
		return nil
	}
	n, ok := f.sources.Notes[noteID]
	if !ok {
		return invalidState(evt, "encounter note is missing")
	}
	if !note.FinalizedBy(n.FinalizedAt, f.opts.Cutoff, f.opts.Location) {
		return nil
	}

	addenda := 0
	for _, createdAt := range n.AddendaCreatedAt {
		if !event.DateOf(createdAt.In(f.opts.Location)).After(f.opts.Cutoff) {
			addenda++
		}
	}
	f.latestNote = &NoteSummary{
		NoteID:        n.ID,
		Title:         n.Title,
		Excerpt:       note.Excerpt(n.Content),
		EventDate:     evt.Date,
		FinalizedAt:   n.FinalizedAt.UTC(),
		AddendumCount: addenda,
	}
	return nil
}

func (f *fold) activeMedications() []Medication {
	out := slices.Collect(maps.Values(f.medications))
	slices.SortFunc(out, func(a, b Medication) int {
		if c := a.StartDate.Compare(b.StartDate); c != 0 {
			return c
		}
		return strings.Compare(a.MedicationID, b.MedicationID)
	})
	if out == nil {
		out = []Medication{}
	}
	return out
}

// medicationID prefers the source pointer, falling back to the payload.
func medicationID(evt event.Event, fromPayload string) string {
	if src, ok := evt.Source.(event.MedicationSource); ok && src.MedicationID != "" {
		return src.MedicationID
	}
	return fromPayload
}

func decode[P any](evt event.Event) (P, error) {
	payload, err := event.DecodePayload[P](evt)
	if err != nil {
		var zero P
		return zero, apperrors.Wrap(apperrors.CodeInvalidState, "event "+evt.ID+" has an unreadable payload", err)
	}
	return payload, nil
}

func invalidState(evt event.Event, reason string) error {
	return apperrors.WithMetadata(apperrors.CodeInvalidState, reason, map[string]string{
		"event_id":   evt.ID,
		"event_type": string(evt.Type),
		"event_date": evt.Date.String(),
	})
}
