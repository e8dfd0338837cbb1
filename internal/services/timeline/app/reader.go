package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/mindchart/internal/platform/errors"
	"github.com/louisbranch/mindchart/internal/services/timeline/domain/appointment"
	"github.com/louisbranch/mindchart/internal/services/timeline/domain/event"
	"github.com/louisbranch/mindchart/internal/services/timeline/domain/history"
	"github.com/louisbranch/mindchart/internal/services/timeline/domain/medication"
	"github.com/louisbranch/mindchart/internal/services/timeline/domain/note"
	"github.com/louisbranch/mindchart/internal/services/timeline/domain/ordering"
	"github.com/louisbranch/mindchart/internal/services/timeline/storage"
	"go.opentelemetry.io/otel/trace"
)

// Filter narrows GetFilteredTimeline. Zero fields do not filter.
type Filter struct {
	EventTypes []event.Type
	// FromDate and ToDate are inclusive.
	FromDate   event.Date
	ToDate     event.Date
	SourceKind event.SourceKind
	// Direction defaults to ascending.
	Direction ordering.Direction
}

// SourceRecord is the concrete record an event points at. Kind is empty
// for freestanding events.
type SourceRecord struct {
	Kind          event.SourceKind
	Note          *note.Note
	Addenda       []note.Addendum
	Medication    *medication.Medication
	Prescriptions []medication.Prescription
	Appointment   *appointment.Appointment
	History       *history.History
}

// Empty reports whether the event had no source.
func (s SourceRecord) Empty() bool {
	return s.Kind == event.SourceKindNone
}

// Reader serves timeline queries. Every patient query backfills encounters
// first so completed appointments are visible on read.
type Reader struct {
	deps
	generator *Generator
}

// GetFullTimeline returns every event of the patient's record in direction.
func (r *Reader) GetFullTimeline(ctx context.Context, patientID string, direction ordering.Direction) (events []event.Event, err error) {
	ctx, span := r.tracer.Start(ctx, "timeline.GetFullTimeline", trace.WithAttributes(patientAttr(patientID)))
	defer func() {
		span.SetAttributes(countAttr("events", len(events)))
		endSpan(span, err)
	}()

	if direction == "" {
		direction = ordering.Ascending
	}
	return r.load(ctx, patientID, storage.EventFilter{}, direction)
}

// GetFilteredTimeline returns the patient's events matching filter. An
// inverted date range fails before anything is queried.
func (r *Reader) GetFilteredTimeline(ctx context.Context, patientID string, filter Filter) (events []event.Event, err error) {
	ctx, span := r.tracer.Start(ctx, "timeline.GetFilteredTimeline", trace.WithAttributes(patientAttr(patientID)))
	defer func() {
		span.SetAttributes(countAttr("events", len(events)))
		endSpan(span, err)
	}()

	storageFilter, err := normalizeFilter(filter)
	if err != nil {
		return nil, err
	}
	direction := filter.Direction
	if direction == "" {
		direction = ordering.Ascending
	}
	return r.load(ctx, patientID, storageFilter, direction)
}

func normalizeFilter(filter Filter) (storage.EventFilter, error) {
	if !filter.FromDate.IsZero() && !filter.ToDate.IsZero() && filter.FromDate.After(filter.ToDate) {
		return storage.EventFilter{}, apperrors.WithMetadata(apperrors.CodeInvalidDateRange, "from date is after to date", map[string]string{
			"from_date": filter.FromDate.String(),
			"to_date":   filter.ToDate.String(),
		})
	}
	for _, typ := range filter.EventTypes {
		if !typ.Valid() {
			return storage.EventFilter{}, apperrors.WithMetadata(apperrors.CodeInvalidEventType, "unrecognized event type "+string(typ), map[string]string{
				"event_type": string(typ),
			})
		}
	}
	if _, err := event.ParseSourceKind(string(filter.SourceKind)); err != nil {
		return storage.EventFilter{}, err
	}
	switch filter.Direction {
	case "", ordering.Ascending, ordering.Descending:
	default:
		return storage.EventFilter{}, fmt.Errorf("unknown sort direction %q", filter.Direction)
	}
	return storage.EventFilter{
		Types:      filter.EventTypes,
		From:       filter.FromDate,
		To:         filter.ToDate,
		SourceKind: filter.SourceKind,
	}, nil
}

func (r *Reader) load(ctx context.Context, patientID string, filter storage.EventFilter, direction ordering.Direction) ([]event.Event, error) {
	rec, err := resolveRecord(ctx, r.store, patientID)
	if err != nil {
		return nil, err
	}
	if _, err := r.generator.EnsureEncounterEvents(ctx, rec.ID); err != nil {
		return nil, err
	}
	events, err := r.store.ListEvents(ctx, rec.ID, filter)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	ordering.Sort(events, direction)
	if events == nil {
		events = []event.Event{}
	}
	return events, nil
}

// GetEvent returns one event.
func (r *Reader) GetEvent(ctx context.Context, eventID string) (evt event.Event, err error) {
	ctx, span := r.tracer.Start(ctx, "timeline.GetEvent", trace.WithAttributes(eventAttr(eventID)))
	defer func() { endSpan(span, err) }()

	return getEvent(ctx, r.store, eventID)
}

// GetEventSource resolves the event's source pointer to the record it
// names. A pointer to a record that no longer exists is SOURCE_UNAVAILABLE.
func (r *Reader) GetEventSource(ctx context.Context, eventID string) (src SourceRecord, err error) {
	ctx, span := r.tracer.Start(ctx, "timeline.GetEventSource", trace.WithAttributes(eventAttr(eventID)))
	defer func() { endSpan(span, err) }()

	err = r.store.InTx(ctx, func(tx storage.Store) error {
		evt, err := getEvent(ctx, tx, eventID)
		if err != nil {
			return err
		}
		src, err = loadSource(ctx, tx, evt)
		return err
	})
	if err != nil {
		return SourceRecord{}, err
	}
	return src, nil
}

func loadSource(ctx context.Context, tx storage.Store, evt event.Event) (SourceRecord, error) {
	out := SourceRecord{Kind: evt.SourceKind()}
	var err error
	switch src := evt.Source.(type) {
	case nil:
		return out, nil
	case event.NoteSource:
		var n note.Note
		if n, err = tx.GetNote(ctx, src.NoteID); err == nil {
			out.Note = &n
			out.Addenda, err = tx.ListAddenda(ctx, src.NoteID)
		}
	case event.MedicationSource:
		var m medication.Medication
		if m, err = tx.GetMedication(ctx, src.MedicationID); err == nil {
			out.Medication = &m
			out.Prescriptions, err = tx.ListPrescriptions(ctx, src.MedicationID)
		}
	case event.AppointmentSource:
		var a appointment.Appointment
		if a, err = tx.GetAppointment(ctx, src.AppointmentID); err == nil {
			out.Appointment = &a
		}
	case event.HistorySource:
		var h history.History
		if h, err = tx.GetHistory(ctx, src.HistoryID); err == nil {
			out.History = &h
		}
	default:
		return SourceRecord{}, fmt.Errorf("event %s has unsupported source %T", evt.ID, evt.Source)
	}

	if errors.Is(err, storage.ErrNotFound) {
		kind, id := event.SourceKey(evt.Source)
		return SourceRecord{}, apperrors.WithMetadata(apperrors.CodeSourceUnavailable, "event source no longer exists", map[string]string{
			"event_id":    evt.ID,
			"source_kind": string(kind),
			"source_id":   id,
		})
	}
	if err != nil {
		return SourceRecord{}, fmt.Errorf("load source of event %s: %w", evt.ID, err)
	}
	return out, nil
}

func getEvent(ctx context.Context, st storage.EventStore, eventID string) (event.Event, error) {
	if strings.TrimSpace(eventID) == "" {
		return event.Event{}, apperrors.New(apperrors.CodeEventNotFound, "event id is required")
	}
	evt, err := st.GetEvent(ctx, eventID)
	if err != nil {
		return event.Event{}, lookupError(err, apperrors.CodeEventNotFound, "event", eventID)
	}
	return evt, nil
}

// resolveRecord maps a patient to their clinical record.
func resolveRecord(ctx context.Context, st storage.RecordStore, patientID string) (storage.ClinicalRecord, error) {
	patientID = strings.TrimSpace(patientID)
	if patientID == "" {
		return storage.ClinicalRecord{}, missingPatient()
	}
	rec, err := st.GetRecordByPatient(ctx, patientID)
	if err != nil {
		return storage.ClinicalRecord{}, lookupError(err, apperrors.CodePatientNotFound, "patient", patientID)
	}
	return rec, nil
}
