package timeline

import (
	"encoding/json"
	"time"

	"github.com/louisbranch/mindchart/internal/services/timeline/app"
	"github.com/louisbranch/mindchart/internal/services/timeline/domain/event"
	"github.com/louisbranch/mindchart/internal/services/timeline/domain/note"
	"github.com/louisbranch/mindchart/internal/services/timeline/domain/medication"
)

type eventView struct {
	ID               string          `json:"id"`
	ClinicalRecordID string          `json:"clinical_record_id"`
	EventDate        event.Date      `json:"event_date"`
	EventType        event.Type      `json:"event_type"`
	Title            string          `json:"title"`
	Description      string          `json:"description,omitempty"`
	SourceKind       string          `json:"source_kind,omitempty"`
	SourceID         string          `json:"source_id,omitempty"`
	Payload          json.RawMessage `json:"payload,omitempty"`
	Hash             string          `json:"hash"`
	CreatedAt        time.Time       `json:"created_at"`
}

func newEventView(evt event.Event) eventView {
	return eventView{
		ID:               evt.ID,
		ClinicalRecordID: evt.RecordID,
		EventDate:        evt.Date,
		EventType:        evt.Type,
		Title:            evt.Title,
		Description:      evt.Description,
		SourceKind:       string(evt.SourceKind()),
		SourceID:         evt.SourceID(),
		Payload:          json.RawMessage(evt.PayloadJSON),
		Hash:             evt.Hash,
		CreatedAt:        evt.CreatedAt,
	}
}

func eventViews(events []event.Event) []eventView {
	out := make([]eventView, 0, len(events))
	for _, evt := range events {
		out = append(out, newEventView(evt))
	}
	return out
}

type noteView struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	Date        event.Date `json:"date"`
	Status      string     `json:"status"`
	FinalizedAt *time.Time `json:"finalized_at,omitempty"`
}

type addendumView struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type medicationView struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Dosage     string     `json:"dosage"`
	Unit       string     `json:"unit,omitempty"`
	Frequency  string     `json:"frequency,omitempty"`
	Route      string     `json:"route,omitempty"`
	Status     string     `json:"status"`
	StartDate  event.Date `json:"start_date"`
	EndDate    event.Date `json:"end_date,omitzero"`
	StopReason string     `json:"stop_reason,omitempty"`
}

type prescriptionView struct {
	ID       string    `json:"id"`
	Quantity int       `json:"quantity"`
	Refills  int       `json:"refills"`
	IssuedAt time.Time `json:"issued_at"`
}

type appointmentView struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Date        event.Date `json:"date"`
	Status      string     `json:"status"`
	NoteID      string     `json:"note_id,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type historyView struct {
	ID      string            `json:"id"`
	Version int               `json:"version"`
	Content map[string]string `json:"content"`
	Date    event.Date        `json:"date"`
}

type sourceView struct {
	Kind          string             `json:"kind,omitempty"`
	Note          *noteView          `json:"note,omitempty"`
	Addenda       []addendumView     `json:"addenda,omitempty"`
	Medication    *medicationView    `json:"medication,omitempty"`
	Prescriptions []prescriptionView `json:"prescriptions,omitempty"`
	Appointment   *appointmentView   `json:"appointment,omitempty"`
	History       *historyView       `json:"history,omitempty"`
}

func newSourceView(src app.SourceRecord) sourceView {
	out := sourceView{Kind: string(src.Kind)}
	if n := src.Note; n != nil {
		out.Note = &noteView{
			ID:          n.ID,
			Title:       n.Title,
			Content:     n.Content,
			Date:        n.Date,
			Status:      string(n.Status),
			FinalizedAt: n.FinalizedAt,
		}
		out.Addenda = addendumViews(src.Addenda)
	}
	if m := src.Medication; m != nil {
		out.Medication = &medicationView{
			ID:         m.ID,
			Name:       m.Name,
			Dosage:     m.Dosage.Dosage,
			Unit:       m.Dosage.Unit,
			Frequency:  m.Dosage.Frequency,
			Route:      m.Dosage.Route,
			Status:     string(m.Status),
			StartDate:  m.StartDate,
			EndDate:    m.EndDate,
			StopReason: m.StopReason,
		}
		out.Prescriptions = prescriptionViews(src.Prescriptions)
	}
	if a := src.Appointment; a != nil {
		out.Appointment = &appointmentView{
			ID:          a.ID,
			Title:       a.Title,
			Date:        a.Date,
			Status:      string(a.Status),
			NoteID:      a.NoteID,
			CompletedAt: a.CompletedAt,
		}
	}
	if h := src.History; h != nil {
		out.History = &historyView{
			ID:      h.ID,
			Version: h.Version,
			Content: h.Content,
			Date:    h.Date,
		}
	}
	return out
}

func addendumViews(addenda []note.Addendum) []addendumView {
	out := make([]addendumView, 0, len(addenda))
	for _, a := range addenda {
		out = append(out, addendumView{ID: a.ID, Content: a.Content, CreatedAt: a.CreatedAt})
	}
	return out
}

func prescriptionViews(prescriptions []medication.Prescription) []prescriptionView {
	out := make([]prescriptionView, 0, len(prescriptions))
	for _, p := range prescriptions {
		out = append(out, prescriptionView{ID: p.ID, Quantity: p.Quantity, Refills: p.Refills, IssuedAt: p.IssuedAt})
	}
	return out
}
