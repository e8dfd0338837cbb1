// Package state derives a patient's clinical snapshot by replaying timeline
// events up to a cutoff date.
//
// Replay is a pure fold: the same events, sources and cutoff always yield
// the same snapshot, so a historical snapshot at T equals the current
// snapshot computed on T.
package state

import (
	"time"

	"github.com/louisbranch/mindchart/internal/services/timeline/domain/event"
)

// Medication is an active medication as of the snapshot date.
type Medication struct {
	MedicationID string     `json:"medication_id"`
	Name         string     `json:"name"`
	Dosage       string     `json:"dosage"`
	Unit         string     `json:"unit,omitempty"`
	Frequency    string     `json:"frequency"`
	Route        string     `json:"route,omitempty"`
	StartDate    event.Date `json:"start_date"`
	LastChanged  event.Date `json:"last_changed"`
}

// History is the latest psychiatric history snapshot.
type History struct {
	HistoryID string            `json:"history_id"`
	Version   int               `json:"version"`
	Content   map[string]string `json:"content"`
	UpdatedOn event.Date        `json:"updated_on"`
}

// NoteSummary describes the most recent finalized note.
type NoteSummary struct {
	NoteID        string     `json:"note_id"`
	Title         string     `json:"title"`
	Excerpt       string     `json:"excerpt"`
	EventDate     event.Date `json:"event_date"`
	FinalizedAt   time.Time  `json:"finalized_at"`
	AddendumCount int        `json:"addendum_count"`
}

// Snapshot is the derived clinical state of a record.
type Snapshot struct {
	RecordID    string       `json:"clinical_record_id"`
	AsOf        event.Date   `json:"as_of"`
	Medications []Medication `json:"medications"`
	History     *History     `json:"history,omitempty"`
	LatestNote  *NoteSummary `json:"latest_note,omitempty"`
	// Applied counts the events folded into the snapshot.
	Applied int `json:"applied"`
}

// Note is the note data replay needs to summarize an encounter.
type Note struct {
	ID          string
	Title       string
	Content     string
	FinalizedAt *time.Time
	// AddendaCreatedAt holds the creation time of every addendum.
	AddendaCreatedAt []time.Time
}

// Sources holds the records encounters point at, fetched together with the
// events.
type Sources struct {
	Notes map[string]Note
	// AppointmentNotes maps appointment id to its linked note id.
	AppointmentNotes map[string]string
}

// Options configures a replay.
type Options struct {
	// Cutoff is inclusive.
	Cutoff event.Date
	// Location is the engine location used to date finalization and addenda.
	Location *time.Location
}
