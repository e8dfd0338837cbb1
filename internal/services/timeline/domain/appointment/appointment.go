// Package appointment holds the appointment lifecycle. A scheduled
// appointment is either completed, which later yields exactly one encounter
// on the timeline, or cancelled, which never does.
package appointment

import (
	"strings"
	"time"

	apperrors "github.com/louisbranch/mindchart/internal/platform/errors"
	"github.com/louisbranch/mindchart/internal/services/timeline/domain/event"
)

// Status is the appointment lifecycle state.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Appointment is a scheduled visit.
type Appointment struct {
	ID       string
	RecordID string
	Title    string
	Date     event.Date
	// NoteID links the note written during the visit, if any.
	NoteID      string
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

// CheckSchedule validates a new appointment.
func CheckSchedule(title string, date event.Date) error {
	if date.IsZero() {
		return apperrors.New(apperrors.CodeMissingEventTimestamp, "appointment date is required")
	}
	if strings.TrimSpace(title) == "" {
		return apperrors.New(apperrors.CodeMissingTitle, "appointment title is required")
	}
	return nil
}

// CheckTransition validates moving a out of Scheduled into to.
func CheckTransition(a Appointment, to Status) error {
	if a.Status != StatusScheduled || (to != StatusCompleted && to != StatusCancelled) {
		return apperrors.WithMetadata(apperrors.CodeAppointmentInvalidTransition, "appointment cannot move to "+string(to), map[string]string{
			"appointment_id": a.ID,
			"status":         string(a.Status),
			"target":         string(to),
		})
	}
	return nil
}

// Complete returns a completed at at, linked to noteID when set.
func Complete(a Appointment, noteID string, at time.Time) Appointment {
	at = at.UTC()
	a.Status = StatusCompleted
	a.CompletedAt = &at
	a.UpdatedAt = at
	if noteID = strings.TrimSpace(noteID); noteID != "" {
		a.NoteID = noteID
	}
	return a
}

// Cancel returns a cancelled at at.
func Cancel(a Appointment, at time.Time) Appointment {
	a.Status = StatusCancelled
	a.UpdatedAt = at.UTC()
	return a
}

// EncounterTitle is the title of the encounter derived from a.
func EncounterTitle(a Appointment) string {
	if title := strings.TrimSpace(a.Title); title != "" {
		return title
	}
	return "Appointment"
}
