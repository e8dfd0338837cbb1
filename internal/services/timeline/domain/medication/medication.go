// Package medication holds the medication lifecycle rules. A medication is
// Active from its start until it is Discontinued, which is terminal.
package medication

import (
	"strings"
	"time"

	apperrors "github.com/louisbranch/mindchart/internal/platform/errors"
	"github.com/louisbranch/mindchart/internal/services/timeline/domain/event"
)

// Status is the medication lifecycle state.
type Status string

const (
	StatusActive       Status = "active"
	StatusDiscontinued Status = "discontinued"
)

// Dosage is the prescribable part of a medication that changes over time.
type Dosage struct {
	Dosage    string
	Unit      string
	Frequency string
	Route     string
}

// Medication is the cached latest state of a medication. The timeline is
// the source of truth; this row mirrors the last replayed transition.
type Medication struct {
	ID         string
	RecordID   string
	Name       string
	Dosage     Dosage
	StartDate  event.Date
	EndDate    event.Date
	StopReason string
	Status     Status
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Prescription is issued against an active medication.
type Prescription struct {
	ID           string
	MedicationID string
	Quantity     int
	Refills      int
	IssuedAt     time.Time
}

// Active reports whether m can still change.
func (m Medication) Active() bool {
	return m.Status == StatusActive
}

// Payload returns the event payload for a start or change of m.
func (m Medication) Payload() event.MedicationPayload {
	return event.MedicationPayload{
		MedicationID: m.ID,
		Name:         m.Name,
		Dosage:       m.Dosage.Dosage,
		Unit:         m.Dosage.Unit,
		Frequency:    m.Dosage.Frequency,
		Route:        m.Dosage.Route,
	}
}

// CheckStart validates a new medication.
func CheckStart(name string, dosage Dosage) error {
	if strings.TrimSpace(name) == "" {
		return apperrors.WithMetadata(apperrors.CodeMissingTitle, "medication name is required", map[string]string{
			"field": "name",
		})
	}
	if strings.TrimSpace(dosage.Dosage) == "" {
		return apperrors.WithMetadata(apperrors.CodeMissingContent, "medication dosage is required", map[string]string{
			"field": "dosage",
		})
	}
	return nil
}

// Normalize returns d with surrounding whitespace trimmed from every field.
func (d Dosage) Normalize() Dosage {
	return Dosage{
		Dosage:    strings.TrimSpace(d.Dosage),
		Unit:      strings.TrimSpace(d.Unit),
		Frequency: strings.TrimSpace(d.Frequency),
		Route:     strings.TrimSpace(d.Route),
	}
}

// CheckTransition validates a change or stop of m dated at date. latest is
// the date of the newest transition already recorded for m; a transition
// may not be dated before it.
func CheckTransition(m Medication, date, latest event.Date) error {
	if !m.Active() {
		return apperrors.WithMetadata(apperrors.CodeMedicationAlreadyDiscontinued, "medication is discontinued", map[string]string{
			"medication_id": m.ID,
		})
	}
	if date.Before(m.StartDate) {
		return apperrors.WithMetadata(apperrors.CodeMedicationNotActive, "medication was not active on that date", map[string]string{
			"medication_id": m.ID,
			"event_date":    date.String(),
			"start_date":    m.StartDate.String(),
		})
	}
	if date.Before(latest) {
		return apperrors.WithMetadata(apperrors.CodeMedicationNotActive, "medication already changed after that date", map[string]string{
			"medication_id": m.ID,
			"event_date":    date.String(),
			"latest_date":   latest.String(),
		})
	}
	return nil
}

// CheckPrescription validates issuing a prescription for m.
func CheckPrescription(m Medication, quantity, refills int) error {
	if !m.Active() {
		return apperrors.WithMetadata(apperrors.CodeMedicationNotActiveCannotPrescribe, "medication is not active", map[string]string{
			"medication_id": m.ID,
			"status":        string(m.Status),
		})
	}
	if quantity <= 0 || refills < 0 {
		return apperrors.WithMetadata(apperrors.CodeMissingContent, "prescription quantity is required", map[string]string{
			"field": "quantity",
		})
	}
	return nil
}

// Change returns m with the non-empty fields of next applied.
func Change(m Medication, next Dosage) Medication {
	next = next.Normalize()
	if next.Dosage != "" {
		m.Dosage.Dosage = next.Dosage
	}
	if next.Unit != "" {
		m.Dosage.Unit = next.Unit
	}
	if next.Frequency != "" {
		m.Dosage.Frequency = next.Frequency
	}
	if next.Route != "" {
		m.Dosage.Route = next.Route
	}
	return m
}

// Stop returns m discontinued on date.
func Stop(m Medication, date event.Date, reason string) Medication {
	m.Status = StatusDiscontinued
	m.EndDate = date
	m.StopReason = strings.TrimSpace(reason)
	return m
}
