package app

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/mindchart/internal/platform/errors"
	"github.com/louisbranch/mindchart/internal/platform/id"
	"github.com/louisbranch/mindchart/internal/services/timeline/domain/event"
	"github.com/louisbranch/mindchart/internal/services/timeline/domain/medication"
	"github.com/louisbranch/mindchart/internal/services/timeline/storage"
)

// StartInput describes a medication being started.
type StartInput struct {
	RecordID    string
	Name        string
	Dosage      medication.Dosage
	Date        event.Date
	Description string
}

// MedicationService writes medication transitions. Every transition is
// stored together with its timeline event.
type MedicationService struct {
	deps
	events *EventStore
}

// Start records a new active medication.
func (s *MedicationService) Start(ctx context.Context, in StartInput) (medication.Medication, error) {
	if err := medication.CheckStart(in.Name, in.Dosage); err != nil {
		return medication.Medication{}, err
	}
	medicationID, err := id.NewID()
	if err != nil {
		return medication.Medication{}, fmt.Errorf("generate medication id: %w", err)
	}
	now := s.now().UTC()
	m := medication.Medication{
		ID:        medicationID,
		RecordID:  in.RecordID,
		Name:      strings.TrimSpace(in.Name),
		Dosage:    in.Dosage.Normalize(),
		StartDate: in.Date,
		Status:    medication.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.write(ctx, m, func(tx storage.Store) (event.Event, error) {
		return s.events.AppendTx(ctx, tx, event.Input{
			RecordID:    m.RecordID,
			Date:        m.StartDate,
			Type:        event.TypeMedicationStart,
			Title:       "Started " + m.Name,
			Description: in.Description,
			Source:      event.MedicationSource{MedicationID: m.ID},
			Payload:     m.Payload(),
		})
	})
	if err != nil {
		return medication.Medication{}, err
	}
	return m, nil
}

// Change applies the non-empty fields of dosage from date on.
func (s *MedicationService) Change(ctx context.Context, medicationID string, dosage medication.Dosage, date event.Date, reason string) (medication.Medication, error) {
	if date.IsZero() {
		return medication.Medication{}, apperrors.New(apperrors.CodeMissingEventTimestamp, "change date is required")
	}
	var changed medication.Medication
	err := s.transition(ctx, medicationID, date, func(tx storage.Store, m medication.Medication) (medication.Medication, event.Event, error) {
		next := medication.Change(m, dosage)
		next.UpdatedAt = s.now().UTC()
		evt, err := s.events.AppendTx(ctx, tx, event.Input{
			RecordID:    m.RecordID,
			Date:        date,
			Type:        event.TypeMedicationChange,
			Title:       "Changed " + m.Name,
			Description: reason,
			Source:      event.MedicationSource{MedicationID: m.ID},
			Payload:     next.Payload(),
		})
		changed = next
		return next, evt, err
	})
	if err != nil {
		return medication.Medication{}, err
	}
	return changed, nil
}

// Stop discontinues a medication on date.
func (s *MedicationService) Stop(ctx context.Context, medicationID string, date event.Date, reason string) (medication.Medication, error) {
	if date.IsZero() {
		return medication.Medication{}, apperrors.New(apperrors.CodeMissingEventTimestamp, "stop date is required")
	}
	var stopped medication.Medication
	err := s.transition(ctx, medicationID, date, func(tx storage.Store, m medication.Medication) (medication.Medication, event.Event, error) {
		next := medication.Stop(m, date, reason)
		next.UpdatedAt = s.now().UTC()
		evt, err := s.events.AppendTx(ctx, tx, event.Input{
			RecordID:    m.RecordID,
			Date:        date,
			Type:        event.TypeMedicationStop,
			Title:       "Stopped " + m.Name,
			Description: reason,
			Source:      event.MedicationSource{MedicationID: m.ID},
			Payload: event.MedicationStopPayload{
				MedicationID: m.ID,
				Reason:       next.StopReason,
			},
		})
		stopped = next
		return next, evt, err
	})
	if err != nil {
		return medication.Medication{}, err
	}
	return stopped, nil
}

// IssuePrescription records a prescription against an active medication.
func (s *MedicationService) IssuePrescription(ctx context.Context, medicationID string, quantity, refills int) (medication.Prescription, error) {
	var issued medication.Prescription
	err := s.store.InTx(ctx, func(tx storage.Store) error {
		m, err := getMedication(ctx, tx, medicationID)
		if err != nil {
			return err
		}
		if err := medication.CheckPrescription(m, quantity, refills); err != nil {
			return err
		}
		prescriptionID, err := id.NewID()
		if err != nil {
			return fmt.Errorf("generate prescription id: %w", err)
		}
		issued = medication.Prescription{
			ID:           prescriptionID,
			MedicationID: m.ID,
			Quantity:     quantity,
			Refills:      refills,
			IssuedAt:     s.now().UTC(),
		}
		if err := tx.PutPrescription(ctx, issued); err != nil {
			return fmt.Errorf("put prescription: %w", err)
		}
		return nil
	})
	if err != nil {
		return medication.Prescription{}, err
	}
	return issued, nil
}

// transition loads a medication, checks it can move on date and stores the
// result of apply with its event.
func (s *MedicationService) transition(ctx context.Context, medicationID string, date event.Date, apply func(storage.Store, medication.Medication) (medication.Medication, event.Event, error)) error {
	var appended event.Event
	err := s.store.InTx(ctx, func(tx storage.Store) error {
		m, err := getMedication(ctx, tx, medicationID)
		if err != nil {
			return err
		}
		latest, err := latestTransition(ctx, tx, m)
		if err != nil {
			return err
		}
		if err := medication.CheckTransition(m, date, latest); err != nil {
			return err
		}
		next, evt, err := apply(tx, m)
		if err != nil {
			return err
		}
		if err := tx.PutMedication(ctx, next); err != nil {
			return fmt.Errorf("put medication: %w", err)
		}
		appended = evt
		return nil
	})
	if err != nil {
		return err
	}
	s.events.Publish(ctx, appended)
	return nil
}

// write stores a new medication with the event appendEvent returns.
func (s *MedicationService) write(ctx context.Context, m medication.Medication, appendEvent func(storage.Store) (event.Event, error)) error {
	var appended event.Event
	err := s.store.InTx(ctx, func(tx storage.Store) error {
		evt, err := appendEvent(tx)
		if err != nil {
			return err
		}
		if err := tx.PutMedication(ctx, m); err != nil {
			return fmt.Errorf("put medication: %w", err)
		}
		appended = evt
		return nil
	})
	if err != nil {
		return err
	}
	s.events.Publish(ctx, appended)
	return nil
}

// latestTransition returns the date of the newest timeline event recorded
// for m, or its start date when none is found.
func latestTransition(ctx context.Context, st storage.EventStore, m medication.Medication) (event.Date, error) {
	events, err := st.ListEvents(ctx, m.RecordID, storage.EventFilter{
		Types:      []event.Type{event.TypeMedicationStart, event.TypeMedicationChange, event.TypeMedicationStop},
		SourceKind: event.SourceKindMedication,
	})
	if err != nil {
		return event.Date{}, fmt.Errorf("list medication events: %w", err)
	}
	latest := m.StartDate
	for _, evt := range events {
		if evt.SourceID() == m.ID && evt.Date.After(latest) {
			latest = evt.Date
		}
	}
	return latest, nil
}

func getMedication(ctx context.Context, st storage.MedicationStore, medicationID string) (medication.Medication, error) {
	m, err := st.GetMedication(ctx, strings.TrimSpace(medicationID))
	if err != nil {
		return medication.Medication{}, lookupError(err, apperrors.CodeMedicationNotFound, "medication", medicationID)
	}
	return m, nil
}
