package app

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/mindchart/internal/platform/errors"
	"github.com/louisbranch/mindchart/internal/platform/id"
	"github.com/louisbranch/mindchart/internal/services/timeline/domain/appointment"
	"github.com/louisbranch/mindchart/internal/services/timeline/domain/bus"
	"github.com/louisbranch/mindchart/internal/services/timeline/domain/event"
	"github.com/louisbranch/mindchart/internal/services/timeline/storage"
)

// AppointmentService writes appointments. Completion does not append the
// encounter itself; the generator derives it.
type AppointmentService struct {
	deps
}

// Schedule books an appointment on date.
func (s *AppointmentService) Schedule(ctx context.Context, recordID, title string, date event.Date) (appointment.Appointment, error) {
	if strings.TrimSpace(recordID) == "" {
		return appointment.Appointment{}, apperrors.New(apperrors.CodeMissingClinicalRecord, "clinical record id is required")
	}
	if err := appointment.CheckSchedule(title, date); err != nil {
		return appointment.Appointment{}, err
	}
	appointmentID, err := id.NewID()
	if err != nil {
		return appointment.Appointment{}, fmt.Errorf("generate appointment id: %w", err)
	}
	now := s.now().UTC()
	a := appointment.Appointment{
		ID:        appointmentID,
		RecordID:  recordID,
		Title:     strings.TrimSpace(title),
		Date:      date,
		Status:    appointment.StatusScheduled,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = s.store.InTx(ctx, func(tx storage.Store) error {
		if _, err := tx.GetRecord(ctx, recordID); err != nil {
			return lookupError(err, apperrors.CodeClinicalRecordNotFound, "clinical record", recordID)
		}
		if err := tx.PutAppointment(ctx, a); err != nil {
			return fmt.Errorf("put appointment: %w", err)
		}
		return nil
	})
	if err != nil {
		return appointment.Appointment{}, err
	}
	return a, nil
}

// Complete marks a scheduled appointment completed, linking noteID when it
// is set, and announces the completion on the bus.
func (s *AppointmentService) Complete(ctx context.Context, appointmentID, noteID string) (appointment.Appointment, error) {
	completed, err := s.move(ctx, appointmentID, appointment.StatusCompleted, func(tx storage.Store, a appointment.Appointment) (appointment.Appointment, error) {
		if noteID = strings.TrimSpace(noteID); noteID != "" {
			if _, err := getNote(ctx, tx, noteID); err != nil {
				return appointment.Appointment{}, err
			}
		}
		return appointment.Complete(a, noteID, s.now()), nil
	})
	if err != nil {
		return appointment.Appointment{}, err
	}
	s.bus.Emit(ctx, bus.Event{
		Kind:     KindAppointmentCompleted,
		RecordID: completed.RecordID,
		Payload:  completed,
	})
	return completed, nil
}

// Cancel marks a scheduled appointment cancelled.
func (s *AppointmentService) Cancel(ctx context.Context, appointmentID string) (appointment.Appointment, error) {
	return s.move(ctx, appointmentID, appointment.StatusCancelled, func(_ storage.Store, a appointment.Appointment) (appointment.Appointment, error) {
		return appointment.Cancel(a, s.now()), nil
	})
}

func (s *AppointmentService) move(ctx context.Context, appointmentID string, to appointment.Status, apply func(storage.Store, appointment.Appointment) (appointment.Appointment, error)) (appointment.Appointment, error) {
	var moved appointment.Appointment
	err := s.store.InTx(ctx, func(tx storage.Store) error {
		a, err := tx.GetAppointment(ctx, strings.TrimSpace(appointmentID))
		if err != nil {
			return lookupError(err, apperrors.CodeAppointmentNotFound, "appointment", appointmentID)
		}
		if err := appointment.CheckTransition(a, to); err != nil {
			return err
		}
		next, err := apply(tx, a)
		if err != nil {
			return err
		}
		if err := tx.PutAppointment(ctx, next); err != nil {
			return fmt.Errorf("put appointment: %w", err)
		}
		moved = next
		return nil
	})
	if err != nil {
		return appointment.Appointment{}, err
	}
	return moved, nil
}
