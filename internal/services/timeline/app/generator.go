package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/louisbranch/mindchart/internal/services/timeline/domain/appointment"
	"github.com/louisbranch/mindchart/internal/services/timeline/domain/bus"
	"github.com/louisbranch/mindchart/internal/services/timeline/domain/event"
	"github.com/louisbranch/mindchart/internal/services/timeline/storage"
	"go.opentelemetry.io/otel/trace"
)

// Generator derives encounter events from completed appointments.
type Generator struct {
	deps
	events *EventStore
}

// EnsureEncounterEvents appends one encounter for every completed
// appointment of recordID that lacks one, dated at the appointment date.
// Repeated or concurrent calls never create a second encounter for the
// same appointment: existence is checked right before insert, and a
// uniqueness violation from a racing insert counts as done. Appointments
// dated after today wait until their date arrives.
func (g *Generator) EnsureEncounterEvents(ctx context.Context, recordID string) (created int, err error) {
	ctx, span := g.tracer.Start(ctx, "timeline.EnsureEncounterEvents", trace.WithAttributes(recordAttr(recordID)))
	defer func() {
		span.SetAttributes(countAttr("encounters_created", created))
		endSpan(span, err)
	}()

	appointments, err := g.store.ListAppointments(ctx, recordID, appointment.StatusCompleted)
	if err != nil {
		return 0, fmt.Errorf("list completed appointments: %w", err)
	}

	today := g.today()
	for _, appt := range appointments {
		if appt.Date.After(today) {
			g.logger.DebugContext(ctx, "encounter backfill deferred",
				"clinical_record_id", recordID,
				"appointment_id", appt.ID,
				"appointment_date", appt.Date.String(),
			)
			continue
		}

		src := event.AppointmentSource{AppointmentID: appt.ID}
		_, err := g.store.FindEventBySource(ctx, recordID, event.TypeEncounter, src)
		if err == nil {
			continue
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return created, fmt.Errorf("find encounter for appointment %s: %w", appt.ID, err)
		}

		_, err = g.events.Append(ctx, event.Input{
			RecordID: recordID,
			Date:     appt.Date,
			Type:     event.TypeEncounter,
			Title:    appointment.EncounterTitle(appt),
			Source:   src,
		})
		if errors.Is(err, storage.ErrDuplicateEvent) {
			g.logger.DebugContext(ctx, "encounter already generated",
				"clinical_record_id", recordID,
				"appointment_id", appt.ID,
			)
			continue
		}
		if err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

func (g *Generator) handleAppointmentCompleted(ctx context.Context, evt bus.Event) error {
	if evt.RecordID == "" {
		return errors.New("appointment completion without clinical record id")
	}
	_, err := g.EnsureEncounterEvents(ctx, evt.RecordID)
	return err
}
