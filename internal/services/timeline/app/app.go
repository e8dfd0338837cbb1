// Package app wires the timeline engine: the event store write path, the
// timeline reader, the state resolver, encounter backfill and the source
// writers that pair record mutations with their clinical events.
package app

import (
	"errors"
	"log/slog"
	"time"

	"github.com/louisbranch/mindchart/internal/services/timeline/domain/bus"
	"github.com/louisbranch/mindchart/internal/services/timeline/domain/event"
	"github.com/louisbranch/mindchart/internal/services/timeline/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/louisbranch/mindchart/internal/services/timeline"

const (
	// KindAppointmentCompleted is emitted after an appointment completes.
	KindAppointmentCompleted bus.Kind = "appointment.completed"
	// KindNoteFinalized is emitted after a note is finalized.
	KindNoteFinalized bus.Kind = "note.finalized"
)

// EventKind is the bus kind published after a clinical event of typ is
// appended.
func EventKind(typ event.Type) bus.Kind {
	return bus.Kind("clinical_event." + string(typ))
}

// Options configures an Engine. Zero values use the process defaults.
type Options struct {
	// Now is the engine clock.
	Now func() time.Time
	// Location decides which calendar day "today" is.
	Location *time.Location
	Logger   *slog.Logger
	Tracer   trace.Tracer
}

// deps is shared by every component of one engine.
type deps struct {
	store  storage.Store
	bus    *bus.Bus
	now    func() time.Time
	loc    *time.Location
	logger *slog.Logger
	tracer trace.Tracer
}

func (d deps) today() event.Date {
	return event.DateOf(d.now().In(d.loc))
}

// Engine is the assembled timeline engine.
type Engine struct {
	Events       *EventStore
	Reader       *Reader
	Resolver     *Resolver
	Generator    *Generator
	Records      *RecordService
	Notes        *NoteService
	Medications  *MedicationService
	Appointments *AppointmentService
	History      *HistoryService

	bus         *bus.Bus
	unsubscribe []func()
}

// New assembles an engine over store. Events are published on b; a nil b
// gets a private bus. The generator subscribes to appointment completion
// as an async handler until Close.
func New(store storage.Store, b *bus.Bus, opts Options) (*Engine, error) {
	if store == nil {
		return nil, errors.New("storage is required")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer(tracerName)
	}
	if b == nil {
		b = bus.New(opts.Logger)
	}

	d := deps{
		store:  store,
		bus:    b,
		now:    opts.Now,
		loc:    opts.Location,
		logger: opts.Logger.With("component", "timeline"),
		tracer: opts.Tracer,
	}
	events := &EventStore{deps: d}
	generator := &Generator{deps: d, events: events}
	engine := &Engine{
		Events:       events,
		Reader:       &Reader{deps: d, generator: generator},
		Resolver:     &Resolver{deps: d, generator: generator},
		Generator:    generator,
		Records:      &RecordService{deps: d},
		Notes:        &NoteService{deps: d, events: events},
		Medications:  &MedicationService{deps: d, events: events},
		Appointments: &AppointmentService{deps: d},
		History:      &HistoryService{deps: d, events: events},
		bus:          b,
	}
	engine.unsubscribe = append(engine.unsubscribe,
		b.OnAsync(KindAppointmentCompleted, generator.handleAppointmentCompleted),
	)
	return engine, nil
}

// Bus returns the bus the engine publishes on.
func (e *Engine) Bus() *bus.Bus {
	return e.bus
}

// Close removes the engine's subscriptions and drains in-flight async
// handlers.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	for _, unsubscribe := range e.unsubscribe {
		unsubscribe()
	}
	e.unsubscribe = nil
	e.bus.Wait()
}
