// Package storage defines persistence contracts for the timeline engine.
//
// Implementations (e.g., SQLite) live in subpackages. They own the schema
// and the integrity checks on stored events; the domain rules live in the
// app layer.
//
// Common error types:
//   - ErrNotFound: requested record is missing
//   - ErrDuplicateEvent: a uniqueness constraint rejected an append
//   - ErrImmutable: a storage guard rejected a mutation of an immutable row
//   - ErrIntegrity: a stored event no longer matches its content hash
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/louisbranch/mindchart/internal/services/timeline/domain/appointment"
	"github.com/louisbranch/mindchart/internal/services/timeline/domain/event"
	"github.com/louisbranch/mindchart/internal/services/timeline/domain/history"
	"github.com/louisbranch/mindchart/internal/services/timeline/domain/medication"
	"github.com/louisbranch/mindchart/internal/services/timeline/domain/note"
)

var (
	// ErrNotFound indicates a requested persistence record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEvent indicates a uniqueness constraint rejected an append.
	// Encounter backfill treats it as success.
	ErrDuplicateEvent = errors.New("duplicate event")
	// ErrDuplicateRecord indicates the patient already has a clinical record.
	ErrDuplicateRecord = errors.New("duplicate clinical record")
	// ErrImmutable indicates a storage guard rejected an update or delete.
	ErrImmutable = errors.New("row is immutable")
	// ErrIntegrity indicates a stored event failed hash verification.
	ErrIntegrity = errors.New("event integrity check failed")
)

// ClinicalRecord is a patient's clinical record. One exists per patient.
type ClinicalRecord struct {
	ID        string
	PatientID string
	CreatedAt time.Time
}

// EventFilter restricts ListEvents. Zero fields do not filter.
type EventFilter struct {
	Types []event.Type
	// From and To are inclusive.
	From       event.Date
	To         event.Date
	SourceKind event.SourceKind
}

// RecordStore persists clinical records.
type RecordStore interface {
	// CreateRecord returns ErrDuplicateRecord when the patient has a record.
	CreateRecord(ctx context.Context, rec ClinicalRecord) error
	GetRecord(ctx context.Context, recordID string) (ClinicalRecord, error)
	GetRecordByPatient(ctx context.Context, patientID string) (ClinicalRecord, error)
}

// EventStore persists the append-only clinical event log.
type EventStore interface {
	// AppendEvent stores evt, assigning id, insertion time and content hash.
	// It returns ErrDuplicateEvent when a uniqueness constraint rejects it.
	AppendEvent(ctx context.Context, evt event.Event) (event.Event, error)
	// GetEvent returns ErrNotFound when absent.
	GetEvent(ctx context.Context, eventID string) (event.Event, error)
	// ListEvents returns a record's events matching filter in one query.
	ListEvents(ctx context.Context, recordID string, filter EventFilter) ([]event.Event, error)
	// FindEventBySource returns the first event of typ pointing at src.
	FindEventBySource(ctx context.Context, recordID string, typ event.Type, src event.Source) (event.Event, error)
	// DeleteEventsBySource removes every event pointing at src and reports
	// how many were removed. Storage only permits it for draft notes.
	DeleteEventsBySource(ctx context.Context, recordID string, src event.Source) (int, error)
}

// NoteStore persists notes and their addenda.
type NoteStore interface {
	PutNote(ctx context.Context, n note.Note) error
	GetNote(ctx context.Context, noteID string) (note.Note, error)
	DeleteNote(ctx context.Context, noteID string) error
	ListNotes(ctx context.Context, recordID string) ([]note.Note, error)
	AddAddendum(ctx context.Context, a note.Addendum) error
	// ListAddenda returns a note's addenda oldest first.
	ListAddenda(ctx context.Context, noteID string) ([]note.Addendum, error)
	ListAddendaByRecord(ctx context.Context, recordID string) ([]note.Addendum, error)
}

// MedicationStore persists medications and prescriptions.
type MedicationStore interface {
	PutMedication(ctx context.Context, m medication.Medication) error
	GetMedication(ctx context.Context, medicationID string) (medication.Medication, error)
	ListMedications(ctx context.Context, recordID string) ([]medication.Medication, error)
	PutPrescription(ctx context.Context, p medication.Prescription) error
	ListPrescriptions(ctx context.Context, medicationID string) ([]medication.Prescription, error)
}

// AppointmentStore persists appointments.
type AppointmentStore interface {
	PutAppointment(ctx context.Context, a appointment.Appointment) error
	GetAppointment(ctx context.Context, appointmentID string) (appointment.Appointment, error)
	// ListAppointments returns a record's appointments, restricted to status
	// when it is non-empty.
	ListAppointments(ctx context.Context, recordID string, status appointment.Status) ([]appointment.Appointment, error)
	// ClearAppointmentNote unlinks a note from every appointment.
	ClearAppointmentNote(ctx context.Context, noteID string) error
}

// HistoryStore persists psychiatric history versions.
type HistoryStore interface {
	PutHistory(ctx context.Context, h history.History) error
	GetHistory(ctx context.Context, historyID string) (history.History, error)
	// LatestHistory returns ErrNotFound when the record has no history.
	LatestHistory(ctx context.Context, recordID string) (history.History, error)
}

// Store is the full persistence surface used by the timeline engine.
type Store interface {
	RecordStore
	EventStore
	NoteStore
	MedicationStore
	AppointmentStore
	HistoryStore
	// InTx runs fn against a store bound to one transaction, committing when
	// fn returns nil. Nested calls join the outer transaction.
	InTx(ctx context.Context, fn func(Store) error) error
}
