package event

import (
	"strings"

	apperrors "github.com/louisbranch/mindchart/internal/platform/errors"
)

// SourceKind names the record kind an event points at.
type SourceKind string

const (
	SourceKindNone        SourceKind = ""
	SourceKindNote        SourceKind = "note"
	SourceKindMedication  SourceKind = "medication"
	SourceKindHistory     SourceKind = "psychiatric_history"
	SourceKindAppointment SourceKind = "appointment"
)

// Source is the non-owning pointer from an event to the record that caused
// it. Exactly one concrete type exists per kind; a nil Source marks a
// freestanding event.
type Source interface {
	Kind() SourceKind
	ID() string
	isSource()
}

// NoteSource points at a clinical note.
type NoteSource struct{ NoteID string }

// MedicationSource points at a medication.
type MedicationSource struct{ MedicationID string }

// HistorySource points at a psychiatric history version.
type HistorySource struct{ HistoryID string }

// AppointmentSource points at an appointment.
type AppointmentSource struct{ AppointmentID string }

func (NoteSource) Kind() SourceKind        { return SourceKindNote }
func (MedicationSource) Kind() SourceKind  { return SourceKindMedication }
func (HistorySource) Kind() SourceKind     { return SourceKindHistory }
func (AppointmentSource) Kind() SourceKind { return SourceKindAppointment }

func (s NoteSource) ID() string        { return s.NoteID }
func (s MedicationSource) ID() string  { return s.MedicationID }
func (s HistorySource) ID() string     { return s.HistoryID }
func (s AppointmentSource) ID() string { return s.AppointmentID }

func (NoteSource) isSource()        {}
func (MedicationSource) isSource()  {}
func (HistorySource) isSource()     {}
func (AppointmentSource) isSource() {}

// SourceKey flattens src into its persisted (kind, id) pair.
func SourceKey(src Source) (SourceKind, string) {
	if src == nil {
		return SourceKindNone, ""
	}
	return src.Kind(), src.ID()
}

// ParseSourceKind resolves a persisted kind name.
func ParseSourceKind(value string) (SourceKind, error) {
	switch kind := SourceKind(strings.TrimSpace(value)); kind {
	case SourceKindNone, SourceKindNote, SourceKindMedication, SourceKindHistory, SourceKindAppointment:
		return kind, nil
	default:
		return "", invalidSource("unknown source kind " + value)
	}
}

// ParseSource rebuilds a Source from a raw (kind, id) pair. Both empty
// yields a nil Source; either one alone, or an unknown kind, is an invalid
// reference.
func ParseSource(kind, id string) (Source, error) {
	kind = strings.TrimSpace(kind)
	id = strings.TrimSpace(id)
	if kind == "" && id == "" {
		return nil, nil
	}
	if kind == "" || id == "" {
		return nil, invalidSource("source kind and id must be set together")
	}
	parsed, err := ParseSourceKind(kind)
	if err != nil {
		return nil, err
	}
	switch parsed {
	case SourceKindNote:
		return NoteSource{NoteID: id}, nil
	case SourceKindMedication:
		return MedicationSource{MedicationID: id}, nil
	case SourceKindHistory:
		return HistorySource{HistoryID: id}, nil
	case SourceKindAppointment:
		return AppointmentSource{AppointmentID: id}, nil
	default:
		return nil, invalidSource("unknown source kind " + kind)
	}
}

// SameSource reports whether a and b point at the same record.
func SameSource(a, b Source) bool {
	ak, aid := SourceKey(a)
	bk, bid := SourceKey(b)
	return ak == bk && aid == bid
}

func invalidSource(message string) error {
	return apperrors.New(apperrors.CodeInvalidSourceReference, message)
}
