package event

import (
	"strings"

	apperrors "github.com/louisbranch/mindchart/internal/platform/errors"
)

// Type is the kind of clinical fact an event records.
type Type string

const (
	TypeEncounter        Type = "encounter"
	TypeMedicationStart  Type = "medication_start"
	TypeMedicationChange Type = "medication_change"
	TypeMedicationStop   Type = "medication_stop"
	TypeHospitalization  Type = "hospitalization"
	TypeLifeEvent        Type = "life_event"
	TypeHistoryUpdate    Type = "history_update"
	TypeOther            Type = "other"
)

// types lists every recognized type in priority order.
var types = []Type{
	TypeEncounter,
	TypeMedicationStart,
	TypeMedicationChange,
	TypeMedicationStop,
	TypeHospitalization,
	TypeLifeEvent,
	TypeHistoryUpdate,
	TypeOther,
}

// Types returns every recognized type, lowest priority number first.
func Types() []Type {
	return append([]Type(nil), types...)
}

// Priority is the same-day ordering rank of t: what happened (encounters)
// reads before what was decided (medication changes) before administrative
// and history entries. Lower sorts first. Unrecognized types rank last.
func (t Type) Priority() int {
	for i, known := range types {
		if known == t {
			return i + 1
		}
	}
	return len(types) + 1
}

// Valid reports whether t is a recognized type.
func (t Type) Valid() bool {
	return t.Priority() <= len(types)
}

// ParseType accepts the canonical snake_case name as well as the CamelCase
// spelling ("MedicationStart").
func ParseType(value string) (Type, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", apperrors.New(apperrors.CodeMissingEventType, "event type is required")
	}
	normalized := normalizeTypeName(value)
	for _, known := range types {
		if normalizeTypeName(string(known)) == normalized {
			return known, nil
		}
	}
	return "", invalidType(value)
}

func normalizeTypeName(value string) string {
	return strings.ToLower(strings.NewReplacer("_", "", "-", "", " ", "").Replace(value))
}

func invalidType(value string) error {
	return apperrors.WithMetadata(apperrors.CodeInvalidEventType, "unrecognized event type "+value, map[string]string{
		"event_type": value,
	})
}
