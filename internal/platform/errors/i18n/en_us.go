package i18n

// Error codes must match the codes defined in internal/platform/errors/codes.go.
// These are duplicated as strings to avoid an import cycle.
var enUS = map[Code]string{
	"MISSING_EVENT_TIMESTAMP": "An event date is required.",
	"MISSING_EVENT_TYPE":      "An event type is required.",
	"MISSING_TITLE":           "A title is required.",
	"MISSING_CLINICAL_RECORD": "A clinical record is required.",
	"MISSING_CONTENT":         "Content is required.",
	"MISSING_PATIENT":         "A patient is required.",

	"INVALID_TIMESTAMP_FUTURE": "The event date {{.event_date}} is in the future.",
	"INVALID_EVENT_TYPE":       "{{.event_type}} is not a recognized event type.",
	"INVALID_DATE_RANGE":       "The start date must not be after the end date.",
	"INVALID_SOURCE_REFERENCE": "The event source reference is not valid.",

	"PATIENT_NOT_FOUND":         "Patient not found.",
	"CLINICAL_RECORD_NOT_FOUND": "Clinical record not found.",
	"NOTE_NOT_FOUND":            "Note not found.",
	"MEDICATION_NOT_FOUND":      "Medication not found.",
	"EVENT_NOT_FOUND":           "Timeline event not found.",
	"APPOINTMENT_NOT_FOUND":     "Appointment not found.",

	"NOTE_ALREADY_FINALIZED":                          "This note is finalized and can no longer change. Add an addendum instead.",
	"NOTE_NOT_FINALIZED":                              "Addenda can only be added to finalized notes.",
	"MEDICATION_ALREADY_DISCONTINUED":                 "This medication was already discontinued.",
	"MEDICATION_NOT_ACTIVE":                           "This medication was not active on {{.event_date}}.",
	"MEDICATION_NOT_ACTIVE_CANNOT_ISSUE_PRESCRIPTION": "Prescriptions can only be issued for active medications.",
	"APPOINTMENT_INVALID_TRANSITION":                  "This appointment is already {{.status}}.",

	"INVALID_STATE":      "The patient timeline is inconsistent and could not be reconstructed.",
	"SOURCE_UNAVAILABLE": "The record behind this event is unavailable.",
}
