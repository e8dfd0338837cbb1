package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Missing data
	CodeMissingEventTimestamp Code = "MISSING_EVENT_TIMESTAMP"
	CodeMissingEventType      Code = "MISSING_EVENT_TYPE"
	CodeMissingTitle          Code = "MISSING_TITLE"
	CodeMissingClinicalRecord Code = "MISSING_CLINICAL_RECORD"
	CodeMissingContent        Code = "MISSING_CONTENT"
	CodeMissingPatient        Code = "MISSING_PATIENT"

	// Invalid data
	CodeInvalidTimestampFuture Code = "INVALID_TIMESTAMP_FUTURE"
	CodeInvalidEventType       Code = "INVALID_EVENT_TYPE"
	CodeInvalidDateRange       Code = "INVALID_DATE_RANGE"
	CodeInvalidSourceReference Code = "INVALID_SOURCE_REFERENCE"

	// Not found
	CodePatientNotFound        Code = "PATIENT_NOT_FOUND"
	CodeClinicalRecordNotFound Code = "CLINICAL_RECORD_NOT_FOUND"
	CodeNoteNotFound           Code = "NOTE_NOT_FOUND"
	CodeMedicationNotFound     Code = "MEDICATION_NOT_FOUND"
	CodeEventNotFound          Code = "EVENT_NOT_FOUND"
	CodeAppointmentNotFound    Code = "APPOINTMENT_NOT_FOUND"

	// Lifecycle state
	CodeNoteAlreadyFinalized               Code = "NOTE_ALREADY_FINALIZED"
	CodeNoteNotFinalized                   Code = "NOTE_NOT_FINALIZED"
	CodeMedicationAlreadyDiscontinued      Code = "MEDICATION_ALREADY_DISCONTINUED"
	CodeMedicationNotActive                Code = "MEDICATION_NOT_ACTIVE"
	CodeMedicationNotActiveCannotPrescribe Code = "MEDICATION_NOT_ACTIVE_CANNOT_ISSUE_PRESCRIPTION"
	CodeAppointmentInvalidTransition       Code = "APPOINTMENT_INVALID_TRANSITION"

	// Reconstruction
	CodeInvalidState Code = "INVALID_STATE"

	// Source resolution
	CodeSourceUnavailable Code = "SOURCE_UNAVAILABLE"
)

// Category groups codes the way callers report them.
type Category string

const (
	CategoryMissingData    Category = "missing-data"
	CategoryInvalidData    Category = "invalid-data"
	CategoryNotFound       Category = "not-found"
	CategoryState          Category = "state"
	CategoryReconstruction Category = "reconstruction"
	CategorySource         Category = "source"
	CategoryUnknown        Category = "unknown"
)

// Category returns the reporting category for the code.
func (c Code) Category() Category {
	switch c {
	case CodeMissingEventTimestamp,
		CodeMissingEventType,
		CodeMissingTitle,
		CodeMissingClinicalRecord,
		CodeMissingContent,
		CodeMissingPatient:
		return CategoryMissingData
	case CodeInvalidTimestampFuture,
		CodeInvalidEventType,
		CodeInvalidDateRange,
		CodeInvalidSourceReference:
		return CategoryInvalidData
	case CodePatientNotFound,
		CodeClinicalRecordNotFound,
		CodeNoteNotFound,
		CodeMedicationNotFound,
		CodeEventNotFound,
		CodeAppointmentNotFound:
		return CategoryNotFound
	case CodeNoteAlreadyFinalized,
		CodeNoteNotFinalized,
		CodeMedicationAlreadyDiscontinued,
		CodeMedicationNotActive,
		CodeMedicationNotActiveCannotPrescribe,
		CodeAppointmentInvalidTransition:
		return CategoryState
	case CodeInvalidState:
		return CategoryReconstruction
	case CodeSourceUnavailable:
		return CategorySource
	default:
		return CategoryUnknown
	}
}

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c.Category() {
	// InvalidArgument - validation failures, bad input
	case CategoryMissingData, CategoryInvalidData:
		return codes.InvalidArgument
	// NotFound - resource doesn't exist
	case CategoryNotFound:
		return codes.NotFound
	// FailedPrecondition - lifecycle doesn't allow operation
	case CategoryState:
		return codes.FailedPrecondition
	// DataLoss - the log or its references are inconsistent
	case CategoryReconstruction, CategorySource:
		return codes.DataLoss
	default:
		return codes.Internal
	}
}
