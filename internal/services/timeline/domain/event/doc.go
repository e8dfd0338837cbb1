// Package event defines the clinical event envelope appended to a patient's
// timeline and the validation every append goes through.
//
// Events are immutable facts. Once stored, the date, type and source pointer
// of an event never change; only the source record it points at may evolve
// (a note moving from draft to finalized, for example). Validation runs
// before persistence assigns id, insertion time and content hash, so a
// rejected input never leaves a partial record behind.
package event
