package app

import (
	apperrors "github.com/louisbranch/mindchart/internal/platform/errors"
	"github.com/louisbranch/mindchart/internal/services/timeline/domain/event"
	"go.opentelemetry.io/otel/attribute"
)

func patientAttr(patientID string) attribute.KeyValue {
	return attribute.String("mindchart.patient_id", patientID)
}

func recordAttr(recordID string) attribute.KeyValue {
	return attribute.String("mindchart.clinical_record_id", recordID)
}

func eventAttr(eventID string) attribute.KeyValue {
	return attribute.String("mindchart.event_id", eventID)
}

func cutoffAttr(cutoff event.Date) attribute.KeyValue {
	return attribute.String("mindchart.cutoff", cutoff.String())
}

func countAttr(name string, n int) attribute.KeyValue {
	return attribute.Int("mindchart."+name, n)
}

func errorCodeAttr(code apperrors.Code) attribute.KeyValue {
	return attribute.String("mindchart.error_code", string(code))
}
