package event

import (
	"encoding/json"
	"fmt"
)

// MedicationPayload is carried by MedicationStart and MedicationChange.
type MedicationPayload struct {
	MedicationID string `json:"medication_id"`
	Name         string `json:"name"`
	Dosage       string `json:"dosage"`
	Unit         string `json:"unit,omitempty"`
	Frequency    string `json:"frequency"`
	Route        string `json:"route,omitempty"`
}

// MedicationStopPayload is carried by MedicationStop.
type MedicationStopPayload struct {
	MedicationID string `json:"medication_id"`
	Reason       string `json:"reason,omitempty"`
}

// HistoryPayload is the full psychiatric history snapshot carried by
// HistoryUpdate. It replaces the previous snapshot wholesale.
type HistoryPayload struct {
	HistoryID string            `json:"history_id"`
	Version   int               `json:"version"`
	Content   map[string]string `json:"content"`
}

// DecodePayload unmarshals evt's payload into P. An empty payload decodes
// to the zero value.
func DecodePayload[P any](evt Event) (P, error) {
	var payload P
	if len(evt.PayloadJSON) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
		return payload, fmt.Errorf("decode %s payload for event %s: %w", evt.Type, evt.ID, err)
	}
	return payload, nil
}
