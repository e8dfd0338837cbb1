package event

import (
	"encoding/json"
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/mindchart/internal/platform/errors"
)

// Input is a proposed event before persistence assigns identity.
type Input struct {
	RecordID    string
	Date        Date
	Type        Type
	Title       string
	Description string
	Source      Source
	// Payload is marshaled to JSON when non-nil.
	Payload any
}

// New validates in and returns the event to persist. Checks run in a fixed
// order and the first failure wins: record, date, type, title, future date,
// source pointer. today is the current date in the engine location.
func New(in Input, today Date) (Event, error) {
	recordID := strings.TrimSpace(in.RecordID)
	if recordID == "" {
		return Event{}, apperrors.New(apperrors.CodeMissingClinicalRecord, "clinical record id is required")
	}
	if in.Date.IsZero() {
		return Event{}, apperrors.New(apperrors.CodeMissingEventTimestamp, "event date is required")
	}
	if strings.TrimSpace(string(in.Type)) == "" {
		return Event{}, apperrors.New(apperrors.CodeMissingEventType, "event type is required")
	}
	if !in.Type.Valid() {
		return Event{}, invalidType(string(in.Type))
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Event{}, apperrors.New(apperrors.CodeMissingTitle, "event title is required")
	}
	if in.Date.After(today) {
		return Event{}, apperrors.WithMetadata(apperrors.CodeInvalidTimestampFuture, "event date is in the future", map[string]string{
			"event_date": in.Date.String(),
			"today":      today.String(),
		})
	}
	if err := validateSource(in.Source); err != nil {
		return Event{}, err
	}

	var payload []byte
	if in.Payload != nil {
		data, err := json.Marshal(in.Payload)
		if err != nil {
			return Event{}, fmt.Errorf("marshal %s payload: %w", in.Type, err)
		}
		payload = data
	}

	return Event{
		RecordID:    recordID,
		Date:        in.Date,
		Type:        in.Type,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Source:      in.Source,
		PayloadJSON: payload,
	}, nil
}

func validateSource(src Source) error {
	if src == nil {
		return nil
	}
	if strings.TrimSpace(src.ID()) == "" {
		return apperrors.WithMetadata(apperrors.CodeInvalidSourceReference, "source id is required", map[string]string{
			"source_kind": string(src.Kind()),
		})
	}
	return nil
}
