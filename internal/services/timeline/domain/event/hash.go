package event

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// envelope is the canonical hash input. Field order is fixed by the struct.
type envelope struct {
	ID          string          `json:"id"`
	RecordID    string          `json:"clinical_record_id"`
	Date        string          `json:"event_date"`
	Type        string          `json:"event_type"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	SourceKind  string          `json:"source_kind"`
	SourceID    string          `json:"source_id"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	CreatedAt   int64           `json:"created_at"`
}

// ContentHash returns the SHA-256 hex digest of the event's core fields.
// The stored hash must match on every load.
func ContentHash(evt Event) (string, error) {
	kind, id := SourceKey(evt.Source)
	env := envelope{
		ID:          evt.ID,
		RecordID:    evt.RecordID,
		Date:        evt.Date.String(),
		Type:        string(evt.Type),
		Title:       evt.Title,
		Description: evt.Description,
		SourceKind:  string(kind),
		SourceID:    id,
		CreatedAt:   evt.CreatedAt.UTC().Truncate(time.Millisecond).UnixMilli(),
	}
	if len(evt.PayloadJSON) > 0 {
		if !json.Valid(evt.PayloadJSON) {
			return "", fmt.Errorf("event %s payload is not valid json", evt.ID)
		}
		env.Payload = json.RawMessage(evt.PayloadJSON)
	}
	data, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("marshal hash envelope: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// VerifyHash recomputes the content hash and compares it to evt.Hash.
func VerifyHash(evt Event) error {
	want, err := ContentHash(evt)
	if err != nil {
		return err
	}
	if evt.Hash != want {
		return fmt.Errorf("event %s hash mismatch", evt.ID)
	}
	return nil
}
