package event

import "time"

// Event is an immutable clinical fact on a patient's timeline.
type Event struct {
	ID          string
	RecordID    string
	Date        Date
	Type        Type
	Title       string
	Description string
	Source      Source
	// PayloadJSON carries the structured data replay needs for the type.
	PayloadJSON []byte
	Hash        string
	// CreatedAt is the insertion time. It is only ever used as a final
	// same-day tie-break.
	CreatedAt time.Time
}

// SourceKind returns the persisted kind of the event's source pointer.
func (e Event) SourceKind() SourceKind {
	kind, _ := SourceKey(e.Source)
	return kind
}

// SourceID returns the id of the record the event points at, or "".
func (e Event) SourceID() string {
	_, id := SourceKey(e.Source)
	return id
}

// Freestanding reports whether the event has no source pointer.
func (e Event) Freestanding() bool {
	return e.Source == nil
}
