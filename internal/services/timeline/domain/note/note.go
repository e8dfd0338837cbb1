// Package note holds the clinical note lifecycle: Draft, then Finalized,
// then amended only by append-only addenda.
package note

import (
	"strings"
	"time"
	"unicode/utf8"

	apperrors "github.com/louisbranch/mindchart/internal/platform/errors"
	"github.com/louisbranch/mindchart/internal/services/timeline/domain/event"
)

// Status is the note lifecycle state.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusFinalized Status = "finalized"
)

// ExcerptLength is the rune length of a note summary excerpt.
const ExcerptLength = 140

// Note is a clinical note. A finalized note is immutable.
type Note struct {
	ID          string
	RecordID    string
	Title       string
	Content     string
	Date        event.Date
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
	FinalizedAt *time.Time
}

// Addendum is an immutable amendment to a finalized note.
type Addendum struct {
	ID        string
	NoteID    string
	Content   string
	CreatedAt time.Time
}

// Finalized reports whether n no longer accepts edits.
func (n Note) Finalized() bool {
	return n.Status == StatusFinalized
}

// CheckDraft validates the editable fields of a draft.
func CheckDraft(title string) error {
	if strings.TrimSpace(title) == "" {
		return apperrors.New(apperrors.CodeMissingTitle, "note title is required")
	}
	return nil
}

// CheckEditable rejects updates, deletion and repeated finalization of a
// finalized note.
func CheckEditable(n Note) error {
	if n.Finalized() {
		return apperrors.WithMetadata(apperrors.CodeNoteAlreadyFinalized, "note is finalized", map[string]string{
			"note_id": n.ID,
		})
	}
	return nil
}

// CheckAddendum validates an addendum against its note.
func CheckAddendum(n Note, content string) error {
	if !n.Finalized() {
		return apperrors.WithMetadata(apperrors.CodeNoteNotFinalized, "addenda require a finalized note", map[string]string{
			"note_id": n.ID,
		})
	}
	if strings.TrimSpace(content) == "" {
		return apperrors.New(apperrors.CodeMissingContent, "addendum content is required")
	}
	return nil
}

// Finalize returns n locked at at.
func Finalize(n Note, at time.Time) Note {
	at = at.UTC()
	n.Status = StatusFinalized
	n.FinalizedAt = &at
	n.UpdatedAt = at
	return n
}

// FinalizedBy reports whether n was finalized at or before the end of
// cutoff in loc.
func FinalizedBy(finalizedAt *time.Time, cutoff event.Date, loc *time.Location) bool {
	if finalizedAt == nil {
		return false
	}
	if loc == nil {
		loc = time.UTC
	}
	return !event.DateOf(finalizedAt.In(loc)).After(cutoff)
}

// Excerpt returns the first ExcerptLength runes of content with whitespace
// collapsed.
func Excerpt(content string) string {
	collapsed := strings.Join(strings.Fields(content), " ")
	if utf8.RuneCountInString(collapsed) <= ExcerptLength {
		return collapsed
	}
	runes := []rune(collapsed)
	return strings.TrimSpace(string(runes[:ExcerptLength])) + "…"
}
