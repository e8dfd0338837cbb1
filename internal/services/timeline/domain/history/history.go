// Package history holds versioned psychiatric history. Every update is a
// complete snapshot that replaces the previous one.
package history

import (
	"maps"
	"strings"
	"time"

	apperrors "github.com/louisbranch/mindchart/internal/platform/errors"
	"github.com/louisbranch/mindchart/internal/services/timeline/domain/event"
)

// History is one version of a record's psychiatric history.
type History struct {
	ID        string
	RecordID  string
	Version   int
	Content   map[string]string
	Date      event.Date
	CreatedAt time.Time
}

// Normalize trims keys and values and drops blank entries.
func Normalize(content map[string]string) map[string]string {
	out := make(map[string]string, len(content))
	for key, value := range content {
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}
	return out
}

// CheckContent rejects an update with nothing in it.
func CheckContent(content map[string]string) error {
	if len(Normalize(content)) == 0 {
		return apperrors.New(apperrors.CodeMissingContent, "psychiatric history content is required")
	}
	return nil
}

// NextVersion returns the version following latest, or 1 for the first.
func NextVersion(latest *History) int {
	if latest == nil {
		return 1
	}
	return latest.Version + 1
}

// Payload returns the snapshot carried by the HistoryUpdate event.
func (h History) Payload() event.HistoryPayload {
	return event.HistoryPayload{
		HistoryID: h.ID,
		Version:   h.Version,
		Content:   maps.Clone(h.Content),
	}
}
