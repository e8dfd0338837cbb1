// Package ordering defines the total order of timeline events.
//
// Events sort by date in the requested direction. Same-day events sort by
// type priority and then insertion time, both ascending regardless of
// direction, so a descending timeline still reads an encounter before the
// medication change decided during it. The event id is the last tie-break
// and makes the order total.
package ordering

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/louisbranch/mindchart/internal/services/timeline/domain/event"
)

// Direction is the date traversal direction.
type Direction string

const (
	Ascending  Direction = "ascending"
	Descending Direction = "descending"
)

// ParseDirection resolves a direction name. Empty defaults to ascending.
func ParseDirection(value string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "asc", string(Ascending):
		return Ascending, nil
	case "desc", string(Descending):
		return Descending, nil
	default:
		return "", fmt.Errorf("unknown sort direction %q", value)
	}
}

// Compare orders a before b in direction.
func Compare(a, b event.Event, direction Direction) int {
	if c := a.Date.Compare(b.Date); c != 0 {
		if direction == Descending {
			return -c
		}
		return c
	}
	if c := cmp.Compare(a.Type.Priority(), b.Type.Priority()); c != 0 {
		return c
	}
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// Sort orders events in place.
func Sort(events []event.Event, direction Direction) {
	slices.SortStableFunc(events, func(a, b event.Event) int {
		return Compare(a, b, direction)
	})
}

// Sorted returns an ordered copy of events.
func Sorted(events []event.Event, direction Direction) []event.Event {
	out := slices.Clone(events)
	Sort(out, direction)
	return out
}
