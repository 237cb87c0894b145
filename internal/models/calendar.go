package models

import (
	"fmt"
	"time"
)

// BusyInterval is a time range during which the subject is unavailable.
type BusyInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`

	// AllDay intervals carry a date only; one matching "today" blocks the
	// entire work window.
	AllDay bool `json:"all_day"`

	// Transparent intervals are explicitly marked non-blocking by the
	// calendar source and never exclude a slot.
	Transparent bool `json:"transparent"`
}

// Blocks reports whether the interval excludes the half-open candidate range
// [start, end). Overlap is strict on both ends, so an interval that merely
// touches a candidate boundary does not block it.
func (b BusyInterval) Blocks(start, end time.Time) bool {
	if b.Transparent {
		return false
	}
	if b.AllDay {
		y1, m1, d1 := b.Start.Date()
		y2, m2, d2 := start.Date()
		return y1 == y2 && m1 == m2 && d1 == d2
	}
	return start.Before(b.End) && end.After(b.Start)
}

// Label renders the interval for the checkpoint document's label list.
func (b BusyInterval) Label() string {
	if b.AllDay {
		return b.Start.Format("2006-01-02") + " (all day)"
	}
	return fmt.Sprintf("%s–%s", b.Start.Format("3:04"), b.End.Format("3:04 PM"))
}
