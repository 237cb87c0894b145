package services

import (
	"time"

	"aura/internal/models"
)

// ComputeFreeSlots walks the work window [windowStart, windowEnd) in
// granularity-sized steps and returns every sub-interval that does not overlap
// a blocking busy interval. Slots are exactly one granularity unit long.
//
// If now is already at or past the window end the result is empty. If now is
// inside the window the walk starts at the next granularity boundary at or
// after now. Overlap is half-open with strict inequalities on both ends, so a
// busy interval that merely touches a slot boundary does not exclude it.
//
// O(slots × busy) — both are small (tens at most) so no sweep is needed.
func ComputeFreeSlots(now, windowStart, windowEnd time.Time, granularity time.Duration, busy []models.BusyInterval) []models.TimeSlot {
	if granularity <= 0 || !now.Before(windowEnd) {
		return nil
	}

	start := windowStart
	if now.After(start) {
		start = roundUp(now, granularity)
	}

	var slots []models.TimeSlot
	for cur := start; !cur.Add(granularity).After(windowEnd); cur = cur.Add(granularity) {
		end := cur.Add(granularity)
		if blocked(cur, end, busy) {
			continue
		}
		slots = append(slots, models.TimeSlot{Start: cur, End: end})
	}
	return slots
}

func blocked(start, end time.Time, busy []models.BusyInterval) bool {
	for _, b := range busy {
		if b.Blocks(start, end) {
			return true
		}
	}
	return false
}

// roundUp advances t to the next granularity boundary, leaving it unchanged
// if it is already on one.
func roundUp(t time.Time, granularity time.Duration) time.Time {
	rounded := t.Truncate(granularity)
	if rounded.Before(t) {
		rounded = rounded.Add(granularity)
	}
	return rounded
}
