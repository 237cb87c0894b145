package services

import (
	"context"
	"log/slog"
	"time"

	"aura/internal/config"
	"aura/internal/models"
)

// BusySource is the calendar collaborator boundary. Implemented by
// CalendarClient; tests substitute a stub.
type BusySource interface {
	BusyIntervals(ctx context.Context, subjectID string, dayStart, dayEnd time.Time) ([]models.BusyInterval, error)
}

// PlannerService is the Plan stage executor: it computes today's free slots,
// reorders the work items, and pairs them positionally. Slot i goes to
// prioritized item i; items beyond the slot count stay in the reordered list
// but are not scheduled.
type PlannerService struct {
	cfg       *config.Config
	calendar  BusySource
	reorderer *PriorityReorderer
	now       func() time.Time
}

// NewPlannerService creates the plan stage executor.
func NewPlannerService(cfg *config.Config, calendar BusySource, reorderer *PriorityReorderer) *PlannerService {
	return &PlannerService{
		cfg:       cfg,
		calendar:  calendar,
		reorderer: reorderer,
		now:       time.Now,
	}
}

// SetClock overrides the planner's clock. Tests use this to pin "today".
func (p *PlannerService) SetClock(now func() time.Time) {
	p.now = now
}

// Plan builds the day's schedule. It returns the schedule, the full reordered
// item list, and the busy intervals the slots were computed against.
func (p *PlannerService) Plan(ctx context.Context, subjectID string, items []models.WorkItem, profile models.SkillProfile) ([]models.ScheduleItem, []models.WorkItem, []models.BusyInterval, error) {
	now := p.now()
	windowStart, windowEnd := p.cfg.WorkWindow(now)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	busy, err := p.calendar.BusyIntervals(ctx, subjectID, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		// A broken calendar degrades to an unconstrained window.
		slog.Warn("calendar source failed, planning without busy intervals",
			"subject_id", subjectID, "error", err)
		busy = nil
	}

	slots := ComputeFreeSlots(now, windowStart, windowEnd, p.cfg.SlotGranularity, busy)
	reordered := p.reorderer.Reorder(ctx, items, busy)

	schedule := make([]models.ScheduleItem, 0, len(slots))
	for i, item := range reordered {
		if i >= len(slots) {
			break
		}
		schedule = append(schedule, models.ScheduleItem{
			Slot:          slots[i].Label(),
			WorkItemID:    item.ID,
			Title:         item.Title,
			Category:      item.Category,
			DifficultyTag: profile.Level(item.Category),
			Due:           item.Due,
			Status:        item.Status,
		})
	}

	return schedule, reordered, busy, nil
}
