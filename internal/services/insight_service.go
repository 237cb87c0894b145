package services

import (
	"context"
	"fmt"

	"aura/internal/models"
)

// InsightService is the Report stage executor. The stress level is a
// deliberately simple count heuristic over the planned schedule, not a model.
type InsightService struct{}

// NewInsightService creates the report stage executor.
func NewInsightService() *InsightService {
	return &InsightService{}
}

// Report summarizes the run for the subject's guardian.
func (s *InsightService) Report(ctx context.Context, subjectID string, items []models.WorkItem, schedule []models.ScheduleItem, profile models.SkillProfile) (*models.Insight, error) {
	stress := StressFromScheduleSize(len(schedule))

	summary := fmt.Sprintf("Total work items: %d\nTasks planned for today: %d\nEstimated stress level: %s",
		len(items), len(schedule), stress)

	return &models.Insight{
		SummaryText: summary,
		StressLevel: stress,
	}, nil
}

// StressFromScheduleSize maps a planned-task count to a stress level:
// at most 2 is Low, at most 4 is Moderate, anything more is High.
func StressFromScheduleSize(planned int) models.StressLevel {
	switch {
	case planned <= 2:
		return models.StressLow
	case planned <= 4:
		return models.StressModerate
	default:
		return models.StressHigh
	}
}
