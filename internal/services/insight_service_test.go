package services

import (
	"context"
	"strings"
	"testing"

	"aura/internal/models"
)

func TestStressFromScheduleSize(t *testing.T) {
	tests := []struct {
		planned  int
		expected models.StressLevel
	}{
		{0, models.StressLow},
		{1, models.StressLow},
		{2, models.StressLow},
		{3, models.StressModerate},
		{4, models.StressModerate},
		{5, models.StressHigh},
		{12, models.StressHigh},
	}

	for _, tt := range tests {
		if got := StressFromScheduleSize(tt.planned); got != tt.expected {
			t.Errorf("Expected %s for %d planned tasks, got %s", tt.expected, tt.planned, got)
		}
	}
}

func TestInsightReport(t *testing.T) {
	s := NewInsightService()

	items := []models.WorkItem{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	schedule := []models.ScheduleItem{
		{WorkItemID: "a"}, {WorkItemID: "b"}, {WorkItemID: "c"},
	}

	insight, err := s.Report(context.Background(), "subject-1", items, schedule, nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if insight.StressLevel != models.StressModerate {
		t.Errorf("Expected Moderate stress, got %s", insight.StressLevel)
	}
	if !strings.Contains(insight.SummaryText, "Total work items: 3") {
		t.Errorf("Expected summary to count 3 work items, got %q", insight.SummaryText)
	}
	if !strings.Contains(insight.SummaryText, "Tasks planned for today: 3") {
		t.Errorf("Expected summary to count 3 planned tasks, got %q", insight.SummaryText)
	}
	if !strings.Contains(insight.SummaryText, "Estimated stress level: Moderate") {
		t.Errorf("Expected summary to state stress level, got %q", insight.SummaryText)
	}
}

func TestInsightReportEmptyRun(t *testing.T) {
	s := NewInsightService()

	insight, err := s.Report(context.Background(), "subject-1", nil, nil, nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if insight.StressLevel != models.StressLow {
		t.Errorf("Expected Low stress for empty schedule, got %s", insight.StressLevel)
	}
}
