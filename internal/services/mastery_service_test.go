package services

import (
	"context"
	"errors"
	"testing"

	"aura/internal/models"
)

type stubHistory struct {
	items []models.WorkItem
	err   error
}

func (s *stubHistory) RecentWorkItems(ctx context.Context, subjectID string) ([]models.WorkItem, error) {
	return s.items, s.err
}

func TestRateCategories(t *testing.T) {
	items := []models.WorkItem{
		// Math: one late item marks the whole category
		{Category: "Math", Status: models.StatusSubmitted},
		{Category: "Math", Status: models.StatusLate},
		// Science: 2 of 3 done
		{Category: "Science", Status: models.StatusSubmitted},
		{Category: "Science", Status: models.StatusReturned},
		{Category: "Science", Status: models.StatusPublished},
		// ELA: 1 of 3 done
		{Category: "ELA", Status: models.StatusSubmitted},
		{Category: "ELA", Status: models.StatusPublished},
		{Category: "ELA", Status: models.StatusDraft},
	}

	profile := RateCategories(items)

	tests := []struct {
		category string
		expected models.SkillLevel
	}{
		{"Math", models.SkillNeedsSupport},
		{"Science", models.SkillStrong},
		{"ELA", models.SkillOnTrack},
	}
	for _, tt := range tests {
		if got := profile.Level(tt.category); got != tt.expected {
			t.Errorf("Expected %s to be %s, got %s", tt.category, tt.expected, got)
		}
	}
}

func TestRateCategoriesExactlyHalfDone(t *testing.T) {
	items := []models.WorkItem{
		{Category: "Math", Status: models.StatusSubmitted},
		{Category: "Math", Status: models.StatusPublished},
	}

	profile := RateCategories(items)

	if got := profile.Level("Math"); got != models.SkillStrong {
		t.Errorf("Expected strong at exactly half done, got %s", got)
	}
}

func TestAnalyzeDegradesToDefault(t *testing.T) {
	tests := []struct {
		name    string
		history *stubHistory
	}{
		{"history read fails", &stubHistory{err: errors.New("store down")}},
		{"no history yet", &stubHistory{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewMasteryService(tt.history)

			profile, err := s.Analyze(context.Background(), "subject-1")
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}

			expected := DefaultSkillProfile()
			if len(profile) != len(expected) {
				t.Fatalf("Expected default profile with %d categories, got %d", len(expected), len(profile))
			}
			for category, level := range expected {
				if profile[category] != level {
					t.Errorf("Expected %s to be %s, got %s", category, level, profile[category])
				}
			}
		})
	}
}

func TestAnalyzeUsesHistory(t *testing.T) {
	s := NewMasteryService(&stubHistory{items: []models.WorkItem{
		{Category: "Math", Status: models.StatusLate},
	}})

	profile, err := s.Analyze(context.Background(), "subject-1")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got := profile.Level("Math"); got != models.SkillNeedsSupport {
		t.Errorf("Expected needs_support from late history, got %s", got)
	}
	if got := profile.Level("ELA"); got != models.SkillUnknown {
		t.Errorf("Expected unknown for unrated category, got %s", got)
	}
}
