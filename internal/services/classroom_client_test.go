package services

import (
	"testing"
	"time"

	"aura/internal/models"
)

func TestParseCourseWork(t *testing.T) {
	body := []byte(`{
		"courseWork": [
			{
				"id": "cw1",
				"title": "Fractions worksheet",
				"state": "PUBLISHED",
				"dueDate": {"year": 2025, "month": 3, "day": 14},
				"dueTime": {"hours": 17, "minutes": 30}
			},
			{
				"id": "cw2",
				"title": "Reading log",
				"description": "Chapters 4-6",
				"state": "TURNED_IN",
				"dueDate": {"year": 2025, "month": 3, "day": 15}
			},
			{
				"id": "cw3",
				"title": "Extra credit",
				"state": "SOMETHING_NEW"
			}
		]
	}`)

	items, err := ParseCourseWork("Math", "course-1", body)
	if err != nil {
		t.Fatalf("ParseCourseWork failed: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("Expected 3 items, got %d", len(items))
	}

	first := items[0]
	if first.ID != "cw1" || first.Category != "Math" || first.OwningGroupID != "course-1" {
		t.Errorf("Expected course fields carried over, got %+v", first)
	}
	if first.Status != models.StatusPublished {
		t.Errorf("Expected PUBLISHED, got %s", first.Status)
	}
	expectedDue := time.Date(2025, 3, 14, 17, 30, 0, 0, time.UTC)
	if first.Due == nil || !first.Due.Equal(expectedDue) {
		t.Errorf("Expected due %v, got %v", expectedDue, first.Due)
	}

	// Date without time-of-day defaults to end of day
	second := items[1]
	if second.Status != models.StatusSubmitted {
		t.Errorf("Expected TURNED_IN normalized to SUBMITTED, got %s", second.Status)
	}
	if second.Notes != "Chapters 4-6" {
		t.Errorf("Expected description carried into notes, got %q", second.Notes)
	}
	endOfDay := time.Date(2025, 3, 15, 23, 59, 0, 0, time.UTC)
	if second.Due == nil || !second.Due.Equal(endOfDay) {
		t.Errorf("Expected due %v, got %v", endOfDay, second.Due)
	}

	// Unknown states and missing due dates never fail the parse
	third := items[2]
	if third.Status != models.StatusUnknown {
		t.Errorf("Expected unrecognized state mapped to UNKNOWN, got %s", third.Status)
	}
	if third.Due != nil {
		t.Errorf("Expected no due date, got %v", third.Due)
	}
}

func TestParseCourseWorkEmpty(t *testing.T) {
	items, err := ParseCourseWork("Math", "course-1", []byte(`{}`))
	if err != nil {
		t.Fatalf("ParseCourseWork failed: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("Expected no items, got %d", len(items))
	}
}

func TestParseCourseWorkMalformed(t *testing.T) {
	if _, err := ParseCourseWork("Math", "course-1", []byte(`not json`)); err == nil {
		t.Error("Expected error for malformed payload")
	}
}
