package services

import (
	"testing"
	"time"
)

func TestParseCalendarEvents(t *testing.T) {
	body := []byte(`{
		"items": [
			{
				"start": {"dateTime": "2025-03-10T17:00:00Z"},
				"end": {"dateTime": "2025-03-10T18:00:00Z"}
			},
			{
				"start": {"date": "2025-03-10"},
				"end": {"date": "2025-03-11"}
			},
			{
				"start": {"dateTime": "2025-03-10T19:00:00Z"},
				"end": {"dateTime": "2025-03-10T20:00:00Z"},
				"transparency": "transparent"
			},
			{
				"start": {"dateTime": "2025-03-10T12:00:00Z"},
				"end": {"dateTime": "2025-03-10T13:00:00Z"},
				"status": "cancelled"
			},
			{
				"start": {}, "end": {}
			}
		]
	}`)

	intervals, err := ParseCalendarEvents(body)
	if err != nil {
		t.Fatalf("ParseCalendarEvents failed: %v", err)
	}
	if len(intervals) != 3 {
		t.Fatalf("Expected 3 intervals (cancelled and empty dropped), got %d", len(intervals))
	}

	timed := intervals[0]
	if timed.AllDay || timed.Transparent {
		t.Errorf("Expected plain timed interval, got %+v", timed)
	}
	if !timed.Start.Equal(time.Date(2025, 3, 10, 17, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected 17:00 start, got %v", timed.Start)
	}
	if !timed.End.Equal(time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected 18:00 end, got %v", timed.End)
	}

	allDay := intervals[1]
	if !allDay.AllDay {
		t.Errorf("Expected all-day interval, got %+v", allDay)
	}
	y, m, d := allDay.Start.Date()
	if y != 2025 || m != time.March || d != 10 {
		t.Errorf("Expected all-day start on 2025-03-10, got %v", allDay.Start)
	}
	if !allDay.End.Equal(allDay.Start.AddDate(0, 0, 1)) {
		t.Errorf("Expected all-day end one day after start, got %v", allDay.End)
	}

	transparent := intervals[2]
	if !transparent.Transparent {
		t.Errorf("Expected transparent interval, got %+v", transparent)
	}
}

func TestParseCalendarEventsMalformed(t *testing.T) {
	if _, err := ParseCalendarEvents([]byte(`not json`)); err == nil {
		t.Error("Expected error for malformed payload")
	}
}

func TestParseCalendarEventsEmpty(t *testing.T) {
	intervals, err := ParseCalendarEvents([]byte(`{}`))
	if err != nil {
		t.Fatalf("ParseCalendarEvents failed: %v", err)
	}
	if len(intervals) != 0 {
		t.Errorf("Expected no intervals, got %d", len(intervals))
	}
}
