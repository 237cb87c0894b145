package models

import (
	"testing"
	"time"
)

func TestParseStage(t *testing.T) {
	tests := []struct {
		raw      string
		expected PipelineStage
	}{
		{"IDLE", StageIdle},
		{"SYNCING", StageSyncing},
		{"ANALYZING", StageAnalyzing},
		{"PLANNING", StagePlanning},
		{"REPORTING", StageReporting},
		{"COMPLETED", StageCompleted},
		{"PAUSED", StagePaused},
		{"FAILED", StageFailed},
		{"", StageIdle},
		{"garbage", StageIdle},
		{"syncing", StageIdle}, // case-sensitive on purpose
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := ParseStage(tt.raw); got != tt.expected {
				t.Errorf("Expected %s for %q, got %s", tt.expected, tt.raw, got)
			}
		})
	}
}

func TestStageTerminal(t *testing.T) {
	terminal := []PipelineStage{StageCompleted, StageFailed}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("Expected %s to be terminal", s)
		}
	}

	nonTerminal := []PipelineStage{StageIdle, StageSyncing, StageAnalyzing, StagePlanning, StageReporting, StagePaused}
	for _, s := range nonTerminal {
		if s.Terminal() {
			t.Errorf("Expected %s to be non-terminal", s)
		}
	}
}

func TestNewPlanSession(t *testing.T) {
	session := NewPlanSession("sess-1", "student@example.com")

	if session.CurrentStage != StageIdle {
		t.Errorf("Expected new session in IDLE, got %s", session.CurrentStage)
	}
	if session.SessionID != "sess-1" {
		t.Errorf("Expected session id sess-1, got %s", session.SessionID)
	}
	if session.SubjectID != "student@example.com" {
		t.Errorf("Expected subject id student@example.com, got %s", session.SubjectID)
	}
	if session.PauseRequested {
		t.Error("Expected new session without pause requested")
	}
	if session.WorkItems == nil || session.ScheduleItems == nil || session.SkillProfile == nil {
		t.Error("Expected stage output fields initialized to empty, not nil")
	}
	if time.Since(session.LastUpdated) > time.Minute {
		t.Error("Expected LastUpdated set to now")
	}
}

func TestNormalizeWorkItemStatus(t *testing.T) {
	tests := []struct {
		raw      string
		expected WorkItemStatus
	}{
		{"PUBLISHED", StatusPublished},
		{"TURNED_IN", StatusSubmitted},
		{"SUBMITTED", StatusSubmitted},
		{"RETURNED", StatusReturned},
		{"LATE", StatusLate},
		{"DRAFT", StatusDraft},
		{"CREATED", StatusDraft},
		{"NEW", StatusDraft},
		{"RECLAIMED_BY_STUDENT", StatusReclaimed},
		{"", StatusUnknown},
		{"SOMETHING_ELSE", StatusUnknown},
	}

	for _, tt := range tests {
		if got := NormalizeWorkItemStatus(tt.raw); got != tt.expected {
			t.Errorf("Expected %s for %q, got %s", tt.expected, tt.raw, got)
		}
	}
}

func TestSkillProfileLevel(t *testing.T) {
	profile := SkillProfile{
		"Math": SkillNeedsSupport,
		"Art":  "wizard", // junk from a hand-edited checkpoint
	}

	if got := profile.Level("Math"); got != SkillNeedsSupport {
		t.Errorf("Expected needs_support, got %s", got)
	}
	if got := profile.Level("History"); got != SkillUnknown {
		t.Errorf("Expected unknown for missing category, got %s", got)
	}
	if got := profile.Level("Art"); got != SkillUnknown {
		t.Errorf("Expected unrecognized stored level normalized to unknown, got %s", got)
	}
}

func TestNormalizeSkillLevel(t *testing.T) {
	tests := []struct {
		raw      string
		expected SkillLevel
	}{
		{"needs_support", SkillNeedsSupport},
		{"on_track", SkillOnTrack},
		{"strong", SkillStrong},
		{"", SkillUnknown},
		{"wizard", SkillUnknown},
	}

	for _, tt := range tests {
		if got := NormalizeSkillLevel(tt.raw); got != tt.expected {
			t.Errorf("Expected %s for %q, got %s", tt.expected, tt.raw, got)
		}
	}
}

func TestTimeSlotLabel(t *testing.T) {
	start := time.Date(2025, 3, 1, 16, 0, 0, 0, time.UTC)
	slot := TimeSlot{Start: start, End: start.Add(30 * time.Minute)}

	if got := slot.Label(); got != "4:00–4:30 PM" {
		t.Errorf("Expected label 4:00–4:30 PM, got %s", got)
	}
}

func TestBusyIntervalBlocks(t *testing.T) {
	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	at := func(h, m int) time.Time { return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute) }

	busy := BusyInterval{Start: at(17, 0), End: at(18, 0)}

	tests := []struct {
		name       string
		interval   BusyInterval
		start, end time.Time
		blocked    bool
	}{
		{"overlap", busy, at(17, 30), at(18, 0), true},
		{"contained", busy, at(17, 0), at(17, 30), true},
		{"touching end is free", busy, at(18, 0), at(18, 30), false},
		{"touching start is free", busy, at(16, 30), at(17, 0), false},
		{"disjoint", busy, at(19, 0), at(19, 30), false},
		{"transparent never blocks", BusyInterval{Start: at(17, 0), End: at(18, 0), Transparent: true}, at(17, 0), at(17, 30), false},
		{"all-day same date blocks", BusyInterval{Start: day, AllDay: true}, at(16, 0), at(16, 30), true},
		{"all-day other date is free", BusyInterval{Start: day.AddDate(0, 0, 1), AllDay: true}, at(16, 0), at(16, 30), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.interval.Blocks(tt.start, tt.end); got != tt.blocked {
				t.Errorf("Expected Blocks=%v, got %v", tt.blocked, got)
			}
		})
	}
}
