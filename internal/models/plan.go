package models

import (
	"fmt"
	"time"
)

// TimeSlot is one granularity-sized free interval inside the work window.
type TimeSlot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Label renders the slot the way schedules display it, e.g. "4:00–4:30 PM".
func (s TimeSlot) Label() string {
	return fmt.Sprintf("%s–%s", s.Start.Format("3:04"), s.End.Format("3:04 PM"))
}

// ScheduleItem is one planned task occurrence: a work item assigned to a slot.
type ScheduleItem struct {
	Slot          string         `bson:"slot" json:"slot"`
	WorkItemID    string         `bson:"workItemId" json:"work_item_id"`
	Title         string         `bson:"title" json:"title"`
	Category      string         `bson:"category" json:"category"`
	DifficultyTag SkillLevel     `bson:"difficultyTag" json:"difficulty_tag"`
	Due           *time.Time     `bson:"due,omitempty" json:"due,omitempty"`
	Status        WorkItemStatus `bson:"status,omitempty" json:"status,omitempty"`
}

// StressLevel is the coarse workload rating reported to the subject's guardian.
type StressLevel string

const (
	StressLow      StressLevel = "Low"
	StressModerate StressLevel = "Moderate"
	StressHigh     StressLevel = "High"
)

// Insight is the end-of-pipeline summary derived from the final schedule.
type Insight struct {
	SummaryText string      `bson:"summaryText" json:"summary_text"`
	StressLevel StressLevel `bson:"stressLevel" json:"stress_level"`
}
