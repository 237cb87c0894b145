package models

import (
	"time"
)

// PipelineStage identifies where a planning session currently is in the
// Sync → Analyze → Plan → Report pipeline.
type PipelineStage string

const (
	StageIdle      PipelineStage = "IDLE"
	StageSyncing   PipelineStage = "SYNCING"
	StageAnalyzing PipelineStage = "ANALYZING"
	StagePlanning  PipelineStage = "PLANNING"
	StageReporting PipelineStage = "REPORTING"
	StageCompleted PipelineStage = "COMPLETED"
	StagePaused    PipelineStage = "PAUSED"
	StageFailed    PipelineStage = "FAILED"
)

// ParseStage normalizes a persisted stage string. Unrecognized values map to
// Idle so a corrupted checkpoint restarts the pipeline instead of wedging it.
func ParseStage(s string) PipelineStage {
	switch PipelineStage(s) {
	case StageIdle, StageSyncing, StageAnalyzing, StagePlanning,
		StageReporting, StageCompleted, StagePaused, StageFailed:
		return PipelineStage(s)
	default:
		return StageIdle
	}
}

// Terminal reports whether the stage ends the session for good. Paused is not
// terminal — a paused session becomes mutable again through an explicit resume.
func (s PipelineStage) Terminal() bool {
	return s == StageCompleted || s == StageFailed
}

// PlanSession is the checkpoint document for one pipeline run. It is written
// to the sessions collection after every stage transition and is the single
// source of truth between stages — the orchestrator never trusts in-memory
// state across invocations.
type PlanSession struct {
	SessionID    string        `bson:"sessionId" json:"session_id"`
	SubjectID    string        `bson:"subjectId" json:"subject_id"`
	CurrentStage PipelineStage `bson:"currentStage" json:"current_stage"`

	// ResumeStage records which stage a paused session should continue from.
	// Only set while CurrentStage is PAUSED.
	ResumeStage PipelineStage `bson:"resumeStage,omitempty" json:"resume_stage,omitempty"`

	// Stage outputs, accumulated as the pipeline advances
	WorkItems          []WorkItem     `bson:"workItems" json:"work_items"`
	SkillProfile       SkillProfile   `bson:"skillProfile" json:"skill_profile"`
	ScheduleItems      []ScheduleItem `bson:"scheduleItems" json:"schedule_items"`
	Insight            *Insight       `bson:"insight,omitempty" json:"insight,omitempty"`
	BusyIntervalLabels []string       `bson:"busyIntervalLabels" json:"busy_interval_labels"`

	// Control flags
	PauseRequested bool   `bson:"pauseRequested" json:"pause_requested"`
	Error          string `bson:"error,omitempty" json:"error,omitempty"`

	LastUpdated time.Time `bson:"lastUpdated" json:"last_updated"`
}

// NewPlanSession creates a fresh session in the Idle entry state.
func NewPlanSession(sessionID, subjectID string) *PlanSession {
	return &PlanSession{
		SessionID:          sessionID,
		SubjectID:          subjectID,
		CurrentStage:       StageIdle,
		WorkItems:          []WorkItem{},
		SkillProfile:       SkillProfile{},
		ScheduleItems:      []ScheduleItem{},
		BusyIntervalLabels: []string{},
		LastUpdated:        time.Now(),
	}
}
