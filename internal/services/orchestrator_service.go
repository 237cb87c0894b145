package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"aura/internal/logging"
	"aura/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

// WorkItemSource is the Sync stage boundary.
type WorkItemSource interface {
	Sync(ctx context.Context, subjectID string) ([]models.WorkItem, error)
}

// SkillAnalyzer is the Analyze stage boundary.
type SkillAnalyzer interface {
	Analyze(ctx context.Context, subjectID string) (models.SkillProfile, error)
}

// DayPlanner is the Plan stage boundary.
type DayPlanner interface {
	Plan(ctx context.Context, subjectID string, items []models.WorkItem, profile models.SkillProfile) ([]models.ScheduleItem, []models.WorkItem, []models.BusyInterval, error)
}

// InsightReporter is the Report stage boundary.
type InsightReporter interface {
	Report(ctx context.Context, subjectID string, items []models.WorkItem, schedule []models.ScheduleItem, profile models.SkillProfile) (*models.Insight, error)
}

// SessionEventPublisher receives a notification after every checkpoint write.
// Implemented by RedisService for cross-instance progress streaming; optional.
type SessionEventPublisher interface {
	PublishSession(ctx context.Context, session *models.PlanSession)
}

// Orchestrator drives a session through the Sync → Analyze → Plan → Report
// pipeline. It checkpoints after every stage transition, honors pause
// requests at stage boundaries, and records unrecovered stage errors as a
// Failed checkpoint.
//
// Recovery is at-least-once: a crash between a stage finishing and its
// checkpoint being written re-executes that stage on the next resume. The
// stage executors are pure recomputation over external reads, so re-running
// one is observably equivalent to running it once.
type Orchestrator struct {
	store    CheckpointStore
	source   WorkItemSource
	analyzer SkillAnalyzer
	planner  DayPlanner
	reporter InsightReporter
	events   SessionEventPublisher // nil disables event publishing
}

// NewOrchestrator wires the pipeline driver.
func NewOrchestrator(store CheckpointStore, source WorkItemSource, analyzer SkillAnalyzer, planner DayPlanner, reporter InsightReporter) *Orchestrator {
	return &Orchestrator{
		store:    store,
		source:   source,
		analyzer: analyzer,
		planner:  planner,
		reporter: reporter,
	}
}

// SetEventPublisher sets the optional per-checkpoint event publisher.
func (o *Orchestrator) SetEventPublisher(events SessionEventPublisher) {
	o.events = events
}

// pipelineOrder is the fixed stage order. Idle and Syncing are equivalent
// entry points: both mean the sync stage has not completed yet. This quirk is
// kept for checkpoint compatibility; stageSlot collapses the two.
var pipelineOrder = []models.PipelineStage{
	models.StageSyncing,
	models.StageAnalyzing,
	models.StagePlanning,
	models.StageReporting,
}

func stageSlot(stage models.PipelineStage) int {
	switch stage {
	case models.StageIdle, models.StageSyncing:
		return 0
	case models.StageAnalyzing:
		return 1
	case models.StagePlanning:
		return 2
	case models.StageReporting:
		return 3
	default:
		return -1
	}
}

func nextStage(stage models.PipelineStage) models.PipelineStage {
	switch stage {
	case models.StageIdle, models.StageSyncing:
		return models.StageAnalyzing
	case models.StageAnalyzing:
		return models.StagePlanning
	case models.StagePlanning:
		return models.StageReporting
	default:
		return models.StageCompleted
	}
}

// Start creates a new session in the Idle entry state and checkpoints it.
// It does not run any stage — Resume does the driving.
func (o *Orchestrator) Start(ctx context.Context, subjectID string) (string, error) {
	session := models.NewPlanSession(uuid.New().String(), subjectID)
	if err := o.store.Create(ctx, session); err != nil {
		return "", fmt.Errorf("failed to start session: %w", err)
	}

	logging.WithSession(session.SessionID, subjectID).Info("plan session started")
	o.publish(ctx, session)
	return session.SessionID, nil
}

// Resume loads a session and continues pipeline execution from its current
// stage. Terminal sessions come back as-is without any stage running. A
// paused session resumes from the stage it was paused before, with the pause
// flag cleared.
func (o *Orchestrator) Resume(ctx context.Context, sessionID string) (*models.PlanSession, error) {
	session, found, err := o.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrSessionNotFound
	}
	if session.CurrentStage.Terminal() {
		return session, nil
	}

	logger := logging.WithSession(session.SessionID, session.SubjectID)

	if session.CurrentStage == models.StagePaused {
		resume := session.ResumeStage
		if stageSlot(resume) < 0 {
			resume = models.StageSyncing
		}
		session.CurrentStage = resume
		session.ResumeStage = ""
		session.PauseRequested = false
		fields := checkpointFields(session)
		fields["pauseRequested"] = false
		session.LastUpdated = time.Now()
		if err := o.store.Set(ctx, session.SessionID, fields); err != nil {
			return nil, err
		}
		logger.Info("resuming paused session", "stage", resume)
	}

	return o.run(ctx, logger, session)
}

// RequestPause merge-writes the pause flag. It never interrupts an in-flight
// stage; the run honors the flag before the next stage starts. Pausing an
// already-terminal session is a no-op — the flag is simply never observed.
func (o *Orchestrator) RequestPause(ctx context.Context, sessionID string) error {
	_, found, err := o.store.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if !found {
		return ErrSessionNotFound
	}

	if m := GetMetrics(); m != nil {
		m.PauseRequests.Inc()
	}
	return o.store.Set(ctx, sessionID, bson.M{
		"pauseRequested": true,
		"lastUpdated":    time.Now(),
	})
}

func (o *Orchestrator) run(ctx context.Context, logger *slog.Logger, session *models.PlanSession) (*models.PlanSession, error) {
	for {
		slot := stageSlot(session.CurrentStage)
		if slot < 0 {
			break
		}
		stage := pipelineOrder[slot]

		// The checkpoint document is the single source of truth between
		// stages: re-read it so a pause requested from anywhere is seen here.
		latest, found, err := o.store.Get(ctx, session.SessionID)
		if err != nil {
			return nil, err
		}
		if found && latest.PauseRequested {
			session = latest
			session.ResumeStage = stage
			session.CurrentStage = models.StagePaused
			if err := o.checkpoint(ctx, session); err != nil {
				return nil, err
			}
			logger.Info("session paused before stage", "stage", stage)
			o.countRun("paused")
			o.publish(ctx, session)
			return session, nil
		}

		stageLogger := logging.WithStage(logger, string(stage))
		stageLogger.Debug("executing stage")
		started := time.Now()

		if err := o.executeStage(ctx, session, stage); err != nil {
			session.CurrentStage = models.StageFailed
			session.Error = err.Error()
			if cpErr := o.checkpoint(ctx, session); cpErr != nil {
				stageLogger.Error("failed to checkpoint failure", "error", cpErr)
			}
			o.countRun("failed")
			o.publish(ctx, session)
			return session, fmt.Errorf("stage %s failed: %w", stage, err)
		}

		if m := GetMetrics(); m != nil {
			m.StageDuration.WithLabelValues(string(stage)).Observe(time.Since(started).Seconds())
		}

		session.CurrentStage = nextStage(stage)
		session.Error = ""
		if err := o.checkpoint(ctx, session); err != nil {
			return nil, err
		}
		stageLogger.Debug("stage completed", "next", session.CurrentStage)
		o.publish(ctx, session)
	}

	logger.Info("plan session completed",
		"work_items", len(session.WorkItems),
		"scheduled", len(session.ScheduleItems))
	o.countRun("completed")
	return session, nil
}

func (o *Orchestrator) executeStage(ctx context.Context, session *models.PlanSession, stage models.PipelineStage) error {
	switch stage {
	case models.StageSyncing:
		items, err := o.source.Sync(ctx, session.SubjectID)
		if err != nil {
			return err
		}
		if items == nil {
			items = []models.WorkItem{}
		}
		session.WorkItems = items

	case models.StageAnalyzing:
		profile, err := o.analyzer.Analyze(ctx, session.SubjectID)
		if err != nil {
			return err
		}
		if profile == nil {
			profile = models.SkillProfile{}
		}
		session.SkillProfile = profile

	case models.StagePlanning:
		schedule, reordered, busy, err := o.planner.Plan(ctx, session.SubjectID, session.WorkItems, session.SkillProfile)
		if err != nil {
			return err
		}
		if schedule == nil {
			schedule = []models.ScheduleItem{}
		}
		session.ScheduleItems = schedule
		session.WorkItems = reordered
		labels := make([]string, 0, len(busy))
		for _, b := range busy {
			labels = append(labels, b.Label())
		}
		session.BusyIntervalLabels = labels

	case models.StageReporting:
		insight, err := o.reporter.Report(ctx, session.SubjectID, session.WorkItems, session.ScheduleItems, session.SkillProfile)
		if err != nil {
			return err
		}
		session.Insight = insight

	default:
		return fmt.Errorf("unknown stage %s", stage)
	}
	return nil
}

func (o *Orchestrator) checkpoint(ctx context.Context, session *models.PlanSession) error {
	session.LastUpdated = time.Now()
	return o.store.Set(ctx, session.SessionID, checkpointFields(session))
}

func (o *Orchestrator) publish(ctx context.Context, session *models.PlanSession) {
	if o.events != nil {
		o.events.PublishSession(ctx, session)
	}
}

func (o *Orchestrator) countRun(outcome string) {
	if m := GetMetrics(); m != nil {
		m.PipelineRuns.WithLabelValues(outcome).Inc()
	}
}
