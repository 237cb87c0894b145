package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"aura/internal/config"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// SchedulerService runs unattended pipeline executions for subjects whose
// config carries a cron schedule, so the daily plan is ready before anyone
// asks for it.
type SchedulerService struct {
	scheduler    gocron.Scheduler
	orchestrator *Orchestrator
	registry     *config.SubjectRegistry
	instanceID   string
	mu           sync.RWMutex
	jobs         map[string]gocron.Job // subjectID -> job
}

// NewSchedulerService creates a new scheduler service
func NewSchedulerService(orchestrator *Orchestrator, registry *config.SubjectRegistry) (*SchedulerService, error) {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(time.Local),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &SchedulerService{
		scheduler:    scheduler,
		orchestrator: orchestrator,
		registry:     registry,
		instanceID:   uuid.New().String(),
		jobs:         make(map[string]gocron.Job),
	}, nil
}

// Start registers every scheduled subject and starts the scheduler.
func (s *SchedulerService) Start(ctx context.Context) error {
	log.Println("⏰ Starting scheduler service...")

	if err := s.loadSchedules(); err != nil {
		log.Printf("⚠️ Failed to load schedules: %v", err)
	}

	s.scheduler.Start()
	log.Println("✅ Scheduler service started")
	return nil
}

// Stop stops the scheduler
func (s *SchedulerService) Stop() error {
	log.Println("⏹️ Stopping scheduler service...")
	return s.scheduler.Shutdown()
}

// Reload re-registers jobs after the subjects file changed.
func (s *SchedulerService) Reload() {
	s.mu.Lock()
	for subjectID, job := range s.jobs {
		if err := s.scheduler.RemoveJob(job.ID()); err != nil {
			log.Printf("⚠️ Failed to remove job for %s: %v", subjectID, err)
		}
		delete(s.jobs, subjectID)
	}
	s.mu.Unlock()

	if err := s.loadSchedules(); err != nil {
		log.Printf("⚠️ Failed to reload schedules: %v", err)
	}
}

func (s *SchedulerService) loadSchedules() error {
	count := 0
	for _, subject := range s.registry.All() {
		if subject.Schedule == "" {
			continue
		}
		if err := s.registerSubject(subject); err != nil {
			log.Printf("⚠️ Skipping schedule for subject %s: %v", subject.ID, err)
			continue
		}
		count++
	}
	log.Printf("📅 Registered %d subject schedule(s)", count)
	return nil
}

func (s *SchedulerService) registerSubject(subject config.Subject) error {
	// Validate the expression up front so a typo in the YAML surfaces at
	// startup, not at trigger time.
	if _, err := cron.ParseStandard(subject.Schedule); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", subject.Schedule, err)
	}

	subjectID := subject.ID
	job, err := s.scheduler.NewJob(
		gocron.CronJob(subject.Schedule, false),
		gocron.NewTask(func() {
			s.runPipeline(subjectID)
		}),
		gocron.WithName("plan-"+subjectID),
	)
	if err != nil {
		return fmt.Errorf("failed to register job: %w", err)
	}

	s.mu.Lock()
	s.jobs[subjectID] = job
	s.mu.Unlock()
	return nil
}

func (s *SchedulerService) runPipeline(subjectID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	log.Printf("🚀 [SCHEDULER] Running scheduled plan for subject %s", subjectID)

	sessionID, err := s.orchestrator.Start(ctx, subjectID)
	if err != nil {
		log.Printf("❌ [SCHEDULER] Failed to start session for %s: %v", subjectID, err)
		s.count("start_failed")
		return
	}

	session, err := s.orchestrator.Resume(ctx, sessionID)
	if err != nil {
		log.Printf("❌ [SCHEDULER] Scheduled run failed for %s (session %s): %v", subjectID, sessionID, err)
		s.count("failed")
		return
	}

	log.Printf("✅ [SCHEDULER] Scheduled run for %s finished in state %s (%d tasks planned)",
		subjectID, session.CurrentStage, len(session.ScheduleItems))
	s.count("completed")
}

func (s *SchedulerService) count(outcome string) {
	if m := GetMetrics(); m != nil {
		m.ScheduledRuns.WithLabelValues(outcome).Inc()
	}
}
