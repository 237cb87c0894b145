package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"aura/internal/database"
	"aura/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrSessionNotFound is returned when a session id has no checkpoint document.
// Callers decide whether that means "start fresh" or "fail" — the store never
// silently substitutes a new session for a missing one.
var ErrSessionNotFound = errors.New("plan session not found")

// CheckpointStore is the narrow persistence contract the orchestrator runs
// against. Set has merge semantics: only the given fields are written, the
// rest of the document is left untouched.
type CheckpointStore interface {
	Create(ctx context.Context, session *models.PlanSession) error
	Get(ctx context.Context, sessionID string) (*models.PlanSession, bool, error)
	Set(ctx context.Context, sessionID string, fields bson.M) error
}

// WorkItemHistory exposes the most recent checkpointed work items for a
// subject. The mastery analyzer uses it to rate proficiency from observed
// submission outcomes.
type WorkItemHistory interface {
	RecentWorkItems(ctx context.Context, subjectID string) ([]models.WorkItem, error)
}

// MongoCheckpointStore persists checkpoint documents in the plan_sessions
// collection. Merge writes are $set upserts, so concurrent pause requests and
// stage checkpoints never clobber each other's fields.
type MongoCheckpointStore struct {
	collection *mongo.Collection
}

// NewMongoCheckpointStore creates a checkpoint store backed by MongoDB.
func NewMongoCheckpointStore(mongodb *database.MongoDB) *MongoCheckpointStore {
	return &MongoCheckpointStore{
		collection: mongodb.Collection(database.CollectionSessions),
	}
}

// Create inserts the initial checkpoint for a new session.
func (s *MongoCheckpointStore) Create(ctx context.Context, session *models.PlanSession) error {
	if _, err := s.collection.InsertOne(ctx, session); err != nil {
		return fmt.Errorf("failed to create session checkpoint: %w", err)
	}
	return nil
}

// Get loads the checkpoint document for a session id.
func (s *MongoCheckpointStore) Get(ctx context.Context, sessionID string) (*models.PlanSession, bool, error) {
	var session models.PlanSession
	err := s.collection.FindOne(ctx, bson.M{"sessionId": sessionID}).Decode(&session)
	if err == mongo.ErrNoDocuments {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load session checkpoint: %w", err)
	}
	// Unrecognized persisted stages normalize to Idle so a corrupt checkpoint
	// restarts the pipeline instead of masquerading as a finished run.
	session.CurrentStage = models.ParseStage(string(session.CurrentStage))
	return &session, true, nil
}

// Set merge-writes the given fields into the checkpoint document.
func (s *MongoCheckpointStore) Set(ctx context.Context, sessionID string, fields bson.M) error {
	opts := options.Update().SetUpsert(true)
	_, err := s.collection.UpdateOne(ctx, bson.M{"sessionId": sessionID}, bson.M{"$set": fields}, opts)
	if err != nil {
		return fmt.Errorf("failed to write session checkpoint: %w", err)
	}
	return nil
}

// RecentWorkItems returns the work items from the subject's most recently
// updated session, empty if the subject has no history yet.
func (s *MongoCheckpointStore) RecentWorkItems(ctx context.Context, subjectID string) ([]models.WorkItem, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "lastUpdated", Value: -1}})
	var session models.PlanSession
	err := s.collection.FindOne(ctx, bson.M{"subjectId": subjectID}, opts).Decode(&session)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load subject history: %w", err)
	}
	return session.WorkItems, nil
}

// MemoryCheckpointStore is an in-process CheckpointStore. It backs tests and
// the degraded no-MongoDB development mode. Documents round-trip through bson
// so merge semantics match the MongoDB implementation exactly.
type MemoryCheckpointStore struct {
	mu   sync.RWMutex
	docs map[string]bson.M
}

// NewMemoryCheckpointStore creates an empty in-memory store.
func NewMemoryCheckpointStore() *MemoryCheckpointStore {
	return &MemoryCheckpointStore{docs: make(map[string]bson.M)}
}

// Create stores the initial checkpoint for a new session.
func (s *MemoryCheckpointStore) Create(ctx context.Context, session *models.PlanSession) error {
	doc, err := toDocument(session)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.docs[session.SessionID]; exists {
		return fmt.Errorf("session %s already exists", session.SessionID)
	}
	s.docs[session.SessionID] = doc
	return nil
}

// Get loads and decodes the checkpoint for a session id. The lock is held
// across the marshal: Set mutates the same document map, and encoding a doc
// another goroutine is writing is a race.
func (s *MemoryCheckpointStore) Get(ctx context.Context, sessionID string) (*models.PlanSession, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[sessionID]
	if !ok {
		return nil, false, nil
	}

	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, false, fmt.Errorf("failed to encode session document: %w", err)
	}
	var session models.PlanSession
	if err := bson.Unmarshal(raw, &session); err != nil {
		return nil, false, fmt.Errorf("failed to decode session document: %w", err)
	}
	session.CurrentStage = models.ParseStage(string(session.CurrentStage))
	return &session, true, nil
}

// Set merges the given fields into the stored document, creating it if absent.
func (s *MemoryCheckpointStore) Set(ctx context.Context, sessionID string, fields bson.M) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[sessionID]
	if !ok {
		doc = bson.M{"sessionId": sessionID}
		s.docs[sessionID] = doc
	}
	for k, v := range fields {
		doc[k] = v
	}
	return nil
}

// RecentWorkItems scans for the subject's most recently updated session.
func (s *MemoryCheckpointStore) RecentWorkItems(ctx context.Context, subjectID string) ([]models.WorkItem, error) {
	s.mu.RLock()
	ids := make([]string, 0, len(s.docs))
	for id := range s.docs {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	var latest *models.PlanSession
	for _, id := range ids {
		session, ok, err := s.Get(ctx, id)
		if err != nil || !ok || session.SubjectID != subjectID {
			continue
		}
		if latest == nil || session.LastUpdated.After(latest.LastUpdated) {
			latest = session
		}
	}
	if latest == nil {
		return nil, nil
	}
	return latest.WorkItems, nil
}

func toDocument(session *models.PlanSession) (bson.M, error) {
	raw, err := bson.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session: %w", err)
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return doc, nil
}

// checkpointFields flattens a session into the merge-write field set used
// after every stage transition. pauseRequested is deliberately absent: the
// flag is owned by RequestPause and the resume path, and a stage checkpoint
// carrying a stale in-memory copy must not clobber a concurrent pause.
func checkpointFields(session *models.PlanSession) bson.M {
	return bson.M{
		"subjectId":          session.SubjectID,
		"currentStage":       session.CurrentStage,
		"resumeStage":        session.ResumeStage,
		"workItems":          session.WorkItems,
		"skillProfile":       session.SkillProfile,
		"scheduleItems":      session.ScheduleItems,
		"insight":            session.Insight,
		"busyIntervalLabels": session.BusyIntervalLabels,
		"error":              session.Error,
		"lastUpdated":        time.Now(),
	}
}
