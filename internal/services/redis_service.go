package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"sync"
	"time"

	"aura/internal/models"

	"github.com/redis/go-redis/v9"
)

// RedisService provides Redis connection and operations: a cache for terminal
// session results and a pub/sub channel per session for progress streaming.
// The whole service is optional — callers must tolerate a nil *RedisService.
type RedisService struct {
	client *redis.Client
	mu     sync.RWMutex
}

var (
	redisInstance *RedisService
	redisInitErr  error
	redisOnce     sync.Once
)

// NewRedisService creates a new Redis service instance. The result is a
// process-wide singleton; a failed first initialization is cached and every
// later call returns the same error, never a silent (nil, nil).
func NewRedisService(redisURL string) (*RedisService, error) {
	redisOnce.Do(func() {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			redisInitErr = fmt.Errorf("failed to parse Redis URL: %w", err)
			return
		}

		// Configure connection pool
		opts.PoolSize = 10
		opts.MinIdleConns = 2
		opts.MaxRetries = 3
		opts.DialTimeout = 5 * time.Second
		opts.ReadTimeout = 3 * time.Second
		opts.WriteTimeout = 3 * time.Second

		client := redis.NewClient(opts)

		// Test connection
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := client.Ping(ctx).Err(); err != nil {
			redisInitErr = fmt.Errorf("failed to connect to Redis: %w", err)
			return
		}

		redisInstance = &RedisService{
			client: client,
		}

		log.Println("✅ Redis connection established")
	})

	return redisInstance, redisInitErr
}

// Client returns the underlying Redis client
func (r *RedisService) Client() *redis.Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.client
}

// Close closes the Redis connection
func (r *RedisService) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// Ping verifies the Redis connection is alive
func (r *RedisService) Ping(ctx context.Context) error {
	return r.Client().Ping(ctx).Err()
}

const (
	sessionChannelPrefix = "aura:session:"
	sessionCachePrefix   = "aura:result:"
	sessionCacheTTL      = 10 * time.Minute
)

// PublishSession pushes a session snapshot to the session's channel and, for
// terminal sessions, refreshes the result cache. Fire-and-forget: a Redis
// hiccup never affects the pipeline run that triggered it.
func (r *RedisService) PublishSession(ctx context.Context, session *models.PlanSession) {
	payload, err := json.Marshal(session)
	if err != nil {
		slog.Warn("failed to encode session event", "error", err)
		return
	}

	if err := r.Client().Publish(ctx, sessionChannelPrefix+session.SessionID, payload).Err(); err != nil {
		slog.Debug("failed to publish session event", "error", err)
	}

	if session.CurrentStage.Terminal() {
		if err := r.Client().Set(ctx, sessionCachePrefix+session.SessionID, payload, sessionCacheTTL).Err(); err != nil {
			slog.Debug("failed to cache terminal session", "error", err)
		}
	}
}

// CachedSession returns the cached terminal session document, if any.
func (r *RedisService) CachedSession(ctx context.Context, sessionID string) (*models.PlanSession, bool) {
	payload, err := r.Client().Get(ctx, sessionCachePrefix+sessionID).Bytes()
	if err != nil {
		return nil, false
	}

	var session models.PlanSession
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, false
	}
	return &session, true
}

// SubscribeSession subscribes to a session's event channel. The caller owns
// the returned PubSub and must Close it.
func (r *RedisService) SubscribeSession(ctx context.Context, sessionID string) *redis.PubSub {
	return r.Client().Subscribe(ctx, sessionChannelPrefix+sessionID)
}
