package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"aura/internal/config"
	"aura/internal/database"
	"aura/internal/handlers"
	"aura/internal/logging"
	"aura/internal/middleware"
	"aura/internal/services"
	"aura/pkg/auth"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/fsnotify/fsnotify"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Initialize structured logging (JSON in production, text in dev)
	logging.Init()

	log.Println("🚀 Starting Aura Planner Server...")

	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err == nil {
		log.Println("✅ .env file loaded successfully")
	}

	cfg := config.Load()
	log.Printf("📋 Configuration loaded (Port: %s, window %s–%s)", cfg.Port, cfg.WorkWindowStart, cfg.WorkWindowEnd)

	// Subjects registry (accounts + cron schedules per subject)
	registry := config.NewSubjectRegistry()
	if subjects, err := config.LoadSubjects(cfg.SubjectsFile); err != nil {
		log.Printf("⚠️  No subjects file loaded (%v) — subjects default to their own account", err)
	} else {
		registry.Replace(subjects.Subjects)
		log.Printf("✅ Loaded %d subject(s) from %s", len(subjects.Subjects), cfg.SubjectsFile)
	}

	// Checkpoint store: MongoDB in any real deployment, in-memory fallback so
	// development works with nothing running
	var mongoDB *database.MongoDB
	var store services.CheckpointStore
	var history services.WorkItemHistory
	var credentialService *services.CredentialService

	if cfg.MongoURI != "" {
		log.Println("🔗 Connecting to MongoDB...")
		var err error
		mongoDB, err = database.NewMongoDB(cfg.MongoURI)
		if err != nil {
			log.Fatalf("❌ Failed to connect to MongoDB: %v", err)
		}
		defer mongoDB.Close(context.Background())

		if err := mongoDB.Initialize(context.Background()); err != nil {
			log.Fatalf("❌ Failed to initialize MongoDB: %v", err)
		}

		mongoStore := services.NewMongoCheckpointStore(mongoDB)
		store = mongoStore
		history = mongoStore
		credentialService = services.NewCredentialService(mongoDB)
	} else {
		if os.Getenv("ENVIRONMENT") == "production" {
			log.Fatal("❌ MONGODB_URI is required in production — checkpoints must survive restarts")
		}
		log.Println("⚠️  MONGODB_URI not set — using in-memory checkpoints (development only)")
		memStore := services.NewMemoryCheckpointStore()
		store = memStore
		history = memStore
	}

	// Redis (optional): progress event fan-out + terminal result cache
	var redisService *services.RedisService
	if cfg.RedisURL != "" {
		var err error
		redisService, err = services.NewRedisService(cfg.RedisURL)
		if err != nil {
			log.Printf("⚠️ Failed to connect to Redis: %v (progress streaming degrades to polling)", err)
			redisService = nil
		}
	} else {
		log.Println("⚠️  REDIS_URL not set — progress streaming degrades to polling")
	}

	// Prometheus metrics
	services.InitMetrics()

	// Ranking oracle (optional)
	oracle := services.NewLLMOracle(cfg)
	if oracle != nil {
		log.Printf("✅ Ranking oracle enabled (%s via %s)", cfg.OracleModel, cfg.OracleBaseURL)
	} else {
		log.Println("⚠️  Ranking oracle not configured — using baseline due-date order")
	}

	// Collaborator clients. Without MongoDB there are no credentials, so the
	// clients see every account as credential-less and return empty results.
	var tokens services.TokenProvider = credentialService
	if credentialService == nil {
		tokens = noCredentials{}
	}
	classroomClient := services.NewClassroomClient(cfg, tokens, registry)
	calendarClient := services.NewCalendarClient(cfg, tokens, registry)

	// Stage executors + orchestrator
	reorderer := services.NewPriorityReorderer(oracleOrNil(oracle))
	masteryService := services.NewMasteryService(history)
	plannerService := services.NewPlannerService(cfg, calendarClient, reorderer)
	insightService := services.NewInsightService()

	orchestrator := services.NewOrchestrator(store, classroomClient, masteryService, plannerService, insightService)
	if redisService != nil {
		orchestrator.SetEventPublisher(redisService)
	}
	log.Println("✅ Pipeline orchestrator initialized")

	// Scheduler for unattended runs
	schedulerService, err := services.NewSchedulerService(orchestrator, registry)
	if err != nil {
		log.Fatalf("❌ Failed to create scheduler: %v", err)
	}
	if err := schedulerService.Start(context.Background()); err != nil {
		log.Printf("⚠️ Failed to start scheduler: %v", err)
	}

	// Hot-reload the subjects file
	go watchSubjectsFile(cfg.SubjectsFile, registry, schedulerService)

	// JWT auth (optional outside production)
	var jwtAuth *auth.JWTAuth
	if cfg.JWTSecret != "" {
		jwtAuth, err = auth.NewJWTAuth(cfg.JWTSecret, 24*time.Hour)
		if err != nil {
			log.Fatalf("❌ Failed to initialize JWT auth: %v", err)
		}
		log.Println("✅ JWT auth enabled")
	} else {
		log.Println("⚠️  JWT_SECRET not set — API auth disabled (development only)")
	}

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Aura Planner v1.0",
		ReadTimeout:  120 * time.Second,
		WriteTimeout: 120 * time.Second, // a pipeline run waits on external sources
		IdleTimeout:  120 * time.Second,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())

	// Prometheus metrics middleware
	prometheus := fiberprometheus.New("aura")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)
	log.Println("📊 Prometheus metrics endpoint enabled at /metrics")

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	rateLimitConfig := middleware.LoadRateLimitConfig()
	app.Use("/api", middleware.GlobalAPIRateLimiter(rateLimitConfig))

	// Handlers
	healthHandler := handlers.NewHealthHandler(mongoDB, redisService)
	planHandler := handlers.NewPlanHandler(orchestrator, store)
	if redisService != nil {
		planHandler.SetRedis(redisService)
	}
	planWSHandler := handlers.NewPlanWebSocketHandler(store, redisService)

	// Routes
	app.Get("/health", healthHandler.Handle)

	api := app.Group("/api", middleware.AuthMiddleware(jwtAuth))
	api.Post("/plan/start", middleware.RunRateLimiter(rateLimitConfig), planHandler.Start)
	api.Post("/plan/:id/resume", middleware.RunRateLimiter(rateLimitConfig), planHandler.Resume)
	api.Post("/plan/:id/pause", planHandler.Pause)
	api.Get("/plan/:id", planHandler.Get)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/plan/:id", middleware.AuthMiddleware(jwtAuth), websocket.New(planWSHandler.Handle))

	// Graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		log.Println("🛑 Shutting down server...")
		if err := schedulerService.Stop(); err != nil {
			log.Printf("⚠️ Scheduler shutdown error: %v", err)
		}
		if redisService != nil {
			if err := redisService.Close(); err != nil {
				log.Printf("⚠️ Redis shutdown error: %v", err)
			}
		}
		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️ Server shutdown error: %v", err)
		}
	}()

	log.Printf("🌐 Server listening on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Server error: %v", err)
	}

	log.Println("👋 Server stopped")
}

// noCredentials is the token provider used when no credential store exists:
// every account looks credential-less and the sources degrade to empty results.
type noCredentials struct{}

func (noCredentials) AccessToken(ctx context.Context, accountEmail string) (string, bool, error) {
	return "", false, nil
}

func oracleOrNil(oracle *services.LLMOracle) services.RankingOracle {
	if oracle == nil {
		return nil
	}
	return oracle
}

// watchSubjectsFile hot-reloads the subjects YAML on change, so adding a
// subject or editing a schedule doesn't need a restart.
func watchSubjectsFile(filePath string, registry *config.SubjectRegistry, scheduler *services.SchedulerService) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("⚠️  Failed to create file watcher: %v", err)
		return
	}
	defer watcher.Close()

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		log.Printf("⚠️  Failed to get absolute path for %s: %v", filePath, err)
		return
	}

	// Watch the directory containing the file (more reliable than watching
	// the file directly)
	dir := filepath.Dir(absPath)
	filename := filepath.Base(absPath)

	if err := watcher.Add(dir); err != nil {
		log.Printf("⚠️  Failed to watch directory %s: %v", dir, err)
		return
	}

	log.Printf("👁️  Watching %s for changes (hot-reload enabled)", filePath)

	// Debounce rapid successive writes from editors
	var debounceTimer *time.Timer
	debounceDuration := 500 * time.Millisecond

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(debounceDuration, func() {
					subjects, err := config.LoadSubjects(filePath)
					if err != nil {
						log.Printf("⚠️  Failed to reload subjects file: %v", err)
						return
					}
					registry.Replace(subjects.Subjects)
					scheduler.Reload()
					log.Printf("🔄 Reloaded %d subject(s) from %s", len(subjects.Subjects), filePath)
				})
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("⚠️  File watcher error: %v", err)
		}
	}
}
