package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Port     string
	MongoURI string
	RedisURL string

	// JWT secret guarding the plan API (empty disables auth in development)
	JWTSecret string

	// Daily work window eligible for scheduling, local wall-clock "HH:MM"
	WorkWindowStart string
	WorkWindowEnd   string
	SlotGranularity time.Duration

	// Ranking oracle configuration. An empty provider disables the oracle and
	// the reorderer runs on the deterministic baseline order alone.
	OracleProvider  string // "openai-compatible" or ""
	OracleBaseURL   string
	OracleAPIKey    string
	OracleModel     string
	OracleTimeout   time.Duration
	OracleRateLimit int // max oracle calls per minute

	// External collaborator endpoints (overridable for tests/self-hosting)
	ClassroomBaseURL string
	CalendarBaseURL  string

	// Optional subjects YAML file (accounts + cron schedules per subject)
	SubjectsFile string
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "3001"),
		MongoURI: getEnv("MONGODB_URI", ""),
		RedisURL: getEnv("REDIS_URL", ""),

		JWTSecret: getEnv("JWT_SECRET", ""),

		WorkWindowStart: getEnv("WORK_WINDOW_START", "16:00"),
		WorkWindowEnd:   getEnv("WORK_WINDOW_END", "21:00"),
		SlotGranularity: getDurationEnv("SLOT_GRANULARITY", 30*time.Minute),

		OracleProvider:  getEnv("ORACLE_PROVIDER", ""),
		OracleBaseURL:   getEnv("ORACLE_BASE_URL", "https://api.openai.com/v1"),
		OracleAPIKey:    getEnv("ORACLE_API_KEY", ""),
		OracleModel:     getEnv("ORACLE_MODEL", "gpt-4o-mini"),
		OracleTimeout:   getDurationEnv("ORACLE_TIMEOUT", 20*time.Second),
		OracleRateLimit: getIntEnv("ORACLE_RATE_LIMIT_PER_MIN", 10),

		ClassroomBaseURL: getEnv("CLASSROOM_BASE_URL", "https://classroom.googleapis.com/v1"),
		CalendarBaseURL:  getEnv("CALENDAR_BASE_URL", "https://www.googleapis.com/calendar/v3"),

		SubjectsFile: getEnv("SUBJECTS_FILE", "subjects.yaml"),
	}
}

// WorkWindow resolves the configured window against now's date, in now's
// location. Falls back to 16:00–21:00 if the configured strings don't parse.
func (c *Config) WorkWindow(now time.Time) (start, end time.Time) {
	start = combine(now, c.WorkWindowStart, 16, 0)
	end = combine(now, c.WorkWindowEnd, 21, 0)
	return start, end
}

func combine(now time.Time, hhmm string, defH, defM int) time.Time {
	h, m := defH, defM
	if parsed, err := time.Parse("15:04", hhmm); err == nil {
		h, m = parsed.Hour(), parsed.Minute()
	}
	return time.Date(now.Year(), now.Month(), now.Day(), h, m, 0, 0, now.Location())
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}
