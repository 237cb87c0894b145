package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWorkWindow(t *testing.T) {
	cfg := &Config{WorkWindowStart: "16:00", WorkWindowEnd: "21:00"}
	now := time.Date(2025, 3, 10, 12, 30, 0, 0, time.UTC)

	start, end := cfg.WorkWindow(now)

	if !start.Equal(time.Date(2025, 3, 10, 16, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected window start 16:00, got %v", start)
	}
	if !end.Equal(time.Date(2025, 3, 10, 21, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected window end 21:00, got %v", end)
	}
}

func TestWorkWindowBadStringsFallBack(t *testing.T) {
	cfg := &Config{WorkWindowStart: "quarter past", WorkWindowEnd: "25:99"}
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	start, end := cfg.WorkWindow(now)

	if start.Hour() != 16 || end.Hour() != 21 {
		t.Errorf("Expected 16:00–21:00 fallback, got %v–%v", start, end)
	}
}

func TestLoadSubjects(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subjects.yaml")
	content := `subjects:
  - id: subject-1
    accounts:
      - kid1@example.com
      - kid1.school@example.com
    schedule: "0 15 * * 1-5"
  - id: subject-2
    accounts:
      - kid2@example.com
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	cfg, err := LoadSubjects(path)
	if err != nil {
		t.Fatalf("LoadSubjects failed: %v", err)
	}
	if len(cfg.Subjects) != 2 {
		t.Fatalf("Expected 2 subjects, got %d", len(cfg.Subjects))
	}
	if cfg.Subjects[0].Schedule != "0 15 * * 1-5" {
		t.Errorf("Expected schedule preserved, got %q", cfg.Subjects[0].Schedule)
	}
	if len(cfg.Subjects[0].Accounts) != 2 {
		t.Errorf("Expected 2 accounts, got %d", len(cfg.Subjects[0].Accounts))
	}
	if cfg.Subjects[1].Schedule != "" {
		t.Errorf("Expected manual-only subject, got schedule %q", cfg.Subjects[1].Schedule)
	}
}

func TestLoadSubjectsMissingFile(t *testing.T) {
	if _, err := LoadSubjects(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestSubjectRegistry(t *testing.T) {
	r := NewSubjectRegistry()

	// Unknown subjects fall back to their own id as the single account
	accounts := r.Accounts("solo@example.com")
	if len(accounts) != 1 || accounts[0] != "solo@example.com" {
		t.Errorf("Expected fallback account, got %v", accounts)
	}

	r.Replace([]Subject{
		{ID: "subject-1", Accounts: []string{"a@example.com", "b@example.com"}},
	})

	accounts = r.Accounts("subject-1")
	if len(accounts) != 2 {
		t.Errorf("Expected 2 accounts after replace, got %v", accounts)
	}

	r.Replace(nil)
	if _, ok := r.Get("subject-1"); ok {
		t.Error("Expected subject gone after replace with empty list")
	}
}
