package config

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Subject describes one pipeline owner: the accounts whose work items feed the
// sync stage, and an optional cron schedule for unattended runs.
type Subject struct {
	ID       string   `yaml:"id"`
	Accounts []string `yaml:"accounts"`
	Schedule string   `yaml:"schedule,omitempty"` // cron expression, empty = manual only
}

// SubjectsConfig is the shape of the subjects YAML file.
type SubjectsConfig struct {
	Subjects []Subject `yaml:"subjects"`
}

// LoadSubjects reads and parses the subjects YAML file.
func LoadSubjects(path string) (*SubjectsConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read subjects file: %w", err)
	}

	var cfg SubjectsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse subjects YAML: %w", err)
	}

	return &cfg, nil
}

// SubjectRegistry is the live, reloadable view of the subjects file.
type SubjectRegistry struct {
	mu       sync.RWMutex
	subjects map[string]Subject
}

// NewSubjectRegistry creates an empty registry.
func NewSubjectRegistry() *SubjectRegistry {
	return &SubjectRegistry{subjects: make(map[string]Subject)}
}

// Replace swaps the registry contents for the given subject list.
func (r *SubjectRegistry) Replace(subjects []Subject) {
	next := make(map[string]Subject, len(subjects))
	for _, s := range subjects {
		next[s.ID] = s
	}

	r.mu.Lock()
	r.subjects = next
	r.mu.Unlock()
}

// Get returns the subject config for an id.
func (r *SubjectRegistry) Get(id string) (Subject, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.subjects[id]
	return s, ok
}

// Accounts returns the external accounts configured for a subject. Unknown
// subjects fall back to a single account equal to the subject id, which is
// the common case of a subject identified by their own email.
func (r *SubjectRegistry) Accounts(id string) []string {
	if s, ok := r.Get(id); ok && len(s.Accounts) > 0 {
		return s.Accounts
	}
	return []string{id}
}

// All returns a snapshot of every configured subject.
func (r *SubjectRegistry) All() []Subject {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Subject, 0, len(r.subjects))
	for _, s := range r.subjects {
		out = append(out, s)
	}
	return out
}
