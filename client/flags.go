package client

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// deviceFlags is the persisted shape. Absent file means a first launch.
type deviceFlags struct {
	HasSeenWelcome         bool `json:"has_seen_welcome"`
	HasCompletedOnboarding bool `json:"has_completed_onboarding"`
}

// FlagStore persists the device-local flags that drive the session gate:
// whether the welcome screen has been seen and whether onboarding was
// completed. Backed by a small JSON file.
type FlagStore struct {
	path string

	mu    sync.Mutex
	flags deviceFlags
}

// NewFlagStore creates a store backed by the file at path. The file is read
// lazily on Load.
func NewFlagStore(path string) *FlagStore {
	return &FlagStore{path: path}
}

// Load reads the flags from disk. A missing file is a first launch, not an
// error.
func (s *FlagStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.flags = deviceFlags{}
		return nil
	}
	if err != nil {
		return fmt.Errorf("read flags: %w", err)
	}
	if err := json.Unmarshal(data, &s.flags); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	return nil
}

// IsFirstTime reports whether the welcome screen has never been shown.
func (s *FlagStore) IsFirstTime() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.flags.HasSeenWelcome
}

// HasCompletedOnboarding reports whether onboarding was finished.
func (s *FlagStore) HasCompletedOnboarding() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flags.HasCompletedOnboarding
}

// MarkWelcomeSeen records that the welcome screen has been shown.
func (s *FlagStore) MarkWelcomeSeen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags.HasSeenWelcome = true
	return s.persist()
}

// MarkOnboardingComplete records that onboarding was finished.
func (s *FlagStore) MarkOnboardingComplete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags.HasCompletedOnboarding = true
	return s.persist()
}

func (s *FlagStore) persist() error {
	data, err := json.Marshal(s.flags)
	if err != nil {
		return fmt.Errorf("marshal flags: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create flags dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write flags: %w", err)
	}
	return nil
}
