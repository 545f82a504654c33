package client

import (
	"path/filepath"
	"testing"
)

func TestFlagStore(t *testing.T) {
	t.Run("missing file is a first launch", func(t *testing.T) {
		store := NewFlagStore(filepath.Join(t.TempDir(), "flags.json"))
		if err := store.Load(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !store.IsFirstTime() {
			t.Error("expected first launch with no flags file")
		}
		if store.HasCompletedOnboarding() {
			t.Error("expected onboarding incomplete with no flags file")
		}
	})

	t.Run("markers persist across reloads", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "flags.json")

		store := NewFlagStore(path)
		if err := store.Load(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := store.MarkWelcomeSeen(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		reloaded := NewFlagStore(path)
		if err := reloaded.Load(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reloaded.IsFirstTime() {
			t.Error("expected welcome-seen flag to persist")
		}
		if reloaded.HasCompletedOnboarding() {
			t.Error("onboarding flag should not be set yet")
		}

		if err := reloaded.MarkOnboardingComplete(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		final := NewFlagStore(path)
		if err := final.Load(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !final.HasCompletedOnboarding() {
			t.Error("expected onboarding flag to persist")
		}
	})
}
