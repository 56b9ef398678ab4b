package extractions

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryRepoLifecycle(t *testing.T) {
	repo := NewMemoryRepo(time.Hour)
	now := time.Now().UTC()

	rec := Extraction{ID: "ext-flow", Status: StatusQueued, FileName: "resume.pdf", CreatedAt: now, UpdatedAt: now}
	if err := repo.Create(context.Background(), rec); err != nil {
		t.Fatalf("create: %v", err)
	}

	startedAt := now.Add(time.Second)
	if err := repo.MarkExtracting(context.Background(), "ext-flow", startedAt); err != nil {
		t.Fatalf("mark extracting: %v", err)
	}

	completedAt := now.Add(2 * time.Second)
	if err := repo.MarkExtracted(context.Background(), "ext-flow", "the text", MethodVision, completedAt); err != nil {
		t.Fatalf("mark extracted: %v", err)
	}

	got, err := repo.GetByID(context.Background(), "ext-flow")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusExtracted {
		t.Fatalf("expected status extracted, got %s", got.Status)
	}
	if got.Text != "the text" || got.Method != MethodVision {
		t.Fatalf("expected text and method stored, got %q / %q", got.Text, got.Method)
	}
	if got.StartedAt == nil || got.CompletedAt == nil {
		t.Fatalf("expected timestamps to be set")
	}
}

func TestMemoryRepoExpiry(t *testing.T) {
	repo := NewMemoryRepo(30 * time.Minute)
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return current }

	rec := Extraction{ID: "ext-ttl", Status: StatusQueued, FileName: "resume.png", CreatedAt: current}
	if err := repo.Create(context.Background(), rec); err != nil {
		t.Fatalf("create: %v", err)
	}

	current = current.Add(31 * time.Minute)
	if _, err := repo.GetByID(context.Background(), "ext-ttl"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after expiry, got %v", err)
	}
	if err := repo.MarkExtracting(context.Background(), "ext-ttl", current); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating expired record, got %v", err)
	}
	if purged := repo.purgeExpired(); purged != 1 {
		t.Fatalf("expected 1 purged record, got %d", purged)
	}
}
