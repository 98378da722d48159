package git

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestClient_Lock(t *testing.T) {
	tmpDir := t.TempDir()
	client := NewClient(tmpDir, ".sheaf.lock", nil)
	ctx := context.Background()

	unlock, err := client.Lock(ctx)
	if err != nil {
		t.Fatalf("Failed to acquire lock: %v", err)
	}

	lockPath := filepath.Join(tmpDir, ".sheaf.lock")
	if _, err := os.Stat(lockPath); os.IsNotExist(err) {
		t.Error("Lock file not created")
	}

	// A second writer gives up after the timeout.
	client.LockTimeout = 30 * time.Millisecond
	if _, err := client.Lock(ctx); !errors.Is(err, ErrLockTimeout) {
		t.Errorf("expected ErrLockTimeout, got %v", err)
	}

	unlock()

	if _, err := os.Stat(lockPath); !os.IsNotExist(err) {
		t.Error("Lock file not removed after unlock")
	}
}

func TestClient_LockCancelled(t *testing.T) {
	client := NewClient(t.TempDir(), ".sheaf.lock", nil)
	unlock, err := client.Lock(context.Background())
	if err != nil {
		t.Fatalf("Failed to acquire lock: %v", err)
	}
	defer unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := client.Lock(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestClient_CommitAndLog(t *testing.T) {
	if !IsInstalled() {
		t.Skip("git not installed")
	}
	tmpDir := t.TempDir()
	client := NewClient(tmpDir, ".sheaf.lock", nil)
	ctx := context.Background()

	if err := client.Init(ctx); err != nil {
		t.Fatalf("Failed to init: %v", err)
	}
	if !client.IsRepo() {
		t.Fatal(".git directory not created")
	}

	if err := os.WriteFile(filepath.Join(tmpDir, "notes.json"), []byte("[]"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := client.Add(ctx, "notes.json"); err != nil {
		t.Fatalf("Failed to add: %v", err)
	}
	if err := client.Commit(ctx, "update notes"); err != nil {
		t.Fatalf("Failed to commit: %v", err)
	}
	// Nothing staged: no-op.
	if err := client.Commit(ctx, "empty"); err != nil {
		t.Fatalf("Empty commit should be skipped: %v", err)
	}

	log, err := client.Log(ctx, "notes.json", 10)
	if err != nil {
		t.Fatalf("Failed to read log: %v", err)
	}
	if len(log) != 1 {
		t.Fatalf("expected 1 commit, got %d: %v", len(log), log)
	}
}
