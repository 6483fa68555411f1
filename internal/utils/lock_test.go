package utils

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestFileLockPath(t *testing.T) {
	store := filepath.Join(t.TempDir(), "cap1_2025_formatted.json")
	l, err := NewFileLock(store)
	if err != nil {
		t.Fatalf("new lock: %v", err)
	}
	if l.Path() != store+".lock" {
		t.Fatalf("unexpected lock path %q", l.Path())
	}
}

func TestFileLockExcludesSecondHolder(t *testing.T) {
	store := filepath.Join(t.TempDir(), "cap1_2025_formatted.json")

	first, _ := NewFileLock(store)
	second, _ := NewFileLock(store)

	if err := first.Lock(context.Background()); err != nil {
		t.Fatalf("first lock: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 600*time.Millisecond)
	defer cancel()
	if err := second.Lock(ctx); err == nil {
		t.Fatal("second holder acquired a held lock")
	}

	if err := first.Unlock(); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if err := second.Lock(context.Background()); err != nil {
		t.Fatalf("lock after release: %v", err)
	}
	if err := second.Unlock(); err != nil {
		t.Fatalf("second unlock: %v", err)
	}
}
