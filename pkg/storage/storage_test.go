package storage

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/capscope/capscope/pkg/merge"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "capscope.db"), DefaultDBTimeout)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRecordMergeAndListChanges(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	first := merge.PairResult{
		Pair:      merge.Pair{Source: "/data/CAP1_2025_06276.json", Target: "/data/cap1_2025_formatted.json"},
		StartedAt: time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC),
		Result:    merge.Result{Inserted: []string{"06276"}, Skipped: []string{"01002"}},
		Saved:     true,
	}
	second := merge.PairResult{
		Pair:      merge.Pair{Source: "/data/CAP2_2025_06276.json", Target: "/data/cap2_2025_formatted.json"},
		StartedAt: time.Date(2025, 7, 1, 11, 0, 0, 0, time.UTC),
		Result:    merge.Result{Skipped: []string{"06276"}},
	}

	for _, r := range []merge.PairResult{first, second} {
		if err := db.RecordMerge(ctx, r); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	changes, err := db.ListRecentChanges(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(changes) != 3 {
		t.Fatalf("expected 3 changes, got %d: %#v", len(changes), changes)
	}

	// Newest run first.
	if changes[0].CollegeKey != "06276" || changes[0].ChangeType != ChangeSkipped || changes[0].TargetPath != second.Pair.Target {
		t.Fatalf("unexpected newest change: %#v", changes[0])
	}
	if !changes[0].OccurredAt.Equal(second.StartedAt) {
		t.Fatalf("unexpected timestamp %v", changes[0].OccurredAt)
	}
	if changes[0].SourcePath != second.Pair.Source {
		t.Fatalf("unexpected source %q", changes[0].SourcePath)
	}

	var gotTypes []string
	for _, c := range changes[1:] {
		gotTypes = append(gotTypes, c.CollegeKey+":"+c.ChangeType)
	}
	want := []string{"01002:skipped", "06276:added"}
	if !reflect.DeepEqual(gotTypes, want) {
		t.Fatalf("unexpected older changes.\nwant: %v\ngot:  %v", want, gotTypes)
	}

	limited, err := db.ListRecentChanges(ctx, 1)
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("expected limit to apply, got %d", len(limited))
	}
}

func TestGetStats(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	target := "/data/cap1_2025_formatted.json"
	runs := []merge.PairResult{
		{Pair: merge.Pair{Source: "a.json", Target: target}, Result: merge.Result{Inserted: []string{"1", "2"}}, Saved: true},
		{Pair: merge.Pair{Source: "a.json", Target: target}, Result: merge.Result{Skipped: []string{"1", "2"}}},
		{Pair: merge.Pair{Source: "missing.json", Target: target}, Err: errors.New("read missing.json: no such file")},
		{Pair: merge.Pair{Source: "b.json", Target: "/data/cap2_2025_formatted.json"}, Result: merge.Result{Inserted: []string{"9"}}, Saved: true},
	}
	for _, r := range runs {
		if err := db.RecordMerge(ctx, r); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	stats, err := db.GetStats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("expected 2 targets, got %d", len(stats))
	}

	s := stats[0]
	if s.TargetPath != target || s.Runs != 3 || s.Added != 2 || s.Skipped != 2 || s.Failed != 1 {
		t.Fatalf("unexpected stats for %s: %#v", target, s)
	}
	if s.LastRunAt.IsZero() {
		t.Fatal("expected last run time to be set")
	}
	if stats[1].Added != 1 || stats[1].Failed != 0 {
		t.Fatalf("unexpected stats for cap2: %#v", stats[1])
	}
}

func TestEmptyDatabase(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	changes, err := db.ListRecentChanges(ctx, 10)
	if err != nil || len(changes) != 0 {
		t.Fatalf("expected no changes, got %v, %v", changes, err)
	}
	stats, err := db.GetStats(ctx)
	if err != nil || len(stats) != 0 {
		t.Fatalf("expected no stats, got %v, %v", stats, err)
	}
}

func TestReopenKeepsHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capscope.db")
	db, err := Open(path, 0)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	r := merge.PairResult{Pair: merge.Pair{Source: "s.json", Target: "t.json"}, Result: merge.Result{Inserted: []string{"x"}}, Saved: true}
	if err := db.RecordMerge(context.Background(), r); err != nil {
		t.Fatalf("record: %v", err)
	}
	db.Close()

	db, err = Open(path, 0)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	changes, err := db.ListRecentChanges(context.Background(), 10)
	if err != nil || len(changes) != 1 {
		t.Fatalf("expected history to survive reopen, got %v, %v", changes, err)
	}
}
