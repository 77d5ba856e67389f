package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRunLifecycle(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	started := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	if err := store.BeginRun(ctx, "run-1", started); err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	if err := store.RecordOutcome(ctx, "run-1", Outcome{
		InputFile:       "a.mkv",
		Destination:     "/out/a.mkv",
		Strategy:        "software",
		Success:         true,
		TotalSeconds:    120,
		EncodingSeconds: 100,
	}); err != nil {
		t.Fatalf("RecordOutcome: %v", err)
	}
	if err := store.RecordOutcome(ctx, "run-1", Outcome{
		InputFile:   "b.mkv",
		Destination: "/out/b.mkv",
		Strategy:    "software",
		Success:     false,
		ErrText:     "encoder exited 1",
	}); err != nil {
		t.Fatalf("RecordOutcome: %v", err)
	}
	if err := store.FinishRun(ctx, "run-1", started.Add(time.Hour), 1, 1); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	runs, err := store.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("runs = %d, want 1", len(runs))
	}
	run := runs[0]
	if !run.Finished || run.Succeeded != 1 || run.Failed != 1 {
		t.Fatalf("unexpected run: %+v", run)
	}
	if !run.StartedAt.Equal(started) {
		t.Fatalf("start time = %v, want %v", run.StartedAt, started)
	}

	outcomes, err := store.RunOutcomes(ctx, "run-1")
	if err != nil {
		t.Fatalf("RunOutcomes: %v", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("outcomes = %d, want 2", len(outcomes))
	}
	if outcomes[0].InputFile != "a.mkv" || !outcomes[0].Success {
		t.Fatalf("unexpected first outcome: %+v", outcomes[0])
	}
	if outcomes[1].ErrText != "encoder exited 1" {
		t.Fatalf("error text lost: %+v", outcomes[1])
	}
}

func TestUpdateArchiveSeconds(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	started := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	if err := store.BeginRun(ctx, "run-1", started); err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	if err := store.RecordOutcome(ctx, "run-1", Outcome{
		InputFile:   "a.mkv",
		Destination: "/out/a.mkv",
		Strategy:    "software",
		Success:     true,
	}); err != nil {
		t.Fatalf("RecordOutcome: %v", err)
	}

	// The archive is deferred past the outcome's insertion; the row is
	// patched once it runs.
	if err := store.UpdateArchiveSeconds(ctx, "run-1", "a.mkv", 37); err != nil {
		t.Fatalf("UpdateArchiveSeconds: %v", err)
	}

	outcomes, err := store.RunOutcomes(ctx, "run-1")
	if err != nil {
		t.Fatalf("RunOutcomes: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].ArchiveSeconds != 37 {
		t.Fatalf("unexpected outcomes: %+v", outcomes)
	}
}

func TestRecentRunsOrder(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"run-a", "run-b", "run-c"} {
		if err := store.BeginRun(ctx, id, base.Add(time.Duration(i)*time.Hour)); err != nil {
			t.Fatalf("BeginRun %s: %v", id, err)
		}
	}

	runs, err := store.RecentRuns(ctx, 2)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("runs = %d, want 2", len(runs))
	}
	if runs[0].ID != "run-c" || runs[1].ID != "run-b" {
		t.Fatalf("unexpected order: %s, %s", runs[0].ID, runs[1].ID)
	}
}

func TestReopenExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.BeginRun(context.Background(), "run-1", time.Now()); err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	runs, err := reopened.RecentRuns(context.Background(), 10)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("runs = %d, want 1", len(runs))
	}
}
