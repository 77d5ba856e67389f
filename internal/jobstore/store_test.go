package jobstore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(filepath.Join(t.TempDir(), "jobs.json"), nil)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return store
}

func TestReconcileAddsPendingRecords(t *testing.T) {
	store := newTestStore(t)
	jobs := []Record{
		{InputFile: "/media/a.mkv", OutputTitle: "Alpha"},
		{InputFile: "/media/b.mkv", OutputTitle: "Beta"},
	}
	if err := store.Reconcile(jobs); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	pending, err := store.Pending()
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending records, got %d", len(pending))
	}
	if pending[0].InputFile != "/media/a.mkv" || pending[1].InputFile != "/media/b.mkv" {
		t.Fatalf("unexpected order: %v, %v", pending[0].InputFile, pending[1].InputFile)
	}
}

func TestReconcileIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	jobs := []Record{{InputFile: "/media/a.mkv", OutputTitle: "Alpha"}}
	if err := store.Reconcile(jobs); err != nil {
		t.Fatalf("first Reconcile: %v", err)
	}
	first, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatalf("read ledger: %v", err)
	}
	if err := store.Reconcile(jobs); err != nil {
		t.Fatalf("second Reconcile: %v", err)
	}
	second, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatalf("reread ledger: %v", err)
	}
	if string(first) != string(second) {
		t.Fatalf("ledger changed on idempotent reconcile:\n%s\nvs\n%s", first, second)
	}
}

func TestReconcileKeepsCompletedState(t *testing.T) {
	store := newTestStore(t)
	jobs := []Record{
		{InputFile: "/media/a.mkv", OutputTitle: "Alpha"},
		{InputFile: "/media/b.mkv", OutputTitle: "Beta"},
	}
	if err := store.Reconcile(jobs); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if err := store.MarkComplete("/media/a.mkv"); err != nil {
		t.Fatalf("MarkComplete: %v", err)
	}
	// A restart redeclares the same batch against the surviving ledger.
	if err := store.Reconcile(jobs); err != nil {
		t.Fatalf("Reconcile after restart: %v", err)
	}
	pending, err := store.Pending()
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(pending) != 1 || pending[0].InputFile != "/media/b.mkv" {
		t.Fatalf("completed job was reselected: %+v", pending)
	}
}

func TestReconcileRejectsDuplicateInput(t *testing.T) {
	store := newTestStore(t)
	jobs := []Record{
		{InputFile: "/media/a.mkv", OutputTitle: "Alpha"},
		{InputFile: "/media/a.mkv", OutputTitle: "Alpha Again"},
	}
	err := store.Reconcile(jobs)
	if !errors.Is(err, ErrDuplicateInput) {
		t.Fatalf("expected ErrDuplicateInput, got %v", err)
	}
}

func TestReconcileRejectsDuplicateTitleWithoutWriting(t *testing.T) {
	store := newTestStore(t)
	jobs := []Record{
		{InputFile: "/media/a.mkv", OutputTitle: "Same"},
		{InputFile: "/media/b.mkv", OutputTitle: "Same"},
	}
	err := store.Reconcile(jobs)
	if !errors.Is(err, ErrDuplicateTitle) {
		t.Fatalf("expected ErrDuplicateTitle, got %v", err)
	}
	if _, statErr := os.Stat(store.Path()); !os.IsNotExist(statErr) {
		t.Fatalf("ledger written despite duplicate titles: %v", statErr)
	}
}

func TestMarkCompleteUnknownInput(t *testing.T) {
	store := newTestStore(t)
	if err := store.Reconcile([]Record{{InputFile: "/media/a.mkv", OutputTitle: "Alpha"}}); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	err := store.MarkComplete("/media/missing.mkv")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClearIfAllComplete(t *testing.T) {
	store := newTestStore(t)
	jobs := []Record{
		{InputFile: "/media/a.mkv", OutputTitle: "Alpha"},
		{InputFile: "/media/b.mkv", OutputTitle: "Beta"},
	}
	if err := store.Reconcile(jobs); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	cleared, err := store.ClearIfAllComplete()
	if err != nil {
		t.Fatalf("ClearIfAllComplete: %v", err)
	}
	if cleared {
		t.Fatal("ledger cleared while jobs were pending")
	}

	if err := store.MarkComplete("/media/a.mkv"); err != nil {
		t.Fatalf("MarkComplete a: %v", err)
	}
	if err := store.MarkComplete("/media/b.mkv"); err != nil {
		t.Fatalf("MarkComplete b: %v", err)
	}

	cleared, err = store.ClearIfAllComplete()
	if err != nil {
		t.Fatalf("ClearIfAllComplete: %v", err)
	}
	if !cleared {
		t.Fatal("expected ledger to be cleared")
	}
	if _, statErr := os.Stat(store.Path()); !os.IsNotExist(statErr) {
		t.Fatalf("ledger file still present: %v", statErr)
	}
}

func TestOverridesSurviveRoundTrip(t *testing.T) {
	store := newTestStore(t)
	decomb := true
	quality := "4k"
	if err := store.Reconcile([]Record{{
		InputFile:   "/media/a.mkv",
		OutputTitle: "Alpha",
		Decomb:      &decomb,
		Quality:     &quality,
	}}); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	pending, err := store.Pending()
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 record, got %d", len(pending))
	}
	rec := pending[0]
	if rec.Decomb == nil || !*rec.Decomb {
		t.Fatalf("decomb override lost: %+v", rec)
	}
	if rec.Quality == nil || *rec.Quality != "4k" {
		t.Fatalf("quality override lost: %+v", rec)
	}
}

func TestInferTitle(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"/media/the longest day.mkv", "The Longest Day"},
		{"/media/Heat.mkv", "Heat"},
		{"relative/dir/old movie.m4v", "Old Movie"},
	}
	for _, tc := range cases {
		if got := InferTitle(tc.path); got != tc.want {
			t.Fatalf("InferTitle(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}
