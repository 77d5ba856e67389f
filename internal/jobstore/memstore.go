package jobstore

import (
	"errors"
	"fmt"
	"sync"
)

// MemStore is an in-memory Store used by tests and dry runs.
type MemStore struct {
	mu      sync.Mutex
	records map[string]Record
	cleared bool
}

// NewMemStore returns an empty in-memory ledger.
func NewMemStore() *MemStore {
	return &MemStore{records: map[string]Record{}}
}

func (s *MemStore) Reconcile(jobs []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]Record, len(s.records)+len(jobs))
	for input, rec := range s.records {
		next[input] = rec
	}
	seen := make(map[string]struct{}, len(jobs))
	for _, job := range jobs {
		if job.InputFile == "" {
			return errors.New("jobstore: job with empty input file")
		}
		if _, dup := seen[job.InputFile]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateInput, job.InputFile)
		}
		seen[job.InputFile] = struct{}{}
		if _, exists := next[job.InputFile]; exists {
			continue
		}
		rec := job
		rec.Complete = false
		next[job.InputFile] = rec
	}
	if err := checkTitles(next); err != nil {
		return err
	}
	s.records = next
	s.cleared = false
	return nil
}

func (s *MemStore) Pending() ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return collect(s.records, func(r Record) bool { return !r.Complete }), nil
}

func (s *MemStore) All() ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return collect(s.records, nil), nil
}

func (s *MemStore) MarkComplete(inputFile string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[inputFile]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, inputFile)
	}
	rec.Complete = true
	s.records[inputFile] = rec
	return nil
}

func (s *MemStore) ClearIfAllComplete() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.records) == 0 {
		return false, nil
	}
	for _, rec := range s.records {
		if !rec.Complete {
			return false, nil
		}
	}
	s.records = map[string]Record{}
	s.cleared = true
	return true, nil
}

// Cleared reports whether the last ClearIfAllComplete emptied the ledger.
func (s *MemStore) Cleared() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cleared
}
