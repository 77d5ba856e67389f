package jobstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"batchenc/internal/logging"
)

// Store is the job ledger contract. The file-backed implementation is the
// production store; MemStore backs tests.
type Store interface {
	// Reconcile merges the declared jobs into the ledger. Records already
	// present keep their state; new records are added as pending. The merged
	// set is checked for duplicate output titles before anything is written.
	Reconcile(jobs []Record) error
	// Pending returns the incomplete records sorted by input file.
	Pending() ([]Record, error)
	// All returns every record sorted by input file.
	All() ([]Record, error)
	// MarkComplete flags the record for the given input file as done.
	MarkComplete(inputFile string) error
	// ClearIfAllComplete removes the ledger once every record is complete.
	// It reports whether the ledger was cleared.
	ClearIfAllComplete() (bool, error)
}

// FileStore persists the ledger as a JSON object keyed by input file path.
// Every operation rereads the file so that state written by a previous run
// is always honored. The store assumes a single writer.
type FileStore struct {
	mu     sync.Mutex
	path   string
	logger *slog.Logger
}

// NewFileStore creates a ledger stored at path. The file is created lazily on
// the first write.
func NewFileStore(path string, logger *slog.Logger) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("jobstore: empty path")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &FileStore{
		path:   path,
		logger: logging.WithComponent(logger, "jobstore"),
	}, nil
}

// Path returns the ledger file location.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Reconcile(jobs []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(jobs))
	added := 0
	for _, job := range jobs {
		if job.InputFile == "" {
			return errors.New("jobstore: job with empty input file")
		}
		if _, dup := seen[job.InputFile]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateInput, job.InputFile)
		}
		seen[job.InputFile] = struct{}{}
		if _, exists := records[job.InputFile]; exists {
			continue
		}
		rec := job
		rec.Complete = false
		records[job.InputFile] = rec
		added++
	}

	if err := checkTitles(records); err != nil {
		return err
	}

	if err := s.save(records); err != nil {
		return err
	}
	s.logger.Debug("ledger reconciled",
		logging.Int("declared", len(jobs)),
		logging.Int("added", added),
		logging.Int("total", len(records)))
	return nil
}

func (s *FileStore) Pending() ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return nil, err
	}
	return collect(records, func(r Record) bool { return !r.Complete }), nil
}

func (s *FileStore) All() ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return nil, err
	}
	return collect(records, nil), nil
}

func (s *FileStore) MarkComplete(inputFile string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}
	rec, ok := records[inputFile]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, inputFile)
	}
	rec.Complete = true
	records[inputFile] = rec
	if err := s.save(records); err != nil {
		return err
	}
	s.logger.Info("job marked complete", logging.String("input", inputFile))
	return nil
}

func (s *FileStore) ClearIfAllComplete() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return false, err
	}
	if len(records) == 0 {
		return false, nil
	}
	for _, rec := range records {
		if !rec.Complete {
			return false, nil
		}
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("jobstore: clear ledger: %w", err)
	}
	s.logger.Info("batch complete, ledger cleared", logging.String("path", s.path))
	return true, nil
}

func (s *FileStore) load() (map[string]Record, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("jobstore: read ledger: %w", err)
	}
	records := map[string]Record{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("jobstore: parse ledger %s: %w", s.path, err)
		}
	}
	for input, rec := range records {
		rec.InputFile = input
		records[input] = rec
	}
	return records, nil
}

func (s *FileStore) save(records map[string]Record) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("jobstore: create ledger directory: %w", err)
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("jobstore: encode ledger: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("jobstore: write ledger: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("jobstore: replace ledger: %w", err)
	}
	return nil
}

// checkTitles rejects a record set where two records share a non-empty output
// title. Empty titles are caught later as malformed jobs.
func checkTitles(records map[string]Record) error {
	byTitle := make(map[string]string, len(records))
	inputs := make([]string, 0, len(records))
	for input := range records {
		inputs = append(inputs, input)
	}
	sort.Strings(inputs)
	for _, input := range inputs {
		title := records[input].OutputTitle
		if title == "" {
			continue
		}
		if other, dup := byTitle[title]; dup {
			return fmt.Errorf("%w: %q declared by %s and %s", ErrDuplicateTitle, title, other, input)
		}
		byTitle[title] = input
	}
	return nil
}

func collect(records map[string]Record, keep func(Record) bool) []Record {
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		if keep == nil || keep(rec) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InputFile < out[j].InputFile })
	return out
}
