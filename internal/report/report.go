package report

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"batchenc/internal/logging"
)

const timestampLayout = "2006-01-02 15:04:05 MST"

// Report is an append-only collection of job outcomes split into succeeded
// and failed partitions. The end time is fixed on first render so repeated
// renders agree on the batch duration.
type Report struct {
	succeeded []Encoded
	failed    []Encoded
	startTime time.Time
	endTime   time.Time
	dateStr   string
	logger    *slog.Logger
	now       func() time.Time
}

// New creates an empty report with the batch start time pinned to now.
func New(logger *slog.Logger) *Report {
	if logger == nil {
		logger = logging.NewNop()
	}
	r := &Report{
		logger: logging.WithComponent(logger, "report"),
		now:    time.Now,
	}
	r.startTime = r.now()
	return r
}

// Add files an outcome into the matching partition.
func (r *Report) Add(encoded Encoded) {
	if encoded.Success {
		r.succeeded = append(r.succeeded, encoded)
		return
	}
	r.failed = append(r.failed, encoded)
}

// Merge absorbs another report's outcomes, typically a job runner's
// private sub-report.
func (r *Report) Merge(other *Report) {
	if other == nil {
		return
	}
	r.succeeded = append(r.succeeded, other.succeeded...)
	r.failed = append(r.failed, other.failed...)
}

// SetArchiveSeconds records the archive duration on the succeeded outcome
// for source. Archiving is deferred past the outcome's creation, so the
// entry is patched in place once the archive actually runs.
func (r *Report) SetArchiveSeconds(source string, seconds int) error {
	for i := range r.succeeded {
		if r.succeeded[i].Source == source {
			return r.succeeded[i].SetArchiveSeconds(seconds)
		}
	}
	return fmt.Errorf("report: no succeeded outcome for %s", source)
}

// Succeeded returns the successful outcomes in arrival order.
func (r *Report) Succeeded() []Encoded {
	return append([]Encoded(nil), r.succeeded...)
}

// Failed returns the failed outcomes in arrival order.
func (r *Report) Failed() []Encoded {
	return append([]Encoded(nil), r.failed...)
}

// Finish pins the batch end time. Render calls it implicitly if needed.
func (r *Report) Finish() {
	if r.endTime.IsZero() {
		r.endTime = r.now()
	}
}

// Render produces the full text report.
func (r *Report) Render() string {
	r.Finish()
	if r.dateStr == "" {
		r.dateStr = r.now().Format(timestampLayout)
	}

	lines := []string{"Video Encoding Report", ""}
	lines = append(lines, header("Date: "+r.dateStr)...)

	if len(r.succeeded) > 0 {
		lines = append(lines, header("Encoded files")...)
		for _, encoded := range r.succeeded {
			lines = append(lines, fmt.Sprintf("%s [%s]", encoded.Destination, encoded.EncodingElapsed()))
		}
		lines = append(lines, "")
	}

	if len(r.failed) > 0 {
		lines = append(lines, header("Encoding failures")...)
		for _, encoded := range r.failed {
			lines = append(lines, header(encoded.Source)...)
			if encoded.ErrText != "" {
				lines = append(lines, encoded.ErrText)
			}
			lines = append(lines, "Total elapsed: "+encoded.TotalElapsed(), "")
		}
	}

	lines = append(lines, header("Total time")...)
	lines = append(lines, clock(r.elapsedSeconds()))

	return strings.Join(lines, "\n")
}

// WriteFile writes the rendered report to path. A directory path gets a
// timestamped file name inside it; a missing path is created as a directory.
func (r *Report) WriteFile(path string) error {
	text := r.Render()

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		if mkErr := os.MkdirAll(path, 0o755); mkErr != nil {
			return fmt.Errorf("report: create directory %s: %w", path, mkErr)
		}
		info, err = os.Stat(path)
	}
	if err != nil {
		return fmt.Errorf("report: stat %s: %w", path, err)
	}

	target := path
	if info.IsDir() {
		name := fmt.Sprintf("video-batch-encoding-report (%s).txt", r.dateStr)
		target = filepath.Join(path, name)
	}
	if err := os.WriteFile(target, []byte(text+"\n"), 0o644); err != nil {
		return fmt.Errorf("report: write %s: %w", target, err)
	}
	r.logger.Info("report written", logging.String("path", target))
	return nil
}

func (r *Report) elapsedSeconds() int {
	end := r.endTime
	if end.IsZero() {
		end = r.now()
	}
	seconds := int(end.Sub(r.startTime).Seconds())
	if seconds < 0 {
		seconds = 0
	}
	return seconds
}

func header(text string) []string {
	return []string{text, strings.Repeat("-", len(text)), ""}
}
