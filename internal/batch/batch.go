package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"batchenc/internal/config"
	"batchenc/internal/encoder"
	"batchenc/internal/history"
	"batchenc/internal/jobstore"
	"batchenc/internal/logging"
	"batchenc/internal/notifications"
	"batchenc/internal/report"
)

// Runner binds one selected strategy to its job record identity. The
// scheduler holds an ordered list of these.
type Runner struct {
	InputFile string
	Strategy  *encoder.Strategy
}

// Options wires the scheduler's collaborators. Store is required; History
// and Notifier may be nil.
type Options struct {
	Config     *config.Config
	Store      jobstore.Store
	Logger     *slog.Logger
	ScratchDir string

	DryRun     bool
	SkipEncode bool
	Debug      bool

	History  *history.Store
	Notifier notifications.Service

	// Prober and Platform override strategy selection inputs in tests.
	Prober   encoder.Prober
	Platform string
}

// Batch is one invocation's scheduler: the bound runners, the aggregate
// report, and the ledger they update.
type Batch struct {
	id       string
	runners  []*Runner
	report   *report.Report
	store    jobstore.Store
	logger   *slog.Logger
	history  *history.Store
	notifier notifications.Service
	failures int
	started  time.Time
}

// New reconciles the configured jobs into the store, resolves every pending
// record, and binds a strategy to each. Malformed jobs are collected as
// failures without blocking the rest; configuration-level errors abort
// construction before anything runs.
func New(ctx context.Context, opts Options) (*Batch, error) {
	if opts.Config == nil {
		return nil, errors.New("batch: nil config")
	}
	if opts.Store == nil {
		return nil, errors.New("batch: nil store")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notifications.NewService(opts.Config)
	}

	b := &Batch{
		id:       uuid.NewString(),
		report:   report.New(logger),
		store:    opts.Store,
		logger:   logging.WithComponent(logger, "batch"),
		history:  opts.History,
		notifier: notifier,
		started:  time.Now(),
	}

	if err := opts.Store.Reconcile(declaredRecords(opts.Config)); err != nil {
		return nil, fmt.Errorf("reconcile job store: %w", err)
	}
	pending, err := opts.Store.Pending()
	if err != nil {
		return nil, fmt.Errorf("read pending jobs: %w", err)
	}

	selectOpts := encoder.Options{
		ScratchDir: opts.ScratchDir,
		Logger:     logger,
		Fallback:   opts.Config.Encoding.Fallback,
		DryRun:     opts.DryRun,
		SkipEncode: opts.SkipEncode,
		Debug:      opts.Debug,
		Prober:     opts.Prober,
		Platform:   opts.Platform,
	}

	for _, rec := range pending {
		jobCfg := resolveJob(opts.Config, rec)
		strategy, err := encoder.Select(ctx, selectOpts, jobCfg)
		if err != nil {
			if errors.Is(err, encoder.ErrMalformedJob) {
				b.logger.Error("skipping malformed job",
					logging.String("input", rec.InputFile),
					logging.Error(err))
				b.recordConstructionFailure(rec, err)
				continue
			}
			return nil, fmt.Errorf("select strategy for %s: %w", rec.InputFile, err)
		}
		b.runners = append(b.runners, &Runner{InputFile: rec.InputFile, Strategy: strategy})
		b.logger.Info("job bound",
			logging.String("input", rec.InputFile),
			logging.String("strategy", strategy.Name()))
	}

	return b, nil
}

func (b *Batch) recordConstructionFailure(rec jobstore.Record, cause error) {
	encoded, err := report.NewEncoded(rec.InputFile, "", false, cause.Error(), 0, 0)
	if err != nil {
		return
	}
	b.report.Add(encoded)
	b.failures++
}

// ID returns the run identifier used in logs and the history ledger.
func (b *Batch) ID() string {
	return b.id
}

// Runners returns the bound job runners in execution order.
func (b *Batch) Runners() []*Runner {
	return b.runners
}

// Failures returns the number of failed jobs after Wait.
func (b *Batch) Failures() int {
	return b.failures
}

// Report returns the aggregate batch report.
func (b *Batch) Report() *report.Report {
	return b.report
}

// Wait executes every bound job in order, overlapping the previous job's
// archive work with the wait on the current job's external encode. Archiving
// a finished job is deferred one iteration: it runs while the next encode
// holds the critical path, so the archive I/O costs no wall-clock time.
func (b *Batch) Wait(ctx context.Context) error {
	b.logger.Info("batch starting",
		logging.String("run_id", b.id),
		logging.Int("jobs", len(b.runners)))
	if err := b.notifier.NotifyBatchStarted(ctx, len(b.runners)); err != nil {
		b.logger.Warn("batch start notification failed", logging.Error(err))
	}
	b.recordRunStart(ctx)

	var archiveQueue []*Runner
	for _, runner := range b.runners {
		if err := runner.Strategy.Run(ctx); err != nil {
			b.logger.Error("encoder launch failed",
				logging.String("input", runner.InputFile),
				logging.Error(err))
			b.recordJobFailure(runner, err)
			continue
		}

		// The current encode is now running (or was a no-op). Use the wait
		// window to archive the previous job.
		archiveQueue = b.drainArchives(ctx, archiveQueue)

		status, err := runner.Strategy.Wait()
		switch {
		case err != nil:
			// The strategy's own report has no entry on this path, for
			// example when the encode succeeded but placing the output
			// failed. File the failure here so the accounting still adds up.
			b.logger.Error("wait failed",
				logging.String("input", runner.InputFile),
				logging.Error(err))
			b.recordJobFailure(runner, err)
		case status == 0:
			if err := b.store.MarkComplete(runner.InputFile); err != nil {
				return fmt.Errorf("mark %s complete: %w", runner.InputFile, err)
			}
			archiveQueue = append(archiveQueue, runner)
			if err := b.notifier.NotifyJobCompleted(ctx, runner.InputFile); err != nil {
				b.logger.Warn("job notification failed", logging.Error(err))
			}
		default:
			b.failures++
		}

		b.report.Merge(runner.Strategy.Report())
		b.recordOutcome(ctx, runner)
	}

	b.drainArchives(ctx, archiveQueue)

	cleared, err := b.store.ClearIfAllComplete()
	if err != nil {
		return fmt.Errorf("clear job store: %w", err)
	}
	if cleared {
		b.logger.Info("all jobs complete, job store cleared")
	}

	b.report.Finish()
	b.recordRunFinish(ctx)
	succeeded := len(b.report.Succeeded())
	if err := b.notifier.NotifyBatchCompleted(ctx, succeeded, b.failures, time.Since(b.started)); err != nil {
		b.logger.Warn("batch completion notification failed", logging.Error(err))
	}
	b.logger.Info("batch finished",
		logging.String("run_id", b.id),
		logging.Int("succeeded", succeeded),
		logging.Int("failed", b.failures))
	return nil
}

func (b *Batch) drainArchives(ctx context.Context, queue []*Runner) []*Runner {
	for _, runner := range queue {
		if !runner.Strategy.NeedsArchive() {
			continue
		}
		if err := runner.Strategy.DoArchive(); err != nil {
			b.logger.Error("archive failed",
				logging.String("input", runner.InputFile),
				logging.Error(err))
			if nerr := b.notifier.NotifyError(ctx, err, "archive"); nerr != nil {
				b.logger.Warn("error notification failed", logging.Error(nerr))
			}
			continue
		}
		b.recordArchiveSeconds(ctx, runner)
	}
	return queue[:0]
}

// recordArchiveSeconds back-fills the archive duration on the job's report
// entry and history row. Both were written when the job finished, one
// iteration before its deferred archive ran.
func (b *Batch) recordArchiveSeconds(ctx context.Context, runner *Runner) {
	seconds := runner.Strategy.ArchiveSeconds()
	source := filepath.Base(runner.InputFile)
	if err := b.report.SetArchiveSeconds(source, seconds); err != nil {
		b.logger.Warn("report archive time update failed", logging.Error(err))
	}
	if b.history == nil {
		return
	}
	if err := b.history.UpdateArchiveSeconds(ctx, b.id, source, seconds); err != nil {
		b.logger.Warn("history archive time update failed", logging.Error(err))
	}
}

func (b *Batch) recordJobFailure(runner *Runner, cause error) {
	encoded, err := report.NewEncoded(runner.InputFile, runner.Strategy.OutputPath(), false, cause.Error(), 0, 0)
	if err != nil {
		return
	}
	b.report.Add(encoded)
	b.failures++
}

func (b *Batch) recordRunStart(ctx context.Context) {
	if b.history == nil {
		return
	}
	if err := b.history.BeginRun(ctx, b.id, b.started); err != nil {
		b.logger.Warn("history run start failed", logging.Error(err))
	}
}

func (b *Batch) recordOutcome(ctx context.Context, runner *Runner) {
	if b.history == nil {
		return
	}
	sub := runner.Strategy.Report()
	for _, encoded := range append(sub.Succeeded(), sub.Failed()...) {
		outcome := history.Outcome{
			InputFile:       encoded.Source,
			Destination:     encoded.Destination,
			Strategy:        runner.Strategy.Name(),
			Success:         encoded.Success,
			ErrText:         encoded.ErrText,
			TotalSeconds:    encoded.TotalSeconds,
			EncodingSeconds: encoded.EncodingSeconds,
			ArchiveSeconds:  runner.Strategy.ArchiveSeconds(),
		}
		if err := b.history.RecordOutcome(ctx, b.id, outcome); err != nil {
			b.logger.Warn("history outcome failed", logging.Error(err))
		}
	}
}

func (b *Batch) recordRunFinish(ctx context.Context) {
	if b.history == nil {
		return
	}
	if err := b.history.FinishRun(ctx, b.id, time.Now(), len(b.report.Succeeded()), b.failures); err != nil {
		b.logger.Warn("history run finish failed", logging.Error(err))
	}
}
