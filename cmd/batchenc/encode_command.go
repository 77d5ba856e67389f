package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"batchenc/internal/batch"
	"batchenc/internal/history"
	"batchenc/internal/logging"
	"batchenc/internal/preflight"
)

func newEncodeCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var skipEncode bool
	var debug bool

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Run the configured batch of encoding jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}

			for _, result := range preflight.RunAll(cfg) {
				if !result.Passed {
					logger.Warn("preflight check failed",
						logging.String("check", result.Name),
						logging.String("detail", result.Detail))
				}
			}

			store, err := ctx.store()
			if err != nil {
				return err
			}

			scratchDir, err := os.MkdirTemp("", "batchenc-")
			if err != nil {
				return fmt.Errorf("create scratch directory: %w", err)
			}

			var hist *history.Store
			if cfg.History.Enabled {
				hist, err = history.Open(cfg.HistoryPath())
				if err != nil {
					return fmt.Errorf("open history: %w", err)
				}
				defer hist.Close()
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			b, err := batch.New(runCtx, batch.Options{
				Config:     cfg,
				Store:      store,
				Logger:     logger,
				ScratchDir: scratchDir,
				DryRun:     dryRun,
				SkipEncode: skipEncode,
				Debug:      debug,
				History:    hist,
			})
			if err != nil {
				return err
			}
			if err := b.Wait(runCtx); err != nil {
				return err
			}

			rep := b.Report()
			if cfg.Report.Path != "" {
				if err := rep.WriteFile(cfg.Report.Path); err != nil {
					logger.Error("write report failed", logging.Error(err))
				}
			}
			if cfg.Report.Email != "" {
				if err := rep.Email("", cfg.Report.Email); err != nil {
					logger.Error("mail report failed", logging.Error(err))
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), rep.Render())

			if failures := b.Failures(); failures > 0 {
				return fmt.Errorf("%d job(s) failed", failures)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Plan the batch without launching encoders or copying files")
	cmd.Flags().BoolVar(&skipEncode, "skip-encode", false, "Skip external encodes but perform the remaining steps")
	cmd.Flags().BoolVar(&debug, "debug", false, "Pass verbose flags to the external encoders")
	return cmd
}
