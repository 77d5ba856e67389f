// Package history keeps a SQLite ledger of past batch runs and their
// per-job outcomes. Unlike the job store, which only tracks the current
// batch, history accumulates across batches for later inspection.
package history
