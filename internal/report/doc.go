// Package report aggregates per-job encode outcomes into a batch report that
// can be rendered as text, written to disk, or mailed.
package report
