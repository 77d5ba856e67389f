// Package jobstore persists the per-batch job ledger: which input files have
// been encoded and which are still pending. The ledger survives process
// restarts so an interrupted batch resumes where it left off.
package jobstore
