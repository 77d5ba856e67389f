// Package batch drives one batch invocation end to end: reconcile the job
// ledger, bind a strategy to every pending job, run the jobs sequentially,
// and overlap each finished job's archive work with the wall-clock wait on
// the next job's external encode.
package batch
