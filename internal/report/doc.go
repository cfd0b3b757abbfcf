// Package report turns a run summary into operator-facing output: the
// per-category count lines written to the log and the failure CSV that lets a
// user retry or hand-correct unmatched rows.
package report
