// Package outcome defines the per-record result model for a sync run.
//
// Every CSV row that survives media-type filtering produces exactly one
// Outcome. Outcomes aggregate into a Summary; parallel workers each own a
// private Summary merged by summation once all workers finish.
package outcome
