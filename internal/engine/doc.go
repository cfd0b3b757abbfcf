// Package engine applies parsed rating records to a remote library.
//
// For every record the engine resolves a library item, re-fetches it for an
// authoritative current rating, skips unchanged values, and writes the new
// rating (plus an optional best-effort watched mark). Large bulk-indexed
// live runs fan out over a fixed worker pool; each worker owns a private
// summary merged by summation at the end, and a shared token-bucket limiter
// throttles remote writes. A single record's failure never aborts the batch.
package engine
