// Package library builds lookup indexes over remote library sections and
// resolves rating records to library items.
//
// Two lookup strategies exist: a bulk index built from one full enumeration
// of each selected section, and a lazy per-record GUID search that avoids
// the full scan for small batches. Letterboxd records always use a bulk
// title/year index over movie items because no stable external id exists.
package library
