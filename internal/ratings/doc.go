// Package ratings parses IMDb and Letterboxd CSV rating exports into
// canonical records on a shared 0-10 scale.
//
// Structural CSV problems (unreadable file, missing header) abort parsing
// with an error. Per-row problems never do: malformed rows become
// InvalidInput outcomes and parsing continues.
package ratings
