// Package plex is a minimal HTTP client for the parts of the Plex Media
// Server API that rating reconciliation needs: section listing, item
// enumeration, GUID search, item fetch, rating writes, and watched marks.
//
// Server discovery goes through the plex.tv resources API. Established
// server connections are cached for the life of the process in an explicit
// ConnectionCache so repeated library lookups skip the connect round-trip.
package plex
