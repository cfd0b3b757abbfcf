package ratings

import (
	"fmt"
	"strings"
)

// SourceKind selects which export schema a CSV file follows.
type SourceKind int

const (
	// SourceIMDb is an IMDb ratings export (Const, Title Type, Your Rating, ...).
	SourceIMDb SourceKind = iota
	// SourceLetterboxd is a Letterboxd ratings export (Name, Year, Rating).
	SourceLetterboxd
)

func (k SourceKind) String() string {
	switch k {
	case SourceIMDb:
		return "imdb"
	case SourceLetterboxd:
		return "letterboxd"
	default:
		return "unknown"
	}
}

// ParseSourceKind converts a user-facing source name into a SourceKind.
func ParseSourceKind(value string) (SourceKind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "imdb":
		return SourceIMDb, nil
	case "letterboxd":
		return SourceLetterboxd, nil
	default:
		return 0, fmt.Errorf("unknown rating source %q (expected imdb or letterboxd)", value)
	}
}

// MediaType is an IMDb title type as it appears in the Title Type column.
type MediaType string

const (
	MediaTypeMovie        MediaType = "Movie"
	MediaTypeTVSeries     MediaType = "TV Series"
	MediaTypeTVMiniSeries MediaType = "TV Mini Series"
	MediaTypeTVMovie      MediaType = "TV Movie"
	MediaTypeShort        MediaType = "Short"
	MediaTypeTVEpisode    MediaType = "TV Episode"
)

// AllMediaTypes lists every supported IMDb title type.
func AllMediaTypes() []MediaType {
	return []MediaType{
		MediaTypeMovie,
		MediaTypeTVSeries,
		MediaTypeTVMiniSeries,
		MediaTypeTVMovie,
		MediaTypeShort,
		MediaTypeTVEpisode,
	}
}

// ParseMediaType converts a user-facing type name (case and space
// insensitive) into a MediaType.
func ParseMediaType(value string) (MediaType, error) {
	normalized := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(value), " ", ""))
	for _, mt := range AllMediaTypes() {
		canonical := strings.ToLower(strings.ReplaceAll(string(mt), " ", ""))
		if normalized == canonical {
			return mt, nil
		}
	}
	return "", fmt.Errorf("unknown media type %q", value)
}

// TypeFilter is the set of IMDb title types selected for a run. Rows outside
// the set are dropped silently rather than reported as failures.
type TypeFilter struct {
	allowed map[MediaType]struct{}
}

// NewTypeFilter builds a filter allowing exactly the given types.
func NewTypeFilter(types ...MediaType) TypeFilter {
	allowed := make(map[MediaType]struct{}, len(types))
	for _, t := range types {
		allowed[t] = struct{}{}
	}
	return TypeFilter{allowed: allowed}
}

// DefaultTypeFilter allows every supported title type.
func DefaultTypeFilter() TypeFilter {
	return NewTypeFilter(AllMediaTypes()...)
}

// Allows reports whether the filter admits the given title type.
func (f TypeFilter) Allows(t MediaType) bool {
	if f.allowed == nil {
		return false
	}
	_, ok := f.allowed[t]
	return ok
}

// Record is one normalized rating row. Ratings are on the 0-10 scale
// regardless of source.
type Record struct {
	ExternalID string
	Title      string
	Year       string
	SourceType MediaType
	Source     SourceKind
	Rating     float64
}
