package library

import (
	"context"
	"fmt"

	"ratesync/internal/outcome"
	"ratesync/internal/plex"
	"ratesync/internal/ratings"
)

// CompatibleItemType returns the library item type a given IMDb title type
// may match, or false for unrecognized types.
func CompatibleItemType(t ratings.MediaType) (string, bool) {
	switch t {
	case ratings.MediaTypeMovie, ratings.MediaTypeTVMovie, ratings.MediaTypeShort:
		return plex.ItemTypeMovie, true
	case ratings.MediaTypeTVSeries, ratings.MediaTypeTVMiniSeries:
		return plex.ItemTypeShow, true
	case ratings.MediaTypeTVEpisode:
		return plex.ItemTypeEpisode, true
	default:
		return "", false
	}
}

// Resolver maps rating records to zero-or-one library item. Exactly one of
// index or catalogs is set: a bulk index, or catalogs for per-record lazy
// GUID search.
type Resolver struct {
	index    *Index
	catalogs []Catalog
}

// NewIndexResolver resolves against a pre-built bulk index.
func NewIndexResolver(index *Index) *Resolver {
	return &Resolver{index: index}
}

// NewLazyResolver resolves by issuing one GUID search per record against
// each catalog in order.
func NewLazyResolver(catalogs []Catalog) *Resolver {
	return &Resolver{catalogs: catalogs}
}

// Lazy reports whether this resolver issues a remote search per record.
func (r *Resolver) Lazy() bool {
	return r.index == nil
}

// Resolve maps one record to a library item. When no item applies, resolution
// terminates with a NotFound or TypeMismatch outcome instead.
func (r *Resolver) Resolve(ctx context.Context, record ratings.Record) (plex.Item, *outcome.Outcome) {
	switch record.Source {
	case ratings.SourceLetterboxd:
		return r.resolveTitleYear(record)
	default:
		return r.resolveGUID(ctx, record)
	}
}

func (r *Resolver) resolveGUID(ctx context.Context, record ratings.Record) (plex.Item, *outcome.Outcome) {
	guid := "imdb://" + record.ExternalID

	var (
		item  plex.Item
		found bool
	)
	if r.index != nil {
		item, found = r.index.ByGUID(guid)
	} else {
		for _, catalog := range r.catalogs {
			candidate, ok, err := catalog.FindByGUID(ctx, guid)
			if err != nil {
				// A failed per-row search must not abort the batch; the
				// record simply cannot be matched.
				return plex.Item{}, terminal(record, outcome.NotFound, fmt.Sprintf("guid search failed: %v", err))
			}
			if ok {
				item, found = candidate, true
				break
			}
		}
	}
	if !found {
		return plex.Item{}, terminal(record, outcome.NotFound, "no library item with matching IMDb id")
	}

	expected, known := CompatibleItemType(record.SourceType)
	if known && item.Type != expected {
		reason := fmt.Sprintf("type mismatch (CSV: %s, library: %s)", record.SourceType, item.Type)
		return plex.Item{}, terminal(record, outcome.TypeMismatch, reason)
	}
	return item, nil
}

func (r *Resolver) resolveTitleYear(record ratings.Record) (plex.Item, *outcome.Outcome) {
	item, found := r.index.ByTitleYear(record.Title, record.Year)
	if !found {
		return plex.Item{}, terminal(record, outcome.NotFound, "no movie with matching title and year")
	}
	return item, nil
}

func terminal(record ratings.Record, kind outcome.Kind, reason string) *outcome.Outcome {
	return &outcome.Outcome{
		Kind:       kind,
		Title:      record.Title,
		Year:       record.Year,
		ExternalID: record.ExternalID,
		SourceType: string(record.SourceType),
		Rating:     record.Rating,
		Reason:     reason,
	}
}
