package library

import (
	"context"
	"fmt"

	"ratesync/internal/plex"
	"ratesync/internal/ratings"
)

type titleYearKey struct {
	title string
	year  string
}

// Index maps lookup keys to library items. Built once per run, read-only
// afterwards, and therefore safe to share across parallel workers.
type Index struct {
	byGUID      map[string]plex.Item
	byTitleYear map[titleYearKey]plex.Item
}

// ByGUID looks up an item by external GUID.
func (i *Index) ByGUID(guid string) (plex.Item, bool) {
	item, ok := i.byGUID[guid]
	return item, ok
}

// ByTitleYear looks up a movie item by folded title and year.
func (i *Index) ByTitleYear(title, year string) (plex.Item, bool) {
	item, ok := i.byTitleYear[titleYearKey{title: ratings.FoldTitle(title), year: year}]
	return item, ok
}

// GUIDCount returns the number of GUID keys in the index.
func (i *Index) GUIDCount() int {
	return len(i.byGUID)
}

// TitleYearCount returns the number of title/year keys in the index.
func (i *Index) TitleYearCount() int {
	return len(i.byTitleYear)
}

// BuildGUIDIndex enumerates every item in the given catalogs once and
// indexes each under all of its external GUIDs. A GUID present in more than
// one catalog keeps the first item seen, in catalog order.
func BuildGUIDIndex(ctx context.Context, catalogs []Catalog) (*Index, error) {
	index := &Index{byGUID: make(map[string]plex.Item)}
	for _, catalog := range catalogs {
		items, err := catalog.All(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan library %q: %w", catalog.Section().Title, err)
		}
		for _, item := range items {
			for _, guid := range item.AllGUIDs() {
				if _, exists := index.byGUID[guid]; !exists {
					index.byGUID[guid] = item
				}
			}
		}
	}
	return index, nil
}

// BuildTitleYearIndex enumerates every movie item in the given catalogs and
// indexes it by folded title and year. Non-movie items are excluded entirely
// so a same-named show can never shadow a movie. Collisions keep the first
// item seen.
func BuildTitleYearIndex(ctx context.Context, catalogs []Catalog) (*Index, error) {
	index := &Index{byTitleYear: make(map[titleYearKey]plex.Item)}
	for _, catalog := range catalogs {
		items, err := catalog.All(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan library %q: %w", catalog.Section().Title, err)
		}
		for _, item := range items {
			if item.Type != plex.ItemTypeMovie {
				continue
			}
			key := titleYearKey{title: ratings.FoldTitle(item.Title), year: item.Year}
			if _, exists := index.byTitleYear[key]; !exists {
				index.byTitleYear[key] = item
			}
		}
	}
	return index, nil
}
