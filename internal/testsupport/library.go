package testsupport

import (
	"context"
	"fmt"
	"sync"

	"ratesync/internal/plex"
)

// FakeCatalog is an in-memory library section.
type FakeCatalog struct {
	Sec   plex.Section
	Items []plex.Item

	mu        sync.Mutex
	AllCalls  int
	FindCalls int
}

func (f *FakeCatalog) Section() plex.Section {
	return f.Sec
}

func (f *FakeCatalog) All(ctx context.Context) ([]plex.Item, error) {
	f.mu.Lock()
	f.AllCalls++
	f.mu.Unlock()
	return f.Items, nil
}

func (f *FakeCatalog) FindByGUID(ctx context.Context, guid string) (plex.Item, bool, error) {
	f.mu.Lock()
	f.FindCalls++
	f.mu.Unlock()
	for _, item := range f.Items {
		for _, candidate := range item.AllGUIDs() {
			if candidate == guid {
				return item, true, nil
			}
		}
	}
	return plex.Item{}, false, nil
}

// FakeRemote is an in-memory stand-in for a Plex server's write surface.
// Rate updates the stored item's user rating so idempotence can be observed.
type FakeRemote struct {
	mu       sync.Mutex
	items    map[string]plex.Item
	rated    map[string]float64
	watched  map[string]bool
	RateErr  error
	WatchErr error
}

// NewFakeRemote seeds a remote with the given items, keyed by rating key.
func NewFakeRemote(items ...plex.Item) *FakeRemote {
	remote := &FakeRemote{
		items:   make(map[string]plex.Item, len(items)),
		rated:   make(map[string]float64),
		watched: make(map[string]bool),
	}
	for _, item := range items {
		remote.items[item.RatingKey] = item
	}
	return remote
}

func (f *FakeRemote) Item(ctx context.Context, ratingKey string) (plex.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[ratingKey]
	if !ok {
		return plex.Item{}, fmt.Errorf("fetch item %s: %w", ratingKey, plex.ErrNotFound)
	}
	return item, nil
}

func (f *FakeRemote) Rate(ctx context.Context, ratingKey string, rating float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.RateErr != nil {
		return f.RateErr
	}
	item, ok := f.items[ratingKey]
	if !ok {
		return fmt.Errorf("rate item %s: %w", ratingKey, plex.ErrNotFound)
	}
	value := rating
	item.UserRating = &value
	f.items[ratingKey] = item
	f.rated[ratingKey] = rating
	return nil
}

func (f *FakeRemote) MarkWatched(ctx context.Context, ratingKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.WatchErr != nil {
		return f.WatchErr
	}
	f.watched[ratingKey] = true
	return nil
}

// Rated returns the ratings written so far, keyed by rating key.
func (f *FakeRemote) Rated() map[string]float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]float64, len(f.rated))
	for k, v := range f.rated {
		out[k] = v
	}
	return out
}

// Watched reports whether the item was scrobbled.
func (f *FakeRemote) Watched(ratingKey string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.watched[ratingKey]
}
