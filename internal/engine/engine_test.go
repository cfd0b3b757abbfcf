package engine_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"ratesync/internal/engine"
	"ratesync/internal/library"
	"ratesync/internal/outcome"
	"ratesync/internal/plex"
	"ratesync/internal/ratings"
	"ratesync/internal/testsupport"
)

func movieItem(key, title, year, imdbID string, userRating *float64) plex.Item {
	return plex.Item{
		RatingKey:  key,
		Title:      title,
		Year:       year,
		Type:       plex.ItemTypeMovie,
		GUID:       "plex://movie/" + key,
		GUIDs:      []string{"imdb://" + imdbID},
		UserRating: userRating,
	}
}

func rating(v float64) *float64 { return &v }

func imdbRecord(id, title, year string, value float64) ratings.Record {
	return ratings.Record{
		ExternalID: id,
		Title:      title,
		Year:       year,
		SourceType: ratings.MediaTypeMovie,
		Source:     ratings.SourceIMDb,
		Rating:     value,
	}
}

func newFixture(items ...plex.Item) (*testsupport.FakeRemote, []library.Catalog, *testsupport.FakeCatalog) {
	catalog := &testsupport.FakeCatalog{
		Sec:   plex.Section{Key: "1", Title: "Movies", Type: plex.SectionTypeMovie},
		Items: items,
	}
	return testsupport.NewFakeRemote(items...), []library.Catalog{catalog}, catalog
}

func TestRunUpdatesUnratedItem(t *testing.T) {
	remote, catalogs, _ := newFixture(
		movieItem("101", "The Shawshank Redemption", "1994", "tt0111161", nil))
	eng := engine.New(remote, catalogs, nil, engine.Options{LazyThreshold: 1})

	parsed := &ratings.ParseResult{
		Source:  ratings.SourceIMDb,
		Records: []ratings.Record{imdbRecord("tt0111161", "The Shawshank Redemption", "1994", 9)},
	}
	summary, err := eng.Run(context.Background(), parsed)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Updated != 1 || summary.Total() != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if got := remote.Rated()["101"]; got != 9 {
		t.Fatalf("expected rating 9 written, got %v", got)
	}
}

func TestRunSkipsUnchangedRating(t *testing.T) {
	remote, catalogs, _ := newFixture(
		movieItem("101", "The Shawshank Redemption", "1994", "tt0111161", rating(9)))
	eng := engine.New(remote, catalogs, nil, engine.Options{LazyThreshold: 1})

	parsed := &ratings.ParseResult{
		Source:  ratings.SourceIMDb,
		Records: []ratings.Record{imdbRecord("tt0111161", "The Shawshank Redemption", "1994", 9)},
	}
	summary, err := eng.Run(context.Background(), parsed)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.SkippedUnchanged != 1 || summary.Updated != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if len(remote.Rated()) != 0 {
		t.Fatal("no write expected for unchanged rating")
	}
}

func TestRunForceOverwriteRewritesUnchanged(t *testing.T) {
	remote, catalogs, _ := newFixture(
		movieItem("101", "Heat", "1995", "tt0113277", rating(10)))
	eng := engine.New(remote, catalogs, nil, engine.Options{LazyThreshold: 1, ForceOverwrite: true})

	parsed := &ratings.ParseResult{
		Source:  ratings.SourceIMDb,
		Records: []ratings.Record{imdbRecord("tt0113277", "Heat", "1995", 10)},
	}
	summary, err := eng.Run(context.Background(), parsed)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Updated != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if got := remote.Rated()["101"]; got != 10 {
		t.Fatalf("expected forced write, got %v", got)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	remote, catalogs, _ := newFixture(
		movieItem("101", "Heat", "1995", "tt0113277", nil),
		movieItem("102", "Fargo", "1996", "tt0116282", nil))
	parsed := &ratings.ParseResult{
		Source: ratings.SourceIMDb,
		Records: []ratings.Record{
			imdbRecord("tt0113277", "Heat", "1995", 10),
			imdbRecord("tt0116282", "Fargo", "1996", 8.5),
		},
	}

	eng := engine.New(remote, catalogs, nil, engine.Options{LazyThreshold: 1})
	first, err := eng.Run(context.Background(), parsed)
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if first.Updated != 2 {
		t.Fatalf("unexpected first summary: %+v", first)
	}

	second, err := eng.Run(context.Background(), parsed)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if second.Updated != 0 || second.SkippedUnchanged != 2 {
		t.Fatalf("expected second run to skip everything: %+v", second)
	}
}

func TestDryRunWritesNothing(t *testing.T) {
	remote, catalogs, _ := newFixture(
		movieItem("101", "Heat", "1995", "tt0113277", nil))
	eng := engine.New(remote, catalogs, nil, engine.Options{
		LazyThreshold: 1,
		DryRun:        true,
		MarkWatched:   true,
	})

	parsed := &ratings.ParseResult{
		Source:  ratings.SourceIMDb,
		Records: []ratings.Record{imdbRecord("tt0113277", "Heat", "1995", 10)},
	}
	summary, err := eng.Run(context.Background(), parsed)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Updated != 1 {
		t.Fatalf("dry run should count would-updates: %+v", summary)
	}
	if len(remote.Rated()) != 0 || remote.Watched("101") {
		t.Fatal("dry run must have no remote side effects")
	}
}

func TestRunMarksWatchedBestEffort(t *testing.T) {
	remote, catalogs, _ := newFixture(
		movieItem("101", "Heat", "1995", "tt0113277", nil))
	remote.WatchErr = errors.New("scrobble rejected")
	eng := engine.New(remote, catalogs, nil, engine.Options{LazyThreshold: 1, MarkWatched: true})

	parsed := &ratings.ParseResult{
		Source:  ratings.SourceIMDb,
		Records: []ratings.Record{imdbRecord("tt0113277", "Heat", "1995", 10)},
	}
	summary, err := eng.Run(context.Background(), parsed)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// The secondary write failed, but the rating write succeeded.
	if summary.Updated != 1 || summary.RateFailed != 0 {
		t.Fatalf("watched-mark failure must not demote the outcome: %+v", summary)
	}
}

func TestRunRecordsRateFailureAndContinues(t *testing.T) {
	remote, catalogs, _ := newFixture(
		movieItem("101", "Heat", "1995", "tt0113277", nil),
		movieItem("102", "Fargo", "1996", "tt0116282", nil))
	remote.RateErr = errors.New("503 from server")
	eng := engine.New(remote, catalogs, nil, engine.Options{LazyThreshold: 1})

	parsed := &ratings.ParseResult{
		Source: ratings.SourceIMDb,
		Records: []ratings.Record{
			imdbRecord("tt0113277", "Heat", "1995", 10),
			imdbRecord("tt0116282", "Fargo", "1996", 8.5),
		},
	}
	summary, err := eng.Run(context.Background(), parsed)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.RateFailed != 2 || summary.Total() != 2 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.Failures[0].Reason != "503 from server" {
		t.Fatalf("expected remote error text captured, got %q", summary.Failures[0].Reason)
	}
}

func TestRunCountsEveryRowExactlyOnce(t *testing.T) {
	remote, catalogs, _ := newFixture(
		movieItem("101", "Heat", "1995", "tt0113277", nil),
		plex.Item{RatingKey: "301", Title: "Fargo", Year: "2014", Type: plex.ItemTypeShow, GUIDs: []string{"imdb://tt2802850"}})

	parsed := &ratings.ParseResult{
		Source: ratings.SourceIMDb,
		Records: []ratings.Record{
			imdbRecord("tt0113277", "Heat", "1995", 10),
			imdbRecord("tt2802850", "Fargo", "2014", 8), // movie record, show item
			imdbRecord("tt9999999", "Unknown", "2020", 7),
		},
		Invalid: []outcome.Outcome{
			{Kind: outcome.InvalidInput, Title: "Bad Row", Reason: outcome.ReasonInvalidRating},
		},
		Filtered: 5,
	}

	eng := engine.New(remote, catalogs, nil, engine.Options{LazyThreshold: 1})
	summary, err := eng.Run(context.Background(), parsed)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Total() != 4 {
		t.Fatalf("expected 4 outcomes, got %d (%+v)", summary.Total(), summary)
	}
	if summary.Updated != 1 || summary.TypeMismatch != 1 || summary.NotFound != 1 || summary.InvalidInput != 1 {
		t.Fatalf("unexpected breakdown: %+v", summary)
	}
	if summary.Filtered != 5 {
		t.Fatalf("filtered rows must carry through: %+v", summary)
	}
	// The mismatched show must not have been written.
	if _, ok := remote.Rated()["301"]; ok {
		t.Fatal("type-mismatched item must not be rated")
	}
}

func TestRunUsesLazyLookupBelowThreshold(t *testing.T) {
	remote, catalogs, catalog := newFixture(
		movieItem("101", "Heat", "1995", "tt0113277", nil))
	eng := engine.New(remote, catalogs, nil, engine.Options{LazyThreshold: 10})

	parsed := &ratings.ParseResult{
		Source:  ratings.SourceIMDb,
		Records: []ratings.Record{imdbRecord("tt0113277", "Heat", "1995", 10)},
	}
	if _, err := eng.Run(context.Background(), parsed); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if catalog.AllCalls != 0 {
		t.Fatalf("lazy run must not scan the library, got %d scans", catalog.AllCalls)
	}
	if catalog.FindCalls != 1 {
		t.Fatalf("expected one guid search, got %d", catalog.FindCalls)
	}
}

func TestRunUsesBulkIndexAtThreshold(t *testing.T) {
	items := make([]plex.Item, 0, 5)
	records := make([]ratings.Record, 0, 5)
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("tt%07d", i)
		key := fmt.Sprintf("k%d", i)
		items = append(items, movieItem(key, "Film "+key, "2000", id, nil))
		records = append(records, imdbRecord(id, "Film "+key, "2000", 7))
	}
	remote, catalogs, catalog := newFixture(items...)
	eng := engine.New(remote, catalogs, nil, engine.Options{LazyThreshold: 5})

	parsed := &ratings.ParseResult{Source: ratings.SourceIMDb, Records: records}
	summary, err := eng.Run(context.Background(), parsed)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if catalog.AllCalls != 1 || catalog.FindCalls != 0 {
		t.Fatalf("expected one bulk scan and no searches, got %d/%d", catalog.AllCalls, catalog.FindCalls)
	}
	if summary.Updated != 5 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestRunLetterboxdMatchesByTitleYear(t *testing.T) {
	remote, catalogs, _ := newFixture(
		movieItem("101", "Amélie", "2001", "tt0211915", nil),
		plex.Item{RatingKey: "301", Title: "Amélie", Year: "2001", Type: plex.ItemTypeShow})

	parsed := &ratings.ParseResult{
		Source: ratings.SourceLetterboxd,
		Records: []ratings.Record{
			{Title: "AMÉLIE", Year: "2001", SourceType: ratings.MediaTypeMovie, Source: ratings.SourceLetterboxd, Rating: 9},
			{Title: "Missing Film", Year: "1990", SourceType: ratings.MediaTypeMovie, Source: ratings.SourceLetterboxd, Rating: 9},
		},
	}
	eng := engine.New(remote, catalogs, nil, engine.Options{})
	summary, err := eng.Run(context.Background(), parsed)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Updated != 1 || summary.NotFound != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if got := remote.Rated()["101"]; got != 9 {
		t.Fatalf("expected the movie rated, got %v", remote.Rated())
	}
	if summary.Failures[0].Rating != 9 {
		t.Fatalf("not-found outcome must carry the submitted rating: %+v", summary.Failures[0])
	}
}

func TestRunParallelCountsAreExact(t *testing.T) {
	const rows = 40
	items := make([]plex.Item, 0, rows)
	records := make([]ratings.Record, 0, rows)
	for i := 0; i < rows; i++ {
		id := fmt.Sprintf("tt%07d", i)
		key := fmt.Sprintf("k%d", i)
		items = append(items, movieItem(key, "Film "+key, "2000", id, nil))
		records = append(records, imdbRecord(id, "Film "+key, "2000", 7))
	}
	// Half the records have no library item.
	for i := 0; i < rows; i++ {
		id := fmt.Sprintf("tt1%06d", i)
		records = append(records, imdbRecord(id, "Ghost", "1999", 6))
	}

	remote, catalogs, catalog := newFixture(items...)
	eng := engine.New(remote, catalogs, nil, engine.Options{
		LazyThreshold:      1,
		ParallelThreshold:  10,
		Workers:            4,
		MaxWritesPerSecond: 1000,
	})

	parsed := &ratings.ParseResult{Source: ratings.SourceIMDb, Records: records}
	summary, err := eng.Run(context.Background(), parsed)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if catalog.AllCalls != 1 {
		t.Fatalf("parallel run must use the bulk index, got %d scans", catalog.AllCalls)
	}
	if summary.Updated != rows || summary.NotFound != rows {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.Total() != 2*rows {
		t.Fatalf("Total = %d, want %d", summary.Total(), 2*rows)
	}
	if len(remote.Rated()) != rows {
		t.Fatalf("expected %d writes, got %d", rows, len(remote.Rated()))
	}
}

func TestProgressCallbackSeesEveryRecord(t *testing.T) {
	remote, catalogs, _ := newFixture(
		movieItem("101", "Heat", "1995", "tt0113277", nil))
	var calls int
	var lastDone, lastTotal int
	eng := engine.New(remote, catalogs, nil, engine.Options{
		LazyThreshold: 1,
		Progress: func(done, total int) {
			calls++
			lastDone, lastTotal = done, total
		},
	})

	parsed := &ratings.ParseResult{
		Source:  ratings.SourceIMDb,
		Records: []ratings.Record{imdbRecord("tt0113277", "Heat", "1995", 10)},
		Invalid: []outcome.Outcome{{Kind: outcome.InvalidInput, Reason: outcome.ReasonMissingID}},
	}
	if _, err := eng.Run(context.Background(), parsed); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if calls != 2 || lastDone != 2 || lastTotal != 2 {
		t.Fatalf("unexpected progress: calls=%d done=%d total=%d", calls, lastDone, lastTotal)
	}
}
