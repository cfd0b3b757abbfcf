package report_test

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ratesync/internal/outcome"
	"ratesync/internal/ratings"
	"ratesync/internal/report"
)

func sampleSummary() *outcome.Summary {
	s := &outcome.Summary{}
	s.Record(outcome.Outcome{Kind: outcome.Updated, Title: "Heat", Rating: 10})
	s.Record(outcome.Outcome{Kind: outcome.SkippedUnchanged, Title: "Fargo", Rating: 8.5})
	s.Record(outcome.Outcome{
		Kind:       outcome.NotFound,
		Title:      "Brazil",
		Year:       "1985",
		ExternalID: "tt0088846",
		SourceType: "Movie",
		Rating:     9,
		Reason:     "no library item with matching IMDb id",
	})
	s.Record(outcome.Outcome{
		Kind:   outcome.InvalidInput,
		Title:  "Broken Row",
		Reason: outcome.ReasonInvalidRating,
	})
	return s
}

func TestLinesOmitsEmptyCategories(t *testing.T) {
	s := &outcome.Summary{Updated: 3, SkippedUnchanged: 1}
	lines := report.Lines(s)

	want := []string{"Processed: 4", "Updated: 3", "Skipped unchanged: 1"}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines %v, want %d", len(lines), lines, len(want))
	}
	for i, line := range want {
		if lines[i] != line {
			t.Errorf("line %d = %q, want %q", i, lines[i], line)
		}
	}
}

func TestLinesIncludesBreakdownAndExportPath(t *testing.T) {
	s := sampleSummary()
	s.ExportPath = "/tmp/outated_imdb_failures_20250101_120000.csv"
	joined := report.String(s)

	for _, want := range []string{
		"Not found in Plex: 1",
		"Invalid rating value: 1",
		"Exported failures: " + s.ExportPath,
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("missing %q in:\n%s", want, joined)
		}
	}
	if strings.Contains(joined, "Type mismatch") {
		t.Errorf("zero category must be omitted:\n%s", joined)
	}
}

func TestLinesDryRunLabel(t *testing.T) {
	s := &outcome.Summary{Updated: 2, DryRun: true}
	joined := report.String(s)
	if !strings.Contains(joined, "Would update: 2") {
		t.Fatalf("dry run must relabel updates:\n%s", joined)
	}
}

func TestExportFailuresWritesCSV(t *testing.T) {
	dir := t.TempDir()
	s := sampleSummary()
	now := time.Date(2025, 3, 9, 14, 5, 6, 0, time.UTC)

	path, err := report.ExportFailures(dir, "/home/user/my ratings.csv", ratings.SourceIMDb, s, now)
	if err != nil {
		t.Fatalf("ExportFailures: %v", err)
	}
	wantName := "my ratings_imdb_failures_20250309_140506.csv"
	if filepath.Base(path) != wantName {
		t.Fatalf("export name = %q, want %q", filepath.Base(path), wantName)
	}
	if s.ExportPath != path {
		t.Fatalf("summary export path not recorded: %q", s.ExportPath)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer file.Close()
	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2 failures", len(rows))
	}
	if got, want := strings.Join(rows[0], ","), "Title,Year,ExternalID,Reason,SubmittedRating,SourceType"; got != want {
		t.Fatalf("header = %q, want %q", got, want)
	}
	brazil := rows[1]
	if brazil[0] != "Brazil" || brazil[2] != "tt0088846" || brazil[4] != "9" {
		t.Fatalf("unexpected failure row: %v", brazil)
	}
}

func TestExportFailuresSuppressedForDryRun(t *testing.T) {
	dir := t.TempDir()
	s := sampleSummary()
	s.DryRun = true

	path, err := report.ExportFailures(dir, "ratings.csv", ratings.SourceIMDb, s, time.Now())
	if err != nil {
		t.Fatalf("ExportFailures: %v", err)
	}
	if path != "" || s.ExportPath != "" {
		t.Fatalf("dry run must not export, got %q", path)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("dry run left files behind: %v", entries)
	}
}

func TestExportFailuresSuppressedWithoutFailures(t *testing.T) {
	dir := t.TempDir()
	s := &outcome.Summary{Updated: 5}

	path, err := report.ExportFailures(dir, "ratings.csv", ratings.SourceLetterboxd, s, time.Now())
	if err != nil {
		t.Fatalf("ExportFailures: %v", err)
	}
	if path != "" {
		t.Fatalf("clean run must not export, got %q", path)
	}
}
