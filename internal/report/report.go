package report

import (
	"fmt"
	"log/slog"
	"strings"

	"ratesync/internal/outcome"
)

// Stat is one labelled count in the end-of-run breakdown.
type Stat struct {
	Label string
	Value string
}

// Stats builds the breakdown for one summary. Zero-valued categories are
// omitted so the log stays readable on clean runs.
func Stats(s *outcome.Summary) []Stat {
	updatedLabel := "Updated"
	if s.DryRun {
		updatedLabel = "Would update"
	}

	stats := []Stat{
		{Label: "Processed", Value: fmt.Sprintf("%d", s.Total())},
		{Label: updatedLabel, Value: fmt.Sprintf("%d", s.Updated)},
		{Label: "Skipped unchanged", Value: fmt.Sprintf("%d", s.SkippedUnchanged)},
	}
	optional := []Stat{
		{Label: "Not found in Plex", Value: count(s.NotFound)},
		{Label: "Type mismatch", Value: count(s.TypeMismatch)},
		{Label: "Missing IMDb ID", Value: count(s.MissingID)},
		{Label: "Missing required fields", Value: count(s.MissingFields)},
		{Label: "Invalid rating value", Value: count(s.InvalidRating)},
		{Label: "Rate failed errors", Value: count(s.RateFailed)},
		{Label: "Filtered by type", Value: count(s.Filtered)},
	}
	for _, stat := range optional {
		if stat.Value != "" {
			stats = append(stats, stat)
		}
	}
	if s.ExportPath != "" {
		stats = append(stats, Stat{Label: "Exported failures", Value: s.ExportPath})
	}
	return stats
}

func count(n int) string {
	if n == 0 {
		return ""
	}
	return fmt.Sprintf("%d", n)
}

// Lines renders the breakdown as "Label: value" strings.
func Lines(s *outcome.Summary) []string {
	stats := Stats(s)
	lines := make([]string, 0, len(stats))
	for _, stat := range stats {
		lines = append(lines, stat.Label+": "+stat.Value)
	}
	return lines
}

// Log writes the breakdown to the logger, one line per category.
func Log(logger *slog.Logger, s *outcome.Summary) {
	for _, line := range Lines(s) {
		logger.Info(line)
	}
}

// String renders the breakdown as a single newline-joined block, used by the
// per-run log file.
func String(s *outcome.Summary) string {
	return strings.Join(Lines(s), "\n")
}
