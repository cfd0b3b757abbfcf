package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"ratesync/internal/outcome"
	"ratesync/internal/ratings"
)

var exportHeader = []string{"Title", "Year", "ExternalID", "Reason", "SubmittedRating", "SourceType"}

// ExportFailures writes the summary's failed rows to a CSV in dir and records
// the path on the summary. Dry runs and failure-free runs export nothing and
// return an empty path.
func ExportFailures(dir, inputPath string, source ratings.SourceKind, s *outcome.Summary, now time.Time) (string, error) {
	if s.DryRun || len(s.Failures) == 0 {
		return "", nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}

	path := filepath.Join(dir, exportName(inputPath, source, now))
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create failure export: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(exportHeader); err != nil {
		return "", fmt.Errorf("write failure export: %w", err)
	}
	for _, failure := range s.Failures {
		row := []string{
			failure.Title,
			failure.Year,
			failure.ExternalID,
			failure.Reason,
			formatRating(failure.Rating),
			failure.SourceType,
		}
		if err := writer.Write(row); err != nil {
			return "", fmt.Errorf("write failure export: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("write failure export: %w", err)
	}

	s.ExportPath = path
	return path, nil
}

// exportName derives the export file name from the input CSV's base name, the
// source, and the run timestamp.
func exportName(inputPath string, source ratings.SourceKind, now time.Time) string {
	base := filepath.Base(inputPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." {
		base = "ratings"
	}
	return fmt.Sprintf("%s_%s_failures_%s.csv", base, source, now.Format("20060102_150405"))
}

func formatRating(value float64) string {
	if value == 0 {
		return ""
	}
	return strconv.FormatFloat(value, 'g', -1, 64)
}
