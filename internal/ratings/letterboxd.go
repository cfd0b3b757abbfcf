package ratings

import (
	"encoding/csv"
	"strconv"

	"ratesync/internal/outcome"
)

// Letterboxd export column names.
const (
	letterboxdColName   = "Name"
	letterboxdColYear   = "Year"
	letterboxdColRating = "Rating"
)

type titleYearKey struct {
	title string
	year  string
}

func parseLetterboxd(reader *csv.Reader, columns map[string]int) (*ParseResult, error) {
	result := &ParseResult{Source: SourceLetterboxd}
	// Letterboxd exports can contain duplicate log entries for the same film;
	// the first occurrence wins.
	seen := make(map[titleYearKey]struct{})

	for {
		fields, err := readRow(reader)
		if err != nil {
			return nil, err
		}
		if fields == nil {
			return result, nil
		}

		r := row{fields: fields, columns: columns}
		name := r.get(letterboxdColName)
		year := r.get(letterboxdColYear)
		ratingStr := r.get(letterboxdColRating)

		if name == "" || year == "" || ratingStr == "" {
			result.Invalid = append(result.Invalid, outcome.Outcome{
				Kind:       outcome.InvalidInput,
				Title:      name,
				Year:       year,
				SourceType: string(MediaTypeMovie),
				Reason:     outcome.ReasonMissingFields,
			})
			continue
		}

		rating, err := strconv.ParseFloat(ratingStr, 64)
		if err != nil || rating < 0 || rating > 5 {
			result.Invalid = append(result.Invalid, outcome.Outcome{
				Kind:       outcome.InvalidInput,
				Title:      name,
				Year:       year,
				SourceType: string(MediaTypeMovie),
				Reason:     outcome.ReasonInvalidRating,
			})
			continue
		}

		key := titleYearKey{title: FoldTitle(name), year: year}
		if _, dup := seen[key]; dup {
			result.Duplicates++
			continue
		}
		seen[key] = struct{}{}

		result.Records = append(result.Records, Record{
			Title:      name,
			Year:       year,
			SourceType: MediaTypeMovie,
			Source:     SourceLetterboxd,
			Rating:     rating * 2,
		})
	}
}
