package ratings

import (
	"encoding/csv"
	"strconv"

	"ratesync/internal/outcome"
)

// IMDb export column names.
const (
	imdbColConst     = "Const"
	imdbColTitle     = "Title"
	imdbColTitleType = "Title Type"
	imdbColRating    = "Your Rating"
	imdbColYear      = "Year"
)

func parseIMDb(reader *csv.Reader, columns map[string]int, filter TypeFilter) (*ParseResult, error) {
	result := &ParseResult{Source: SourceIMDb}

	for {
		fields, err := readRow(reader)
		if err != nil {
			return nil, err
		}
		if fields == nil {
			return result, nil
		}

		r := row{fields: fields, columns: columns}
		titleType := MediaType(r.get(imdbColTitleType))
		if !filter.Allows(titleType) {
			result.Filtered++
			continue
		}

		title := r.get(imdbColTitle)
		year := r.get(imdbColYear)

		id := r.get(imdbColConst)
		if id == "" {
			result.Invalid = append(result.Invalid, outcome.Outcome{
				Kind:       outcome.InvalidInput,
				Title:      title,
				Year:       year,
				SourceType: string(titleType),
				Reason:     outcome.ReasonMissingID,
			})
			continue
		}

		rating, err := strconv.ParseFloat(r.get(imdbColRating), 64)
		if err != nil || rating < 0 || rating > 10 {
			result.Invalid = append(result.Invalid, outcome.Outcome{
				Kind:       outcome.InvalidInput,
				Title:      title,
				Year:       year,
				ExternalID: id,
				SourceType: string(titleType),
				Reason:     outcome.ReasonInvalidRating,
			})
			continue
		}

		result.Records = append(result.Records, Record{
			ExternalID: id,
			Title:      title,
			Year:       year,
			SourceType: titleType,
			Source:     SourceIMDb,
			Rating:     rating,
		})
	}
}
