package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"ratesync/internal/outcome"
	"ratesync/internal/plex"
	"ratesync/internal/ratings"
)

// ratingEpsilon is the tolerance below which a stored rating counts as equal
// to the submitted one.
const ratingEpsilon = 0.01

// reasonWouldUpdate marks dry-run outcomes that would have written.
const reasonWouldUpdate = "dry run"

// apply decides and performs the write for one matched record.
func (e *Engine) apply(ctx context.Context, record ratings.Record, item plex.Item) outcome.Outcome {
	result := outcome.Outcome{
		Title:      item.Title,
		Year:       item.Year,
		ExternalID: record.ExternalID,
		SourceType: string(record.SourceType),
		Rating:     record.Rating,
	}
	if result.Title == "" {
		result.Title = record.Title
	}
	if result.Year == "" {
		result.Year = record.Year
	}

	// The index snapshot may predate this run; read the authoritative
	// current rating before deciding.
	fresh, err := e.remote.Item(ctx, item.RatingKey)
	if err != nil {
		result.Kind = outcome.RateFailed
		result.Reason = fmt.Sprintf("fetch before write: %v", err)
		return result
	}

	if !e.opts.ForceOverwrite && fresh.UserRating != nil &&
		math.Abs(*fresh.UserRating-record.Rating) <= ratingEpsilon {
		result.Kind = outcome.SkippedUnchanged
		return result
	}

	if e.opts.DryRun {
		result.Kind = outcome.Updated
		result.Reason = reasonWouldUpdate
		return result
	}

	if err := e.limiter.Wait(ctx); err != nil {
		result.Kind = outcome.RateFailed
		result.Reason = fmt.Sprintf("rate limiter: %v", err)
		return result
	}
	if err := e.remote.Rate(ctx, item.RatingKey, record.Rating); err != nil {
		result.Kind = outcome.RateFailed
		result.Reason = err.Error()
		return result
	}
	result.Kind = outcome.Updated

	if e.opts.MarkWatched {
		// Best effort: a failed watched mark never demotes the outcome.
		if err := e.limiter.Wait(ctx); err == nil {
			if err := e.remote.MarkWatched(ctx, item.RatingKey); err != nil {
				e.logger.Warn("mark watched failed",
					slog.String("item", result.Title),
					slog.Any("error", err))
			}
		}
	}
	return result
}
