package engine

import (
	"context"
	"io"
	"log/slog"

	"golang.org/x/time/rate"

	"ratesync/internal/library"
	"ratesync/internal/logging"
	"ratesync/internal/outcome"
	"ratesync/internal/plex"
	"ratesync/internal/ratings"
)

// Remote is the write surface of the target server.
type Remote interface {
	Item(ctx context.Context, ratingKey string) (plex.Item, error)
	Rate(ctx context.Context, ratingKey string, rating float64) error
	MarkWatched(ctx context.Context, ratingKey string) error
}

// Options control one engine run.
type Options struct {
	MarkWatched    bool
	ForceOverwrite bool
	DryRun         bool

	// LazyThreshold is the IMDb row count at which the engine switches from
	// per-row GUID search to a bulk index scan.
	LazyThreshold int
	// ParallelThreshold is the row count at which a live bulk-indexed run
	// fans out over the worker pool.
	ParallelThreshold int
	Workers           int
	// MaxWritesPerSecond throttles remote writes. Zero means unlimited.
	MaxWritesPerSecond int

	// Progress, when set, is called after each processed record. It must be
	// safe for concurrent use: parallel runs invoke it from worker goroutines.
	Progress func(done, total int)
}

const (
	defaultLazyThreshold     = 300
	defaultParallelThreshold = 600
	defaultWorkers           = 6
)

func (o Options) withDefaults() Options {
	if o.LazyThreshold <= 0 {
		o.LazyThreshold = defaultLazyThreshold
	}
	if o.ParallelThreshold <= 0 {
		o.ParallelThreshold = defaultParallelThreshold
	}
	if o.Workers <= 0 {
		o.Workers = defaultWorkers
	}
	return o
}

// Engine reconciles rating records against one server's libraries.
type Engine struct {
	remote   Remote
	catalogs []library.Catalog
	logger   *slog.Logger
	opts     Options
	limiter  *rate.Limiter
}

// New constructs an engine over the given write surface and library sections.
func New(remote Remote, catalogs []library.Catalog, logger *slog.Logger, opts Options) *Engine {
	opts = opts.withDefaults()
	limit := rate.Inf
	burst := 1
	if opts.MaxWritesPerSecond > 0 {
		limit = rate.Limit(opts.MaxWritesPerSecond)
		burst = opts.MaxWritesPerSecond
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{
		remote:   remote,
		catalogs: catalogs,
		logger:   logging.WithComponent(logger, "engine"),
		opts:     opts,
		limiter:  rate.NewLimiter(limit, burst),
	}
}

// Run processes every record in the parse result and returns the aggregated
// summary. Only index-build failures (connection-level problems) return an
// error; per-record problems become outcomes.
func (e *Engine) Run(ctx context.Context, parsed *ratings.ParseResult) (*outcome.Summary, error) {
	summary := &outcome.Summary{DryRun: e.opts.DryRun, Filtered: parsed.Filtered}

	resolver, err := e.buildResolver(ctx, parsed)
	if err != nil {
		return nil, err
	}

	total := parsed.Rows()
	done := 0
	step := func() {
		done++
		if e.opts.Progress != nil {
			e.opts.Progress(done, total)
		}
	}

	for _, invalid := range parsed.Invalid {
		summary.Record(invalid)
		e.logOutcome(invalid)
		step()
	}

	// Dry-run previews and lazy lookups stay sequential: previews must log
	// deterministically in input order, and lazy lookups already pay one
	// remote call per row.
	parallel := !e.opts.DryRun && !resolver.Lazy() &&
		len(parsed.Records) >= e.opts.ParallelThreshold && e.opts.Workers > 1

	if parallel {
		e.runParallel(ctx, resolver, parsed.Records, summary, done, total)
		return summary, nil
	}

	for _, record := range parsed.Records {
		result := e.process(ctx, resolver, record)
		summary.Record(result)
		e.logOutcome(result)
		step()
	}
	return summary, nil
}

func (e *Engine) buildResolver(ctx context.Context, parsed *ratings.ParseResult) (*library.Resolver, error) {
	if parsed.Source == ratings.SourceLetterboxd {
		index, err := library.BuildTitleYearIndex(ctx, e.catalogs)
		if err != nil {
			return nil, err
		}
		e.logger.Debug("built title/year index", slog.Int("keys", index.TitleYearCount()))
		return library.NewIndexResolver(index), nil
	}

	if len(parsed.Records) >= e.opts.LazyThreshold {
		index, err := library.BuildGUIDIndex(ctx, e.catalogs)
		if err != nil {
			return nil, err
		}
		e.logger.Debug("built guid index", slog.Int("keys", index.GUIDCount()))
		return library.NewIndexResolver(index), nil
	}

	e.logger.Debug("using lazy per-row lookup", slog.Int("rows", len(parsed.Records)))
	return library.NewLazyResolver(e.catalogs), nil
}

func (e *Engine) process(ctx context.Context, resolver *library.Resolver, record ratings.Record) outcome.Outcome {
	item, terminal := resolver.Resolve(ctx, record)
	if terminal != nil {
		return *terminal
	}
	return e.apply(ctx, record, item)
}

func (e *Engine) logOutcome(o outcome.Outcome) {
	label := o.Title
	if o.Year != "" {
		label = label + " (" + o.Year + ")"
	}
	switch o.Kind {
	case outcome.Updated:
		if o.Reason == reasonWouldUpdate {
			e.logger.Info("would update rating", slog.String("item", label), slog.Float64("rating", o.Rating))
		} else {
			e.logger.Info("updated rating", slog.String("item", label), slog.Float64("rating", o.Rating))
		}
	case outcome.SkippedUnchanged:
		e.logger.Info("skipping unchanged rating", slog.String("item", label), slog.Float64("rating", o.Rating))
	default:
		e.logger.Warn(o.Kind.String(), slog.String("item", label), slog.String("reason", o.Reason))
	}
}
