package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"ratesync/internal/engine"
	"ratesync/internal/library"
	"ratesync/internal/logging"
	"ratesync/internal/outcome"
	"ratesync/internal/ratings"
	"ratesync/internal/report"
	"ratesync/internal/runlog"
)

type syncFlags struct {
	source       string
	libraryName  string
	allLibraries bool
	dryRun       bool
	force        bool
	markWatched  bool
	types        []string
	workers      int
	rateLimit    int
}

func (f *syncFlags) register(cmd *cobra.Command, withDryRun bool) {
	cmd.Flags().StringVarP(&f.source, "source", "s", "", "Rating source: imdb or letterboxd (required)")
	cmd.Flags().StringVarP(&f.libraryName, "library", "l", "", "Library section to sync against")
	cmd.Flags().BoolVar(&f.allLibraries, "all-libraries", false, "Sync against every movie and show library")
	cmd.Flags().BoolVar(&f.force, "force", false, "Write ratings even when they already match")
	cmd.Flags().BoolVar(&f.markWatched, "mark-watched", false, "Also mark rated items as watched")
	cmd.Flags().StringSliceVar(&f.types, "types", nil, "IMDb title types to include (default: all)")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "Worker count for large runs (default from config)")
	cmd.Flags().IntVar(&f.rateLimit, "rate-limit", 0, "Maximum rating writes per second (default from config)")
	if withDryRun {
		cmd.Flags().BoolVarP(&f.dryRun, "dry-run", "n", false, "Log planned updates without writing")
	}
	_ = cmd.MarkFlagRequired("source")
}

func newSyncCommand(ctx *commandContext) *cobra.Command {
	var flags syncFlags

	cmd := &cobra.Command{
		Use:   "sync <ratings.csv>",
		Short: "Apply a ratings CSV export to the Plex library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := runSync(ctx, cmd, args[0], flags)
			return err
		},
	}

	flags.register(cmd, true)
	return cmd
}

func runSync(ctx *commandContext, cmd *cobra.Command, csvPath string, flags syncFlags) (*outcome.Summary, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}

	source, err := ratings.ParseSourceKind(flags.source)
	if err != nil {
		return nil, err
	}
	filter, err := buildTypeFilter(flags.types)
	if err != nil {
		return nil, err
	}
	if flags.libraryName != "" && flags.allLibraries {
		return nil, errors.New("--library and --all-libraries are mutually exclusive")
	}

	// One writer per machine: concurrent runs would race on ratings and the
	// history database.
	lock := flock.New(filepath.Join(cfg.Paths.DataDir, "ratesync.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return nil, errors.New("another ratesync run is already in progress")
	}
	defer func() { _ = lock.Unlock() }()

	started := time.Now()
	baseLogger, runLogPath, err := logging.NewForRun(cfg, started)
	if err != nil {
		return nil, err
	}
	runID := uuid.NewString()
	logger := baseLogger.With(
		slog.String(logging.FieldRunID, runID),
		slog.String(logging.FieldSource, source.String()),
	)

	file, err := os.Open(csvPath)
	if err != nil {
		return nil, fmt.Errorf("open ratings export: %w", err)
	}
	parsed, parseErr := ratings.Parse(file, source, filter)
	file.Close()
	if parseErr != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(csvPath), parseErr)
	}
	logger.Info("parsed ratings export",
		slog.String("file", csvPath),
		slog.Int("records", len(parsed.Records)),
		slog.Int("invalid", len(parsed.Invalid)),
		slog.Int("filtered", parsed.Filtered),
		slog.Int("duplicates", parsed.Duplicates))

	client, err := ctx.connect(cmd.Context())
	if err != nil {
		return nil, err
	}
	catalogs, err := library.SelectCatalogs(cmd.Context(), client, flags.libraryName, flags.allLibraries)
	if err != nil {
		return nil, err
	}
	for _, catalog := range catalogs {
		logger.Info("using library",
			slog.String(logging.FieldLibrary, catalog.Section().Title),
			slog.String("type", catalog.Section().Type))
	}

	eng := engine.New(client, catalogs, logger, engine.Options{
		MarkWatched:        flags.markWatched,
		ForceOverwrite:     flags.force,
		DryRun:             flags.dryRun,
		LazyThreshold:      cfg.Sync.LazyLookupThreshold,
		ParallelThreshold:  cfg.Sync.ParallelThreshold,
		Workers:            workerCount(flags.workers, cfg.Sync.Workers),
		MaxWritesPerSecond: writeLimit(flags.rateLimit, cfg.Sync.MaxWritesPerSecond),
		Progress:           progressFunc(cmd.ErrOrStderr()),
	})
	summary, err := eng.Run(cmd.Context(), parsed)
	if err != nil {
		return nil, err
	}
	finished := time.Now()

	if _, err := report.ExportFailures(cfg.Paths.ReportDir, csvPath, source, summary, finished); err != nil {
		logger.Warn("failure export failed", slog.Any("error", err))
	}
	report.Log(logger, summary)
	writeSummary(cmd.OutOrStdout(), summary)
	if runLogPath != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "\nRun log: %s\n", runLogPath)
	}

	if err := recordRun(cmd, cfg.Paths.DataDir, runlog.Run{
		ID:             runID,
		StartedAt:      started,
		FinishedAt:     finished,
		Source:         source.String(),
		Library:        libraryLabel(flags),
		InputPath:      csvPath,
		DryRun:         flags.dryRun,
		ForceOverwrite: flags.force,
		MarkWatched:    flags.markWatched,
	}, summary); err != nil {
		logger.Warn("record run history failed", slog.Any("error", err))
	}
	return summary, nil
}

func recordRun(cmd *cobra.Command, dataDir string, run runlog.Run, summary *outcome.Summary) error {
	store, err := runlog.Open(filepath.Join(dataDir, "history.db"))
	if err != nil {
		return err
	}
	defer store.Close()
	run.FillCounts(summary)
	return store.Record(cmd.Context(), run)
}

func buildTypeFilter(names []string) (ratings.TypeFilter, error) {
	if len(names) == 0 {
		return ratings.DefaultTypeFilter(), nil
	}
	types := make([]ratings.MediaType, 0, len(names))
	for _, name := range names {
		mediaType, err := ratings.ParseMediaType(name)
		if err != nil {
			return ratings.TypeFilter{}, err
		}
		types = append(types, mediaType)
	}
	return ratings.NewTypeFilter(types...), nil
}

func libraryLabel(flags syncFlags) string {
	switch {
	case flags.allLibraries:
		return "all"
	case strings.TrimSpace(flags.libraryName) != "":
		return flags.libraryName
	default:
		return "first eligible"
	}
}

func workerCount(flag, configured int) int {
	if flag > 0 {
		return flag
	}
	return configured
}

func writeLimit(flag, configured int) int {
	if flag > 0 {
		return flag
	}
	return configured
}

// progressFunc returns an in-place progress printer when stderr is a
// terminal, nil otherwise so piped output stays clean.
func progressFunc(w io.Writer) func(done, total int) {
	file, ok := w.(*os.File)
	if !ok || !isatty.IsTerminal(file.Fd()) {
		return nil
	}
	return func(done, total int) {
		fmt.Fprintf(file, "\rProcessing %d/%d", done, total)
		if done == total {
			fmt.Fprintln(file)
		}
	}
}
