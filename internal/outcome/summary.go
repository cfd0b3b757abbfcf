package outcome

// Summary aggregates outcome counts for one sync run.
type Summary struct {
	Updated          int
	SkippedUnchanged int
	NotFound         int
	TypeMismatch     int
	InvalidInput     int
	RateFailed       int

	// Breakdown of InvalidInput by cause.
	MissingID     int
	MissingFields int
	InvalidRating int

	// Filtered counts rows dropped by the media-type filter. They are not
	// part of Total.
	Filtered int

	// Failures holds every outcome destined for the failure export, in
	// processing order within each worker.
	Failures []Outcome

	// Planned holds would-be updates collected during dry runs only, so a
	// preview can list them. Live runs leave it empty.
	Planned []Outcome

	DryRun     bool
	ExportPath string
}

// Record folds one outcome into the summary.
func (s *Summary) Record(o Outcome) {
	switch o.Kind {
	case Updated:
		s.Updated++
	case SkippedUnchanged:
		s.SkippedUnchanged++
	case NotFound:
		s.NotFound++
	case TypeMismatch:
		s.TypeMismatch++
	case InvalidInput:
		s.InvalidInput++
		switch o.Reason {
		case ReasonMissingID:
			s.MissingID++
		case ReasonInvalidRating:
			s.InvalidRating++
		default:
			s.MissingFields++
		}
	case RateFailed:
		s.RateFailed++
	}
	if o.Failure() {
		s.Failures = append(s.Failures, o)
	}
	if s.DryRun && o.Kind == Updated {
		s.Planned = append(s.Planned, o)
	}
}

// Merge adds another summary's counts and failures into this one. Used to
// combine per-worker summaries after a parallel run.
func (s *Summary) Merge(other *Summary) {
	if other == nil {
		return
	}
	s.Updated += other.Updated
	s.SkippedUnchanged += other.SkippedUnchanged
	s.NotFound += other.NotFound
	s.TypeMismatch += other.TypeMismatch
	s.InvalidInput += other.InvalidInput
	s.RateFailed += other.RateFailed
	s.MissingID += other.MissingID
	s.MissingFields += other.MissingFields
	s.InvalidRating += other.InvalidRating
	s.Filtered += other.Filtered
	s.Failures = append(s.Failures, other.Failures...)
	s.Planned = append(s.Planned, other.Planned...)
}

// Total returns the number of records that received an outcome. Filtered rows
// are excluded.
func (s *Summary) Total() int {
	return s.Updated + s.SkippedUnchanged + s.NotFound + s.TypeMismatch + s.InvalidInput + s.RateFailed
}
