package outcome

// Kind classifies the terminal state of one processed record.
type Kind int

const (
	// Updated means the rating write succeeded, or would have in dry-run mode.
	Updated Kind = iota
	// SkippedUnchanged means the remote rating already matched the submitted value.
	SkippedUnchanged
	// NotFound means no library item corresponded to the record.
	NotFound
	// TypeMismatch means a library item existed but its kind was incompatible.
	TypeMismatch
	// InvalidInput means the CSV row was malformed (missing field, bad rating).
	InvalidInput
	// RateFailed means the remote rejected or errored the rating write.
	RateFailed
)

func (k Kind) String() string {
	switch k {
	case Updated:
		return "updated"
	case SkippedUnchanged:
		return "skipped unchanged"
	case NotFound:
		return "not found"
	case TypeMismatch:
		return "type mismatch"
	case InvalidInput:
		return "invalid input"
	case RateFailed:
		return "rate failed"
	default:
		return "unknown"
	}
}

// Reasons attached to InvalidInput outcomes. The summary breaks invalid input
// down by these so the final report matches the per-cause counters the run
// log exposes.
const (
	ReasonMissingID     = "missing IMDb id"
	ReasonMissingFields = "missing required field"
	ReasonInvalidRating = "invalid rating value"
)

// Outcome records the terminal state of one rating record.
type Outcome struct {
	Kind       Kind
	Title      string
	Year       string
	ExternalID string
	SourceType string
	// Rating is the submitted value on the normalized 0-10 scale, recorded
	// even for records that never reached the write step.
	Rating float64
	// Reason carries diagnostic detail for non-success outcomes, including
	// remote error text for RateFailed.
	Reason string
}

// Failure reports whether this outcome belongs in the failure export.
func (o Outcome) Failure() bool {
	switch o.Kind {
	case Updated, SkippedUnchanged:
		return false
	default:
		return true
	}
}
