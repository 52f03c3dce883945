package domain

// OutcomeKind tags the result of one item attempt.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeSkipped
	OutcomeFailed
)

// Outcome is the result of attempting one item.
type Outcome struct {
	Key  string
	Kind OutcomeKind

	// Success counters.
	Images int
	Videos int

	// Skipped file count and reason.
	Skipped    int
	SkipReason string

	// Failure classification.
	Severity Severity
	Err      error
}

// Success builds a successful outcome with media counts.
func Success(key string, images, videos int) Outcome {
	return Outcome{Key: key, Kind: OutcomeSuccess, Images: images, Videos: videos}
}

// Skipped builds an outcome for an item that required no work.
func Skipped(key string, files int, reason string) Outcome {
	return Outcome{Key: key, Kind: OutcomeSkipped, Skipped: files, SkipReason: reason}
}

// Failed builds an outcome for an item whose attempt ended in err.
func Failed(key string, err error) Outcome {
	return Outcome{Key: key, Kind: OutcomeFailed, Severity: Classify(err), Err: err}
}
