package dirscout

import "errors"

// Terminal pipeline conditions. Fetch-level errors are recovered inside the
// fallback orchestrator and never surface on their own; these are the
// conditions that end processing for one directory. They are reported as
// per-item outcomes, never as a failure that aborts a whole batch.
var (
	// ErrNoValidDirectory means every candidate URL was rejected by
	// structural page validation.
	ErrNoValidDirectory = errors.New("no valid directory page found")

	// ErrExtractionEmpty means a validated page yielded zero records that
	// passed validation.
	ErrExtractionEmpty = errors.New("no valid business records extracted")
)
