package repository

import "errors"

// Sentinel kinds for persistence errors.
var (
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateActiveWarning rejects a draft while the fellow still
	// has a non-acknowledged warning at the same level.
	ErrDuplicateActiveWarning = errors.New("fellow already has an active warning at this level")

	// ErrEscalationOrder rejects a final warning for a fellow with no
	// issued first warning.
	ErrEscalationOrder = errors.New("final warning requires an issued first warning")
)
