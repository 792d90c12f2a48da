package warning

import "errors"

var (
	// ErrInvalidTransition is returned when a status change is not part
	// of the drafted -> issued -> acknowledged ladder.
	ErrInvalidTransition = errors.New("invalid warning transition")

	// ErrUnknownLevel is returned when parsing an unrecognized level name.
	ErrUnknownLevel = errors.New("unknown warning level")
)
