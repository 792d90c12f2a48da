package signal

import "errors"

// Sentinel kinds for signal validation errors.
var (
	ErrOutOfRange = errors.New("signal out of documented range")
)
