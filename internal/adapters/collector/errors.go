package collector

import "errors"

var (
	// ErrDataUnavailable means the fellow has no check-in history at
	// all for the window. The caller may skip this evaluation period;
	// it is not fatal.
	ErrDataUnavailable = errors.New("no check-in data for window")

	// ErrMissingStore is returned when the collector is constructed
	// without one of its stores.
	ErrMissingStore = errors.New("collector store dependency is nil")
)
