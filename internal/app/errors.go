package service

import "errors"

var (
	// ErrBackpressure reports that the draft queue is full and the
	// evaluation should be retried later.
	ErrBackpressure = errors.New("draft queue full")
)
