package llm

import "errors"

var (
	// ErrMissingAPIKey is returned when the completer is constructed
	// without credentials.
	ErrMissingAPIKey = errors.New("llm api key not configured")

	// ErrRateLimited marks a 429 from the provider. Retried with
	// exponential backoff before surfacing.
	ErrRateLimited = errors.New("llm rate limited")

	// ErrTimeout marks a call that exceeded its deadline. The draft
	// request is abandoned; no partial record is created.
	ErrTimeout = errors.New("llm call timed out")

	// ErrService marks any other provider failure.
	ErrService = errors.New("llm service error")
)
