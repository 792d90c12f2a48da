package narrative

import "errors"

var (
	// ErrDraftTimeout marks a draft abandoned because the model call
	// exceeded its deadline. No warning record is created.
	ErrDraftTimeout = errors.New("draft abandoned: llm call timed out")

	// ErrEmptyConcerns rejects a draft request with nothing to say.
	ErrEmptyConcerns = errors.New("draft request has no concerns")
)

// ParseError reports a malformed model reply. The raw reply travels
// with the error so the reviewer can inspect what came back.
type ParseError struct {
	Reason string
	Raw    string
}

func (e *ParseError) Error() string {
	return "malformed draft reply: " + e.Reason
}
