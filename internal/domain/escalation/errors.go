package escalation

import "errors"

// ErrNoActionNeeded signals that the policy found nothing to draft for
// the fellow this evaluation. It is an expected outcome, not a failure.
var ErrNoActionNeeded = errors.New("no escalation action needed")
