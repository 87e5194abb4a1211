package authz

import (
	"fmt"

	"github.com/comercio-cloud/comercio/internal/shared"
)

// Deny reasons. Callers receive the generic Forbidden outcome either way;
// the reason is for decision logging only.
const (
	ReasonUnauthenticated = "unauthenticated"
	ReasonMissingPolicy   = "missing module, role, or action"
	ReasonInsufficient    = "insufficient privilege"
)

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  string
}

// Allow is the positive decision.
var Allow = Decision{Allowed: true}

// Deny builds a negative decision with the given reason.
func Deny(reason string) Decision {
	return Decision{Reason: reason}
}

// Err converts a deny decision into the matching sentinel error. Allowed
// decisions return nil.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	if d.Reason == ReasonUnauthenticated {
		return shared.ErrUnauthenticated
	}
	return fmt.Errorf("%w: %s", shared.ErrForbidden, d.Reason)
}
