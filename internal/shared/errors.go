package shared

import "errors"

var (
	// ErrNotFound indicates resource not found within the caller's scope.
	ErrNotFound = errors.New("not found")
	// ErrForbidden indicates the principal lacks the required permission.
	ErrForbidden = errors.New("permission denied")
	// ErrUnauthenticated indicates no valid principal on the request.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrValidation indicates malformed input rejected before any mutation.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicate indicates a uniqueness constraint violation.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// UserSafeMessage returns a message that can be surfaced to API clients
// without leaking policy or storage internals.
func UserSafeMessage(err error) string {
	switch {
	case errors.Is(err, ErrForbidden):
		return "Permission denied: you do not have the required role or privileges to perform this action."
	case errors.Is(err, ErrUnauthenticated):
		return "Authentication required."
	case errors.Is(err, ErrNotFound):
		return "The requested record was not found."
	case errors.Is(err, ErrDuplicate):
		return "A record with the same identifying values already exists."
	case errors.Is(err, ErrValidation):
		return "The submitted data is invalid."
	default:
		return "The operation could not be completed."
	}
}
