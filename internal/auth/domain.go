// Package auth implements credential login and logout over the session
// layer, with each successful transition recorded in the bitácora.
package auth

import "time"

// Credential is the subset of a user account the login flow needs.
type Credential struct {
	UserID       int64
	Email        string
	PasswordHash string
	IsActive     bool
}

// SessionRecord is the postgres bookkeeping row kept alongside the redis
// session state.
type SessionRecord struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
	IP        string
	UserAgent string
}
