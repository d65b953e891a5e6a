package services

import "errors"

// Sentinel errors shared by the service wrappers.
var (
	// ErrNotFound signals a missing post, avatar or session.
	ErrNotFound = errors.New("not found")
	// ErrNotAuthenticated signals a call that requires a signed-in user.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrSessionExpired signals a stored session token that no longer works.
	ErrSessionExpired = errors.New("session expired")
)
