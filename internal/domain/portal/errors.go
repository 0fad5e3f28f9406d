// Package portal defines the business records, error taxonomy, and repository
// contracts for the internship portal data layer.
package portal

import (
	"errors"
	"fmt"
)

// Error classes returned by the data layer. Handlers and callers branch on
// these with errors.As; the Class() string is what gets rendered to users.

// AuthError indicates a missing, malformed, or expired identity token, or a
// principal that lacks the required role.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string { return fmt.Sprintf("auth: %s", e.Reason) }
func (e *AuthError) Class() string { return "auth" }

// ProfileMissingError indicates an authenticated identity with no portal
// profile and no way to provision one.
type ProfileMissingError struct {
	Subject string
}

func (e *ProfileMissingError) Error() string {
	return fmt.Sprintf("profile missing for subject %s", e.Subject)
}
func (e *ProfileMissingError) Class() string { return "profile-missing" }

// InactiveAccountError indicates a profile that exists but has been
// deactivated by an administrator.
type InactiveAccountError struct {
	UserID string
}

func (e *InactiveAccountError) Error() string {
	return fmt.Sprintf("account %s is inactive", e.UserID)
}
func (e *InactiveAccountError) Class() string { return "inactive-account" }

// NetworkError wraps a transport-level failure reaching the backing store.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("network failure during %s: %v", e.Op, e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }
func (e *NetworkError) Class() string { return "network/timeout" }

// TimeoutError indicates an operation that exceeded its latency budget. The
// underlying work may still complete; its result is discarded.
type TimeoutError struct {
	Op     string
	Budget string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Op, e.Budget)
}
func (e *TimeoutError) Class() string { return "network/timeout" }

// CollisionError indicates a write that targeted a name or key already taken.
type CollisionError struct {
	Name string
}

func (e *CollisionError) Error() string { return fmt.Sprintf("name %q already exists", e.Name) }
func (e *CollisionError) Class() string { return "conflict" }

// ValidationError indicates input rejected before any network or store
// activity took place.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation: %s", e.Reason)
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}
func (e *ValidationError) Class() string { return "validation" }

// DatabaseError wraps a query or statement failure from a reachable store.
type DatabaseError struct {
	Op  string
	Err error
}

func (e *DatabaseError) Error() string { return fmt.Sprintf("database failure during %s: %v", e.Op, e.Err) }
func (e *DatabaseError) Unwrap() error { return e.Err }
func (e *DatabaseError) Class() string { return "database" }

// ErrBackendAbsent is returned by the connector when no store is configured.
// Services wired against it serve fallback data and simulate writes.
var ErrBackendAbsent = errors.New("backing store not configured")
