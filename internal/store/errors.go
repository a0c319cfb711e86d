package store

import (
	"errors"
)

// Error kinds surfaced by the store. Handlers map these to HTTP
// statuses; callers branch with errors.Is.
var (
	// ErrNotFound covers both a truly absent row and a row owned by
	// another tenant. The two are indistinguishable so that lookups
	// never leak existence information across tenants.
	ErrNotFound = errors.New("not found")

	// ErrConflict signals a uniqueness violation, e.g. a duplicate
	// email or a slug collision after retries are exhausted.
	ErrConflict = errors.New("conflict")

	// ErrUnauthorized signals a failed credential check.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden signals a deactivated principal.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation signals malformed input, e.g. an empty tenant name.
	ErrValidation = errors.New("validation failed")

	// ErrStorage signals a transient transaction or isolation failure.
	// The failed operation was rolled back entirely and is safe to
	// retry once.
	ErrStorage = errors.New("storage failure")
)

// storageError wraps a database error as ErrStorage while keeping the
// cause in the chain.
func storageError(err error) error {
	return errors.Join(ErrStorage, err)
}
