package attest

import "errors"

var (
	// ErrRecordNotFound is returned when a fetch collaborator reports the
	// not-found sentinel for an attestation UID
	ErrRecordNotFound = errors.New("attestation not found")

	// ErrMalformedQuery is returned when an identifier fails shape validation
	// before any network call is made
	ErrMalformedQuery = errors.New("malformed attestation UID")
)
