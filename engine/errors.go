package engine

import "errors"

var (
	// ErrNotFound is returned when an id or line is absent. This is a normal
	// negative result, not an exceptional condition.
	ErrNotFound = errors.New("not found")

	// ErrClosed is returned for operations on a closed engine.
	ErrClosed = errors.New("engine closed")

	// ErrInvalidType is returned when a record carries a type outside the
	// closed set.
	ErrInvalidType = errors.New("invalid record type")

	// ErrInvalidTimestamp is returned when a caller-supplied timestamp does
	// not parse under the canonical layout.
	ErrInvalidTimestamp = errors.New("invalid timestamp")

	// ErrMissingID is returned by Store when the caller supplies no id.
	ErrMissingID = errors.New("missing record id")

	// ErrInconsistentIndex marks an index entry whose line does not parse or
	// whose id mismatches the key. Surfaced by integrity checks (Verify,
	// rebuild accounting); normal reads report ErrNotFound instead.
	ErrInconsistentIndex = errors.New("inconsistent index entry")
)
