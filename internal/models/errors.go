package models

import "errors"

// Error taxonomy for claim processing. Handlers match these with
// errors.Is to pick the HTTP status; everything else maps to 500.
var (
	// ErrInputFormat marks malformed caller input (land-size string,
	// undecodable image). The claim is not processed.
	ErrInputFormat = errors.New("invalid input format")

	// ErrNotFound marks a missing image reference.
	ErrNotFound = errors.New("not found")

	// ErrModelUnavailable marks an adapter whose model never
	// initialized. Distinct from input errors: the service, not the
	// claim, is at fault.
	ErrModelUnavailable = errors.New("model unavailable")
)
