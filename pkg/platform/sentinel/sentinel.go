package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors:
// - ErrNotFound: row or key does not exist
// - ErrUnavailable: backend could not be reached
// - ErrUnsupported: the backend cannot execute the requested statement
var (
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("unavailable")
	ErrUnsupported = errors.New("unsupported")
)
