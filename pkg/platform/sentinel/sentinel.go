package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrConflict: a uniqueness guard rejected the write (duplicate submission)
// - ErrOverCap: a conditional append was refused because it would breach a cap
// - ErrUnavailable: store temporarily unreachable or timed out
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrOverCap     = errors.New("over cap")
	ErrUnavailable = errors.New("unavailable")
)
