package guard

import "errors"

var (
	// ErrAccessDenied means no parent-child link exists for the pair.
	// It is distinct from an empty result and must reach the caller as a rejection.
	ErrAccessDenied = errors.New("access denied: not a parent of this child")

	ErrNilLinkStore = errors.New("link store cannot be nil")
)
