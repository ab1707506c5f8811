package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Adapters return these (optionally
// wrapped) so the pipeline can translate them into coded errors.
//
// - ErrUnavailable: a collaborator could not be reached or answered garbage
// - ErrInvalidState: the collaborator's state no longer matches the caller's view
var (
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
