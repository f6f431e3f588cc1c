package domain

import "errors"

// Sentinel errors shared by services and repositories. Callers wrap them with
// fmt.Errorf("%w: ...") to add detail; the HTTP layer matches with errors.Is.
var (
	ErrValidation     = errors.New("validation failed")
	ErrConflict       = errors.New("conflict")
	ErrForbidden      = errors.New("access forbidden")
	ErrAuthentication = errors.New("authentication failed")
	ErrNotFound       = errors.New("not found")
)
