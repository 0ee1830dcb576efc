package apperrors

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrDuplicateName = errors.New("name already exists")
	ErrTemplateInUse = errors.New("template is referenced by discovery sessions")
	ErrInvalidStage  = errors.New("stage is not valid for opportunity type")
	ErrUnauthorized  = errors.New("authentication required")

	// ErrAlreadyLinked marks an idempotent re-link. Handlers translate it into
	// an informational notice, not an error response.
	ErrAlreadyLinked = errors.New("solution already linked to session")
)
