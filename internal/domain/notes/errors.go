package notes

import "errors"

var (
	ErrNoteNotFound    = errors.New("progress note not found")
	ErrContentRequired = errors.New("note content is required")
	ErrMissingOwner    = errors.New("owner id is required")
)
