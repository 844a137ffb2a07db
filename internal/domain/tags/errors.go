package tags

import "errors"

var (
	ErrTagNotFound     = errors.New("tag not found")
	ErrTagNameTaken    = errors.New("tag name already exists")
	ErrInvalidTagName  = errors.New("invalid tag name")
	ErrInvalidTagColor = errors.New("invalid tag color")
	ErrMissingOwner    = errors.New("owner id is required")
)
