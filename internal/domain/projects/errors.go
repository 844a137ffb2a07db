package projects

import "errors"

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrMissingOwner    = errors.New("owner id is required")
	ErrInvalidStatus   = errors.New("unknown status")
	ErrTitleRequired   = errors.New("title is required")
)

// BackendError wraps a failed record-store call. Read and write paths rethrow
// it so callers can tell a backend failure apart from an empty result.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

func backendErr(op string, err error) error {
	return &BackendError{Op: op, Err: err}
}

// IsBackendError reports whether err came from a record-store call.
func IsBackendError(err error) bool {
	var be *BackendError
	return errors.As(err, &be)
}
