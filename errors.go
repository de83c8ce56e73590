package listcache

import (
	"errors"
	"fmt"
)

var (
	ErrClosed          = errors.New("listcache: query closed")
	ErrInvalidPage     = errors.New("listcache: page must be >= 1")
	ErrInvalidPageSize = errors.New("listcache: items per page must be > 0")
)

// FetchError is what a query records in State.Err once every attempt failed.
type FetchError struct {
	Resource string
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	if e.Attempts <= 1 {
		return fmt.Sprintf("fetch %q failed: %v", e.Resource, e.Err)
	}
	return fmt.Sprintf("fetch %q failed after %d attempts: %v", e.Resource, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// InvalidateError reports a prefix delete that could not remove everything.
// Removed entries stay removed; the rest expire or self-heal on read.
type InvalidateError struct {
	Prefix  string
	Removed int
	Errs    []error
}

func (e *InvalidateError) Error() string {
	switch len(e.Errs) {
	case 0:
		return fmt.Sprintf("invalidate %q: unknown error", e.Prefix)
	case 1:
		return fmt.Sprintf("invalidate %q: removed %d: %v", e.Prefix, e.Removed, e.Errs[0])
	default:
		return fmt.Sprintf("invalidate %q: removed %d, %d failures: %v", e.Prefix, e.Removed, len(e.Errs), errors.Join(e.Errs...))
	}
}

func (e *InvalidateError) Unwrap() []error { return e.Errs }

// message is the text shown to a user for a failed read.
func message(err error) string {
	var fe *FetchError
	if errors.As(err, &fe) && fe.Err != nil {
		err = fe.Err
	}
	if err == nil || err.Error() == "" {
		return "an error occurred"
	}
	return err.Error()
}
