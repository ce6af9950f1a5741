package fellow

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoDevice is returned when the account has no brewer bound to it.
var ErrNoDevice = errors.New("no brewer bound to account")

// HTTPStatusError reports a non-2xx answer from the Fellow API.
type HTTPStatusError struct {
	Status int
	Body   string
}

func (e HTTPStatusError) Error() string {
	return fmt.Sprintf("fellow api error %d: %s", e.Status, strings.TrimSpace(e.Body))
}

// AuthError means login was impossible or rejected. It is fatal for the
// process.
type AuthError struct {
	Err error
}

func (e AuthError) Error() string {
	return "authentication failed: " + e.Err.Error()
}

func (e AuthError) Unwrap() error {
	return e.Err
}

// RemoteError wraps any transport, status or decode failure of a resource
// operation.
type RemoteError struct {
	Op  string
	Err error
}

func (e RemoteError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e RemoteError) Unwrap() error {
	return e.Err
}

// NotFoundError is returned when no profile or schedule matches a lookup.
type NotFoundError struct {
	Kind  string
	ID    string
	Title string
}

func (e NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("no %s found with id '%s'", e.Kind, e.ID)
	}
	return fmt.Sprintf("no %s found matching '%s'", e.Kind, e.Title)
}

// IsFatal reports whether err should end the process with a non-zero exit
// code rather than being reported as a JSON error document.
func IsFatal(err error) bool {
	var authErr AuthError
	return errors.As(err, &authErr) || errors.Is(err, ErrNoDevice)
}
