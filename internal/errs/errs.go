// Package errs contains the error taxonomy shared by the session, catalog
// and gateway layers. Errors are normalized to a single user-facing message
// at the store boundary via UserMessage.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Common sentinels for stable error mapping across layers.
var (
	// ErrUnauthorized indicates the remote service rejected the credential.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound indicates the requested record does not exist remotely.
	ErrNotFound = errors.New("not found")

	// ErrBusy indicates an auth operation is already in flight; callers
	// retry after the current one settles instead of racing it.
	ErrBusy = errors.New("operation already in progress")
)

// genericMessage is the last-resort user-facing text when an error carries
// nothing better.
const genericMessage = "something went wrong, try again"

// ValidationError reports client-side input validation failure. It is raised
// before any network call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

// AuthError reports a login/register failure that is not a transport or
// remote-envelope problem, e.g. a response missing the token.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string { return e.Message }

// TransportError wraps a network-level failure (unreachable host, timeout).
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RemoteError is a non-2xx response, carrying the structured message from
// the body when the service provided one.
type RemoteError struct {
	Status  int
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return http.StatusText(e.Status)
}

// Is maps well-known statuses onto the sentinels so callers can use
// errors.Is without inspecting status codes.
func (e *RemoteError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

// PartialError reports a multi-step mutation where the first step succeeded
// and a later one failed. The applied part stays applied; callers must
// surface this distinctly from a full failure.
type PartialError struct {
	Applied string // what was saved
	Failed  string // what was not
	Err     error  // failure of the second step
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("%s saved, %s not saved: %v", e.Applied, e.Failed, e.Err)
}

func (e *PartialError) Unwrap() error { return e.Err }

// UserMessage normalizes any error from the taxonomy into the single
// user-facing string stored in a store's lastError field. Preference order:
// structured remote message, then transport message, then a generic default.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var partial *PartialError
	if errors.As(err, &partial) {
		return fmt.Sprintf("%s saved, %s not saved", partial.Applied, partial.Failed)
	}
	var remote *RemoteError
	if errors.As(err, &remote) && remote.Message != "" {
		return remote.Message
	}
	var transport *TransportError
	if errors.As(err, &transport) {
		return transport.Error()
	}
	var validation *ValidationError
	if errors.As(err, &validation) {
		return validation.Error()
	}
	var auth *AuthError
	if errors.As(err, &auth) {
		return auth.Message
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return genericMessage
}
