package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind classifies a failed backend call.
type Kind int

const (
	// KindNetwork: the request never produced an HTTP response.
	KindNetwork Kind = iota + 1
	// KindTimeout: the client-side deadline expired.
	KindTimeout
	// KindBackend: the backend answered with a non-2xx status.
	KindBackend
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindBackend:
		return "backend"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by Client. Message is what gets
// shown to the user: the backend's "detail" when it sent one, otherwise a
// generic description.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is a gateway *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var gwErr *Error
	return errors.As(err, &gwErr) && gwErr.Kind == kind
}

// transportError classifies an error from http.Client.Do.
func transportError(op string, err error) *Error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &Error{Kind: KindTimeout, Message: fmt.Sprintf("%s: request timed out", op), Err: err}
	}
	return &Error{Kind: KindNetwork, Message: fmt.Sprintf("%s: %v", op, err), Err: err}
}
