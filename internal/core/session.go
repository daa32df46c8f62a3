package core

import (
	"errors"
	"net/http"
)

var (
	ErrSessionClosed = errors.New("session closed")
	ErrSessionFull   = errors.New("session send buffer full")
)

// Session is one live push channel to a browser.
type Session interface {
	ID() string
	// UserID is empty for anonymous sessions.
	UserID() string
	// Send must not block. A returned error means the session is unusable.
	Send(e *Event) error
	// Close ends the underlying connection. It is safe to call more than once.
	Close()
}

// Identify resolves the optional user identity of a connecting request.
// An error refuses the connection.
type Identify func(r *http.Request) (string, error)

// QueryIdentity takes the identity from the userId query parameter.
func QueryIdentity(r *http.Request) (string, error) {
	return r.URL.Query().Get("userId"), nil
}
