package store

import (
	"errors"
	"fmt"
)

// ErrStaleView signals that the record the caller acted on is older than the
// store's last accepted mutation for that id. The caller must refresh and
// re-confirm; the client never guesses at the newer state.
var ErrStaleView = errors.New("store: snapshot is stale, refresh and re-confirm")

// TransportError covers unreachable-store and non-domain responses. Views
// absorb it by keeping their last snapshot; it never carries a business
// meaning.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("store: %s: unexpected status %d", e.Op, e.StatusCode)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransport reports whether err is a transport failure rather than a
// domain outcome.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
