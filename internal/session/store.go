// Package session owns the credential pair and authenticated user for each
// browser session. Tokens survive gateway restarts by living in redis with
// independent expirations: the access token key expires first, the refresh
// token key outlives it and is what a renewal spends.
package session

import (
	"context"
	"errors"

	"github.com/fjod/go_shop/internal/domain"
)

// ErrNoSession means no credentials exist for the session id. Absence is a
// normal state (anonymous browsing), not a failure.
var ErrNoSession = errors.New("no session")

// Observer is notified after every Set and Clear. A nil session means the
// session was cleared.
type Observer func(sid string, s *domain.Session)

type Store interface {
	// Set persists the token pair and user. Both credentials are written
	// together; a reader never sees one without the other.
	Set(ctx context.Context, sid string, s domain.Session) error

	// Get returns the current session, or ErrNoSession. A session whose
	// access token has expired but whose refresh token survives is returned
	// with an empty AccessToken.
	Get(ctx context.Context, sid string) (*domain.Session, error)

	// Clear removes both tokens and the user atomically. Clearing an absent
	// session is a no-op, not an error.
	Clear(ctx context.Context, sid string) error
}
