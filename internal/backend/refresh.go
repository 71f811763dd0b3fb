package backend

import (
	"context"
	"errors"
	"log"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/session"
	"golang.org/x/sync/singleflight"
)

// renewFunc calls the renewal endpoint with a refresh token and returns the
// new token pair.
type renewFunc func(ctx context.Context, refreshToken string) (access, refresh string, err error)

// RefreshCoordinator guarantees at most one in-flight token renewal per
// session. Concurrent callers hitting a 401 at the same instant all join the
// same flight and observe the same outcome: one winning token pair, or one
// uniform failure. The flight is forgotten once it settles, so the next
// expiry starts a fresh one.
type RefreshCoordinator struct {
	store session.Store
	renew renewFunc
	group singleflight.Group
}

func NewRefreshCoordinator(store session.Store, renew renewFunc) *RefreshCoordinator {
	return &RefreshCoordinator{store: store, renew: renew}
}

// Renew exchanges the session's refresh token for a new pair and persists it.
// A definitive rejection of the refresh token is fatal for the session: the
// store is cleared (exactly once, the clear rides inside the single flight)
// and every waiter gets an AuthError. A transport failure during renewal is
// NOT fatal; the session survives for a later attempt.
func (rc *RefreshCoordinator) Renew(ctx context.Context, sid string) (*domain.Session, error) {
	v, err, _ := rc.group.Do(sid, func() (interface{}, error) {
		// Detached from the first caller's context: its cancellation must
		// not fail the renewal for everyone queued behind it.
		ctx := context.WithoutCancel(ctx)

		cur, err := rc.store.Get(ctx, sid)
		if errors.Is(err, session.ErrNoSession) {
			return nil, &domain.AuthError{Reason: "no refresh token"}
		}
		if err != nil {
			return nil, err
		}
		if cur.RefreshToken == "" {
			return nil, &domain.AuthError{Reason: "no refresh token"}
		}

		access, refresh, rerr := rc.renew(ctx, cur.RefreshToken)
		if rerr != nil {
			var netErr *domain.NetworkError
			if errors.As(rerr, &netErr) {
				return nil, rerr
			}
			// The backend rejected the refresh token. The session is dead.
			if cerr := rc.store.Clear(ctx, sid); cerr != nil {
				log.Printf("failed to clear session %s after refresh rejection: %v", sid, cerr)
			}
			return nil, &domain.AuthError{Reason: "token renewal rejected"}
		}

		next := domain.Session{AccessToken: access, RefreshToken: refresh, User: cur.User}
		if serr := rc.store.Set(ctx, sid, next); serr != nil {
			return nil, serr
		}
		return &next, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Session), nil
}
