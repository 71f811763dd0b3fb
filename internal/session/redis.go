package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each credential under its own key so redis expiry enforces
// the lifetimes: the access key lapses after AccessTokenTTL, the refresh and
// user keys after RefreshTokenTTL.
type RedisStore struct {
	client   *redis.Client
	observer Observer
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// OnChange registers the observer. Call before the store is shared.
func (r *RedisStore) OnChange(fn Observer) {
	r.observer = fn
}

func (r *RedisStore) Set(ctx context.Context, sid string, s domain.Session) error {
	userJSON, err := json.Marshal(s.User)
	if err != nil {
		return fmt.Errorf("marshal user failed: %w", err)
	}

	// All three writes ride one transaction so a concurrent Get never sees
	// a half-written session.
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, accessKey(sid), s.AccessToken, domain.AccessTokenTTL)
	pipe.Set(ctx, refreshKey(sid), s.RefreshToken, domain.RefreshTokenTTL)
	pipe.Set(ctx, userKey(sid), userJSON, domain.RefreshTokenTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis set session failed: %w", err)
	}

	if r.observer != nil {
		r.observer(sid, &s)
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, sid string) (*domain.Session, error) {
	vals, err := r.client.MGet(ctx, accessKey(sid), refreshKey(sid), userKey(sid)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis get session failed: %w", err)
	}

	// Without a refresh token there is nothing left to renew: no session.
	if vals[1] == nil {
		return nil, ErrNoSession
	}

	s := &domain.Session{RefreshToken: vals[1].(string)}
	if vals[0] != nil {
		s.AccessToken = vals[0].(string)
	}
	if vals[2] != nil {
		if err := json.Unmarshal([]byte(vals[2].(string)), &s.User); err != nil {
			return nil, fmt.Errorf("unmarshal user failed: %w", err)
		}
	}
	return s, nil
}

func (r *RedisStore) Clear(ctx context.Context, sid string) error {
	// Single DEL covers all keys atomically.
	err := r.client.Del(ctx, accessKey(sid), refreshKey(sid), userKey(sid)).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis clear session failed: %w", err)
	}

	if r.observer != nil {
		r.observer(sid, nil)
	}
	return nil
}

func accessKey(sid string) string  { return fmt.Sprintf("session:%s:access", sid) }
func refreshKey(sid string) string { return fmt.Sprintf("session:%s:refresh", sid) }
func userKey(sid string) string    { return fmt.Sprintf("session:%s:user", sid) }
