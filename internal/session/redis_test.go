package session

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/fjod/go_shop/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis server and returns a RedisStore instance
func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis, func()) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	store := NewRedisStore(client)

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return store, mr, cleanup
}

func testSession() domain.Session {
	return domain.Session{
		AccessToken:  "access-abc",
		RefreshToken: "refresh-xyz",
		User:         domain.User{ID: 1, Email: "buyer@example.com", Role: "buyer"},
	}
}

func TestSet_WritesAllKeysWithTTLs(t *testing.T) {
	store, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "sid1", testSession()))

	access, err := mr.Get(accessKey("sid1"))
	require.NoError(t, err)
	assert.Equal(t, "access-abc", access)
	refresh, err := mr.Get(refreshKey("sid1"))
	require.NoError(t, err)
	assert.Equal(t, "refresh-xyz", refresh)
	assert.Equal(t, domain.AccessTokenTTL, mr.TTL(accessKey("sid1")))
	assert.Equal(t, domain.RefreshTokenTTL, mr.TTL(refreshKey("sid1")))
	assert.Equal(t, domain.RefreshTokenTTL, mr.TTL(userKey("sid1")))
}

func TestGet_Success(t *testing.T) {
	store, _, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "sid1", testSession()))

	got, err := store.Get(ctx, "sid1")
	require.NoError(t, err)
	assert.Equal(t, "access-abc", got.AccessToken)
	assert.Equal(t, "refresh-xyz", got.RefreshToken)
	assert.Equal(t, int64(1), got.User.ID)
	assert.Equal(t, "buyer@example.com", got.User.Email)
}

func TestGet_NoSession(t *testing.T) {
	store, _, cleanup := setupTestRedis(t)
	defer cleanup()

	got, err := store.Get(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrNoSession)
	assert.Nil(t, got)
}

func TestGet_ExpiredAccessTokenStillReturnsSession(t *testing.T) {
	store, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "sid1", testSession()))

	// Simulate the access key lapsing while the refresh key survives.
	mr.FastForward(domain.AccessTokenTTL + 1)

	got, err := store.Get(ctx, "sid1")
	require.NoError(t, err)
	assert.Empty(t, got.AccessToken)
	assert.Equal(t, "refresh-xyz", got.RefreshToken)
}

func TestClear_RemovesEverything(t *testing.T) {
	store, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "sid1", testSession()))
	require.NoError(t, store.Clear(ctx, "sid1"))

	assert.False(t, mr.Exists(accessKey("sid1")))
	assert.False(t, mr.Exists(refreshKey("sid1")))
	assert.False(t, mr.Exists(userKey("sid1")))

	_, err := store.Get(ctx, "sid1")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestClear_AbsentSessionIsNoOp(t *testing.T) {
	store, _, cleanup := setupTestRedis(t)
	defer cleanup()

	assert.NoError(t, store.Clear(context.Background(), "never-existed"))
}

func TestObserver_SeesSetAndClear(t *testing.T) {
	store, _, cleanup := setupTestRedis(t)
	defer cleanup()

	var events []*domain.Session
	store.OnChange(func(sid string, s *domain.Session) {
		events = append(events, s)
	})

	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "sid1", testSession()))
	require.NoError(t, store.Clear(ctx, "sid1"))

	require.Len(t, events, 2)
	assert.NotNil(t, events[0])
	assert.Nil(t, events[1])
}

func TestGet_CorruptedUserJSON(t *testing.T) {
	store, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "sid1", testSession()))
	mr.Set(userKey("sid1"), "{not json")

	_, err := store.Get(ctx, "sid1")
	assert.Error(t, err)

	// Valid user round-trips through JSON untouched.
	raw, _ := json.Marshal(testSession().User)
	mr.Set(userKey("sid1"), string(raw))
	got, err := store.Get(ctx, "sid1")
	require.NoError(t, err)
	assert.Equal(t, "buyer@example.com", got.User.Email)
}
