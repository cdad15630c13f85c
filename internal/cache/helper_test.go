package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedProfile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func withTestRedis(t *testing.T) {
	t.Helper()
	mr := miniredis.RunT(t)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { SetClient(nil) })
}

func TestAside_MissThenHit(t *testing.T) {
	withTestRedis(t)
	ctx := context.Background()

	fetches := 0
	fetch := func(dest *cachedProfile) func() error {
		return func() error {
			fetches++
			dest.Name = "Ana"
			dest.Email = "a@x.com"
			return nil
		}
	}

	var first cachedProfile
	require.NoError(t, Aside(ctx, ProfileKey(1), &first, ProfileTTL, fetch(&first)))
	assert.Equal(t, 1, fetches)
	assert.Equal(t, "Ana", first.Name)

	var second cachedProfile
	require.NoError(t, Aside(ctx, ProfileKey(1), &second, ProfileTTL, fetch(&second)))
	assert.Equal(t, 1, fetches, "second read should be served from cache")
	assert.Equal(t, "a@x.com", second.Email)
}

func TestAside_FetchErrorPropagates(t *testing.T) {
	withTestRedis(t)

	var dest cachedProfile
	wantErr := errors.New("db down")
	err := Aside(context.Background(), ProfileKey(2), &dest, time.Minute, func() error {
		return wantErr
	})
	assert.ErrorIs(t, err, wantErr)
}

func TestAside_NilClientStillFetches(t *testing.T) {
	SetClient(nil)

	var dest cachedProfile
	err := Aside(context.Background(), ProfileKey(3), &dest, time.Minute, func() error {
		dest.Name = "fallback"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fallback", dest.Name)
}

func TestInvalidateUser(t *testing.T) {
	withTestRedis(t)
	ctx := context.Background()

	require.NoError(t, SetJSON(ctx, ProfileKey(7), cachedProfile{Name: "x"}, time.Minute))
	require.NoError(t, SetJSON(ctx, LikedKey(7), []string{"1"}, time.Minute))

	InvalidateUser(ctx, 7)

	var dest cachedProfile
	found, err := GetJSON(ctx, ProfileKey(7), &dest)
	require.NoError(t, err)
	assert.False(t, found)

	var liked []string
	found, err = GetJSON(ctx, LikedKey(7), &liked)
	require.NoError(t, err)
	assert.False(t, found)
}
