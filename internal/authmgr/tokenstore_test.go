package authmgr

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/franknobox/agentland-go/internal/storage"
)

func TestTokenStore_SaveAndLoad(t *testing.T) {
	store := storage.NewMemoryStore()
	tokens := NewTokenStore(store)

	expiry := time.Now().Add(time.Hour).Truncate(time.Second)
	require.NoError(t, tokens.Save(&TokenRecord{
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresAt:    expiry,
	}))

	rec, err := tokens.Load()
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "access", rec.AccessToken)
	assert.Equal(t, "refresh", rec.RefreshToken)
	assert.True(t, expiry.Equal(rec.ExpiresAt))
	assert.True(t, rec.CanRefresh())
}

func TestTokenStore_ExpiryEncoding(t *testing.T) {
	store := storage.NewMemoryStore()
	tokens := NewTokenStore(store)

	expiry := time.Unix(1756600000, 0)
	require.NoError(t, tokens.Save(&TokenRecord{
		AccessToken: "access",
		ExpiresAt:   expiry,
	}))

	raw, err := store.Get(keyTokenExpiry, "")
	require.NoError(t, err)
	assert.Equal(t, strconv.FormatInt(expiry.Unix(), 10), raw,
		"expiry is stored as decimal Unix seconds")
}

func TestTokenStore_LoadEmpty(t *testing.T) {
	tokens := NewTokenStore(storage.NewMemoryStore())

	rec, err := tokens.Load()
	require.NoError(t, err)
	assert.Nil(t, rec, "no access token means no record")
}

func TestTokenStore_MalformedExpiryTolerated(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(keyAccessToken, "access"))
	require.NoError(t, store.Set(keyTokenExpiry, "not-a-number"))

	rec, err := NewTokenStore(store).Load()
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "access", rec.AccessToken)
	assert.True(t, rec.ExpiresAt.IsZero())
}

func TestTokenStore_SaveWithoutOptionalFields(t *testing.T) {
	store := storage.NewMemoryStore()
	tokens := NewTokenStore(store)

	// Seed optional keys, then save a record without them.
	require.NoError(t, tokens.Save(&TokenRecord{
		AccessToken:  "old",
		RefreshToken: "old-refresh",
		ExpiresAt:    time.Now().Add(time.Hour),
	}))
	require.NoError(t, tokens.Save(&TokenRecord{AccessToken: "new"}))

	rec, err := tokens.Load()
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "new", rec.AccessToken)
	assert.Empty(t, rec.RefreshToken, "a save without a refresh token removes the stored one")
	assert.True(t, rec.ExpiresAt.IsZero())
	assert.False(t, rec.CanRefresh())
}

func TestTokenStore_Clear(t *testing.T) {
	tokens := NewTokenStore(storage.NewMemoryStore())

	require.NoError(t, tokens.Save(&TokenRecord{
		AccessToken:  "access",
		RefreshToken: "refresh",
	}))
	require.NoError(t, tokens.Clear())

	rec, err := tokens.Load()
	require.NoError(t, err)
	assert.Nil(t, rec)
}
