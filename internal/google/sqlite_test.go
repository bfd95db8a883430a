package google

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newTestProvider(t *testing.T) *SQLiteTokenProvider {
	t.Helper()

	provider, err := NewSQLiteTokenProvider(filepath.Join(t.TempDir(), "tokens.db"))
	require.NoError(t, err)
	t.Cleanup(func() { provider.Close() })

	return provider
}

func TestSQLiteTokenProviderRoundtrip(t *testing.T) {
	provider := newTestProvider(t)
	ctx := context.Background()

	assert.False(t, provider.HasTokenForAccount("work"))

	expiry := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	err := provider.SaveTokenForAccount(ctx, "work", &oauth2.Token{
		AccessToken:  "access-123",
		RefreshToken: "refresh-456",
		Expiry:       expiry,
	})
	require.NoError(t, err)

	assert.True(t, provider.HasTokenForAccount("work"))
	assert.False(t, provider.HasTokenForAccount("other"))
	assert.False(t, provider.HasTokenForAccount(""))

	token, err := provider.GetTokenForAccount(ctx, "work")
	require.NoError(t, err)
	assert.Equal(t, "access-123", token.AccessToken)
	assert.Equal(t, "refresh-456", token.RefreshToken)
	assert.True(t, expiry.Equal(token.Expiry))
}

func TestSQLiteTokenProviderReplacesToken(t *testing.T) {
	provider := newTestProvider(t)
	ctx := context.Background()

	require.NoError(t, provider.SaveTokenForAccount(ctx, "default", &oauth2.Token{
		AccessToken:  "old-access",
		RefreshToken: "old-refresh",
	}))
	require.NoError(t, provider.SaveTokenForAccount(ctx, "default", &oauth2.Token{
		AccessToken:  "new-access",
		RefreshToken: "new-refresh",
	}))

	token, err := provider.GetTokenForAccount(ctx, "default")
	require.NoError(t, err)
	assert.Equal(t, "new-access", token.AccessToken)
	assert.Equal(t, "new-refresh", token.RefreshToken)
}

func TestSQLiteTokenProviderMissingAccount(t *testing.T) {
	provider := newTestProvider(t)

	_, err := provider.GetTokenForAccount(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestSQLiteTokenProviderNoExpiry(t *testing.T) {
	provider := newTestProvider(t)
	ctx := context.Background()

	require.NoError(t, provider.SaveTokenForAccount(ctx, "work", &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
	}))

	token, err := provider.GetTokenForAccount(ctx, "work")
	require.NoError(t, err)
	// A token without a stored expiry is treated as expired so the OAuth2
	// token source refreshes it on first use.
	assert.True(t, token.Expiry.Before(time.Now()))
}
