package google

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const oobRedirectURL = "urn:ietf:wg:oauth:2.0:oob"

// GetOAuthConfig returns the OAuth2 configuration for Google Calendar access.
// Client credentials are read from GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET;
// GOOGLE_REDIRECT_URL overrides the out-of-band redirect used by the manual
// auth-code flow.
func GetOAuthConfig() (*oauth2.Config, error) {
	clientID := os.Getenv("GOOGLE_CLIENT_ID")
	clientSecret := os.Getenv("GOOGLE_CLIENT_SECRET")
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set")
	}

	redirectURL := os.Getenv("GOOGLE_REDIRECT_URL")
	if redirectURL == "" {
		redirectURL = oobRedirectURL
	}

	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  redirectURL,
		Scopes:       DefaultOAuthScopes,
	}, nil
}

// GetAuthURLForAccount returns the OAuth URL for user authorization of the
// specified account. The account name is carried in the state parameter.
func GetAuthURLForAccount(account string) (string, error) {
	conf, err := GetOAuthConfig()
	if err != nil {
		return "", err
	}
	return conf.AuthCodeURL(account, oauth2.AccessTypeOffline, oauth2.ApprovalForce), nil
}

// ExchangeAuthCode exchanges an authorization code for OAuth2 tokens.
func ExchangeAuthCode(ctx context.Context, authCode string) (*oauth2.Token, error) {
	conf, err := GetOAuthConfig()
	if err != nil {
		return nil, err
	}

	t, err := conf.Exchange(ctx, authCode)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange auth code: %w", err)
	}
	return t, nil
}

// SaveTokenForAccount exchanges an authorization code for tokens and saves
// them under the specified account name.
func SaveTokenForAccount(ctx context.Context, account, authCode string) error {
	t, err := ExchangeAuthCode(ctx, authCode)
	if err != nil {
		return err
	}

	return writeTokenForAccount(account, t)
}

// HasTokenForAccount checks if a token file exists for the specified account
func HasTokenForAccount(account string) bool {
	if account == "" {
		return false
	}
	_, err := os.ReadFile(tokenFileForAccount(account))
	return err == nil
}

// GetTokenSourceForAccount returns an OAuth2 token source backed by the
// stored token for the specified account. The token source refreshes the
// access token transparently using the stored refresh token.
func GetTokenSourceForAccount(ctx context.Context, account string) (oauth2.TokenSource, error) {
	conf, err := GetOAuthConfig()
	if err != nil {
		return nil, err
	}

	token, err := readTokenForAccount(account)
	if err != nil {
		return nil, err
	}

	return conf.TokenSource(ctx, token), nil
}

// readTokenForAccount reads and parses a stored token file.
// The file holds the access and refresh tokens separated by a space.
func readTokenForAccount(account string) (*oauth2.Token, error) {
	slurp, err := os.ReadFile(tokenFileForAccount(account))
	if err != nil {
		return nil, fmt.Errorf("no Google OAuth token found for account %s; run the auth flow first", account)
	}

	f := strings.Fields(strings.TrimSpace(string(slurp)))
	if len(f) != 2 {
		return nil, fmt.Errorf("invalid token format for account %s", account)
	}

	return &oauth2.Token{
		AccessToken:  f[0],
		TokenType:    "Bearer",
		RefreshToken: f[1],
		Expiry:       time.Unix(1, 0),
	}, nil
}

// writeTokenForAccount persists a token for the specified account.
func writeTokenForAccount(account string, t *oauth2.Token) error {
	cacheDir := filepath.Dir(tokenFileForAccount(account))
	if err := os.MkdirAll(cacheDir, 0700); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tokenData := t.AccessToken + " " + t.RefreshToken
	if err := os.WriteFile(tokenFileForAccount(account), []byte(tokenData), 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	return nil
}

// tokenFileForAccount returns the token file path for an account.
// The default account keeps the legacy google.token name.
func tokenFileForAccount(account string) string {
	cacheDir := filepath.Join(userCacheDir(), "mcal")
	if account == "" || account == "default" {
		return filepath.Join(cacheDir, "google.token")
	}
	return filepath.Join(cacheDir, fmt.Sprintf("google-%s.token", account))
}

func userCacheDir() string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir(), "Library", "Caches")
	case "windows":
		for _, ev := range []string{"TEMP", "TMP"} {
			if v := os.Getenv(ev); v != "" {
				return v
			}
		}
		panic("No Windows TEMP or TMP environment variables found")
	}
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return xdg
	}
	return filepath.Join(homeDir(), ".cache")
}

func homeDir() string {
	if runtime.GOOS == "windows" {
		return os.Getenv("HOMEDRIVE") + os.Getenv("HOMEPATH")
	}
	return os.Getenv("HOME")
}
