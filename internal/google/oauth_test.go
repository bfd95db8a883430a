package google

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestGetOAuthConfig(t *testing.T) {
	t.Run("missing credentials", func(t *testing.T) {
		t.Setenv("GOOGLE_CLIENT_ID", "")
		t.Setenv("GOOGLE_CLIENT_SECRET", "")

		if _, err := GetOAuthConfig(); err == nil {
			t.Fatal("expected error without credentials")
		}
	})

	t.Run("credentials from environment", func(t *testing.T) {
		t.Setenv("GOOGLE_CLIENT_ID", "test-client-id")
		t.Setenv("GOOGLE_CLIENT_SECRET", "test-client-secret")
		t.Setenv("GOOGLE_REDIRECT_URL", "")

		conf, err := GetOAuthConfig()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if conf.ClientID != "test-client-id" {
			t.Errorf("ClientID = %q", conf.ClientID)
		}
		if conf.RedirectURL != oobRedirectURL {
			t.Errorf("RedirectURL = %q, want OOB default", conf.RedirectURL)
		}
		if len(conf.Scopes) == 0 {
			t.Error("expected scopes to be set")
		}
	})
}

func TestGetAuthURLForAccount(t *testing.T) {
	t.Setenv("GOOGLE_CLIENT_ID", "test-client-id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "test-client-secret")

	url, err := GetAuthURLForAccount("work")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(url, "state=work") {
		t.Errorf("auth URL missing account state: %s", url)
	}
	if !strings.Contains(url, "access_type=offline") {
		t.Errorf("auth URL missing offline access: %s", url)
	}
}

func TestTokenFileForAccount(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/cache")

	tests := []struct {
		account string
		want    string
	}{
		{"default", filepath.Join("/cache", "mcal", "google.token")},
		{"", filepath.Join("/cache", "mcal", "google.token")},
		{"work", filepath.Join("/cache", "mcal", "google-work.token")},
	}

	for _, tt := range tests {
		if got := tokenFileForAccount(tt.account); got != tt.want {
			t.Errorf("tokenFileForAccount(%q) = %q, want %q", tt.account, got, tt.want)
		}
	}
}

func TestTokenFileRoundtrip(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	token := &oauth2.Token{
		AccessToken:  "access-123",
		RefreshToken: "refresh-456",
	}

	if HasTokenForAccount("work") {
		t.Fatal("expected no token before write")
	}

	if err := writeTokenForAccount("work", token); err != nil {
		t.Fatalf("writeTokenForAccount: %v", err)
	}

	if !HasTokenForAccount("work") {
		t.Error("expected token after write")
	}
	if HasTokenForAccount("other") {
		t.Error("token must be scoped to its account")
	}

	got, err := readTokenForAccount("work")
	if err != nil {
		t.Fatalf("readTokenForAccount: %v", err)
	}
	if got.AccessToken != "access-123" || got.RefreshToken != "refresh-456" {
		t.Errorf("roundtrip mismatch: %+v", got)
	}
	if !got.Expiry.Before(time.Now()) {
		t.Error("stored token must be treated as expired so the source refreshes it")
	}
}

func TestReadTokenForAccountInvalidFormat(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	if err := writeTokenForAccount("bad", &oauth2.Token{AccessToken: "only-access"}); err != nil {
		t.Fatalf("writeTokenForAccount: %v", err)
	}

	// "only-access " has a single field
	if _, err := readTokenForAccount("bad"); err == nil {
		t.Fatal("expected error for malformed token file")
	}
}

func TestFileTokenProviderHasToken(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	provider := NewFileTokenProvider()
	if provider.HasTokenForAccount("missing") {
		t.Error("expected no token in empty cache")
	}
}
