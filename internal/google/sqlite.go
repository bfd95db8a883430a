package google

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/oauth2"
)

// DriverName is the database/sql driver used for token storage.
const DriverName = "sqlite3"

var tokenMigrations = []string{
	`CREATE TABLE IF NOT EXISTS tokens (
		account VARCHAR NOT NULL PRIMARY KEY,
		access_token TEXT NOT NULL,
		refresh_token TEXT NOT NULL,
		expiry VARCHAR NOT NULL DEFAULT ""
	)`,
}

// DefaultTokenDBPath returns the default location of the SQLite token
// database, alongside the file-based token cache.
func DefaultTokenDBPath() string {
	return filepath.Join(userCacheDir(), "mcal", "tokens.db")
}

// SQLiteTokenProvider stores per-account OAuth tokens in a SQLite database.
// It is an alternative to the file-based provider for deployments where a
// single database file is easier to manage than a directory of token files.
type SQLiteTokenProvider struct {
	db *sqlx.DB
}

type tokenRow struct {
	Account      string `db:"account"`
	AccessToken  string `db:"access_token"`
	RefreshToken string `db:"refresh_token"`
	Expiry       string `db:"expiry"`
}

// NewSQLiteTokenProvider opens (creating if necessary) the token database at
// path and runs migrations.
func NewSQLiteTokenProvider(path string) (*SQLiteTokenProvider, error) {
	db, err := sqlx.Connect(DriverName, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open token database: %w", err)
	}

	p := &SQLiteTokenProvider{db: db}
	if err := p.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate token database: %w", err)
	}

	return p, nil
}

func (p *SQLiteTokenProvider) runMigrations() error {
	for _, m := range tokenMigrations {
		if _, err := p.db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying database.
func (p *SQLiteTokenProvider) Close() error {
	return p.db.Close()
}

// SaveTokenForAccount persists a token for the specified account, replacing
// any previously stored token.
func (p *SQLiteTokenProvider) SaveTokenForAccount(ctx context.Context, account string, t *oauth2.Token) error {
	expiry := ""
	if !t.Expiry.IsZero() {
		expiry = t.Expiry.Format(time.RFC3339)
	}

	_, err := p.db.ExecContext(ctx, `
		INSERT INTO tokens (account, access_token, refresh_token, expiry)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(account) DO UPDATE
			SET access_token = excluded.access_token,
			    refresh_token = excluded.refresh_token,
			    expiry = excluded.expiry;
	`, account, t.AccessToken, t.RefreshToken, expiry)
	return err
}

// GetTokenForAccount retrieves the stored token for the specified account.
// Refreshing the access token is left to the OAuth2 token source built on
// top of it.
func (p *SQLiteTokenProvider) GetTokenForAccount(ctx context.Context, account string) (*oauth2.Token, error) {
	var row tokenRow
	err := p.db.GetContext(ctx, &row, `
		SELECT account, access_token, refresh_token, expiry
		FROM tokens
		WHERE account = ?
	`, account)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("no Google OAuth token found for account %s; run the auth flow first", account)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token for account %s: %w", account, err)
	}

	token := &oauth2.Token{
		AccessToken:  row.AccessToken,
		TokenType:    "Bearer",
		RefreshToken: row.RefreshToken,
		Expiry:       time.Unix(1, 0),
	}
	if row.Expiry != "" {
		if exp, err := time.Parse(time.RFC3339, row.Expiry); err == nil {
			token.Expiry = exp
		}
	}

	return token, nil
}

// HasTokenForAccount checks if a token row exists for the specified account.
func (p *SQLiteTokenProvider) HasTokenForAccount(account string) bool {
	if account == "" {
		return false
	}
	var count int
	if err := p.db.Get(&count, `SELECT COUNT(*) FROM tokens WHERE account = ?`, account); err != nil {
		return false
	}
	return count > 0
}
