// Package google provides OAuth2 authentication and token management for Google APIs.
//
// OAuth client credentials come from the environment (GOOGLE_CLIENT_ID,
// GOOGLE_CLIENT_SECRET, optional GOOGLE_REDIRECT_URL). Tokens are stored per
// named account, either as files under the user cache directory or in a
// SQLite database.
//
// The TokenProvider interface allows different token sources to be plugged in,
// so the calendar client does not care where its tokens come from.
package google
