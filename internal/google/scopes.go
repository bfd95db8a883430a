package google

// DefaultOAuthScopes are the Google OAuth scopes required for calendar access.
// These scopes are used consistently across the application for OAuth
// configurations.
var DefaultOAuthScopes = []string{
	// OpenID Connect scopes (required for user info)
	"openid",
	"https://www.googleapis.com/auth/userinfo.email",

	// Google Calendar scope
	"https://www.googleapis.com/auth/calendar",
}
