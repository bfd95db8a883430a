// Package auth_tools provides MCP tools for the Google OAuth authorization
// flow: obtaining the per-account consent URL and saving the resulting
// authorization code through the server's token provider.
package auth_tools
