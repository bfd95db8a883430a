package auth_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"mcal/internal/google"
	"mcal/internal/instrumentation"
	"mcal/internal/server"
)

// RegisterAuthTools registers the OAuth authorization tools with the MCP server
func RegisterAuthTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	// Get OAuth URL tool
	getAuthURLTool := mcp.NewTool("get_auth_url",
		mcp.WithDescription("Get the OAuth URL to authorize Google Calendar access for a specific account"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
	)

	s.AddTool(getAuthURLTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleGetAuthURL(ctx, request, sc)
	})

	// Save authorization code tool
	saveAuthCodeTool := mcp.NewTool("save_auth_code",
		mcp.WithDescription("Save the OAuth authorization code to complete Google Calendar authentication for a specific account"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("auth_code",
			mcp.Required(),
			mcp.Description("The authorization code from Google OAuth"),
		),
	)

	s.AddTool(saveAuthCodeTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleSaveAuthCode(ctx, request, sc)
	})

	return nil
}

func handleGetAuthURL(_ context.Context, request mcp.CallToolRequest, _ *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	// Get account name, default to "default"
	account := "default"
	if accountVal, ok := args["account"].(string); ok && accountVal != "" {
		account = accountVal
	}

	authURL, err := google.GetAuthURLForAccount(account)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("OAuth credentials are not configured: %v", err)), nil
	}

	result := fmt.Sprintf(`To authorize Google Calendar access for account "%s":

1. Visit this URL in your browser:
   %s

2. Sign in with your Google account
3. Grant access to Google Calendar
4. Copy the authorization code

5. Call the save_auth_code tool with the code and account name to complete authentication`, account, authURL)

	return mcp.NewToolResultText(result), nil
}

func handleSaveAuthCode(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	// Get account name, default to "default"
	account := "default"
	if accountVal, ok := args["account"].(string); ok && accountVal != "" {
		account = accountVal
	}

	authCode, ok := args["auth_code"].(string)
	if !ok || authCode == "" {
		return mcp.NewToolResultError("auth_code is required"), nil
	}

	token, err := google.ExchangeAuthCode(ctx, authCode)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to exchange authorization code for account %s: %v", account, err)), nil
	}

	// Persist through the server's token provider when it can save,
	// so sqlite-backed deployments store the token in the database.
	if saver, ok := sc.TokenProvider().(google.TokenSaver); ok {
		err = saver.SaveTokenForAccount(ctx, account, token)
	} else {
		err = fmt.Errorf("token provider cannot persist tokens")
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to save token for account %s: %v", account, err)), nil
	}

	if metrics := sc.Metrics(); metrics != nil {
		metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultSuccess)
	}

	return mcp.NewToolResultText(fmt.Sprintf("Authorization successful for account '%s'. Calendar token saved; all calendar tools are now available for this account.", account)), nil
}
