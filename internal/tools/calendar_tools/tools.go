package calendar_tools

import (
	"context"
	"errors"
	"fmt"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"mcal/internal/calendar"
	"mcal/internal/google"
	"mcal/internal/instrumentation"
	"mcal/internal/server"
)

// getCalendarClient retrieves or creates a calendar client for the specified account
func getCalendarClient(_ context.Context, account string, sc *server.ServerContext) (*calendar.Client, error) {
	client := sc.CalendarClientForAccount(account)
	if client == nil {
		// Check if token exists before trying to create client
		if !sc.TokenProvider().HasTokenForAccount(account) {
			authURL, err := google.GetAuthURLForAccount(account)
			if err != nil {
				return nil, fmt.Errorf("no Google OAuth token for account %s and no OAuth credentials configured: %w", account, err)
			}
			return nil, fmt.Errorf(`Google OAuth token not found for account "%s". To authorize access:

1. Visit this URL in your browser:
   %s

2. Sign in with your Google account
3. Grant access to Google Calendar
4. Copy the authorization code

5. Provide the authorization code to your AI agent
   The agent will use the save_auth_code tool with account="%s" to complete authentication.

Note: You only need to authorize once. The tokens will be automatically refreshed.`, account, authURL, account)
		}

		// Token exists but the cached client could not be created
		return nil, fmt.Errorf("failed to create calendar client for account %s", account)
	}
	return client, nil
}

// resolveCalendarSelector resolves an optional calendar_id/calendar_name selector
// against the account's calendars. Returns nil without error when neither
// selector is provided, leaving the default behavior to the caller.
func resolveCalendarSelector(ctx context.Context, client *calendar.Client, sc *server.ServerContext, calendarID, calendarName string) (*calendar.CalendarInfo, error) {
	if calendarID == "" && calendarName == "" {
		return nil, nil
	}

	info, err := client.ResolveCalendar(calendarID, calendarName)

	if metrics := sc.Metrics(); metrics != nil {
		outcome := instrumentation.ResolutionFound
		var notFound *calendar.NotFoundError
		var ambiguous *calendar.AmbiguousNameError
		switch {
		case errors.As(err, &notFound):
			outcome = instrumentation.ResolutionNotFound
		case errors.As(err, &ambiguous):
			outcome = instrumentation.ResolutionAmbiguous
		}
		if err == nil || outcome != instrumentation.ResolutionFound {
			metrics.RecordCalendarResolution(ctx, outcome)
		}
	}

	return info, err
}

// getSelectorArgs extracts the optional calendar_id and calendar_name arguments.
func getSelectorArgs(args map[string]interface{}) (calendarID, calendarName string) {
	if idVal, ok := args["calendar_id"].(string); ok {
		calendarID = idVal
	}
	if nameVal, ok := args["calendar_name"].(string); ok {
		calendarName = nameVal
	}
	return calendarID, calendarName
}

// RegisterCalendarTools registers all calendar-related tools with the MCP server
func RegisterCalendarTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	// Register event tools
	if err := RegisterEventTools(s, sc); err != nil {
		return fmt.Errorf("failed to register event tools: %w", err)
	}

	// Register calendar list tools
	if err := RegisterCalendarListTools(s, sc); err != nil {
		return fmt.Errorf("failed to register calendar list tools: %w", err)
	}

	// Register scheduling tools
	if err := RegisterSchedulingTools(s, sc); err != nil {
		return fmt.Errorf("failed to register scheduling tools: %w", err)
	}

	return nil
}
