package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"mcal/internal/server"
)

// RegisterCalendarResources registers calendar resources with the MCP server.
func RegisterCalendarResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	// Register calendar list resource
	calendarsResource := mcp.NewResource(
		"calendars://list",
		"Available Calendars",
		mcp.WithResourceDescription("All calendars accessible to the default account, with stable IDs for unambiguous addressing"),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(calendarsResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleCalendarList(ctx, request, sc)
	})

	return nil
}

// handleCalendarList returns the JSON projection of all calendars.
func handleCalendarList(_ context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	client := sc.CalendarClient()
	if client == nil {
		return nil, fmt.Errorf("no calendar client available for account: default")
	}

	calendars, err := client.ListCalendars()
	if err != nil {
		return nil, fmt.Errorf("failed to list calendars: %w", err)
	}

	type calendarEntry struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Account     string `json:"account"`
		AccessRole  string `json:"accessRole"`
		TimeZone    string `json:"timeZone,omitempty"`
		Primary     bool   `json:"primary,omitempty"`
		Description string `json:"description,omitempty"`
	}

	entries := make([]calendarEntry, 0, len(calendars))
	for _, cal := range calendars {
		entries = append(entries, calendarEntry{
			ID:          cal.ID,
			Name:        cal.Summary,
			Account:     cal.Account,
			AccessRole:  cal.AccessRole,
			TimeZone:    cal.TimeZone,
			Primary:     cal.Primary,
			Description: cal.Description,
		})
	}

	jsonData, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal calendar data: %w", err)
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}
