package calendar_tools

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"mcal/internal/calendar"
	"mcal/internal/instrumentation"
	"mcal/internal/server"
	"mcal/internal/tools/common"
)

const selectorDescriptionID = "Stable calendar ID. Takes precedence over calendar_name. " +
	"Use list_calendars to discover IDs."
const selectorDescriptionName = "Calendar display name. Fails with the full candidate list " +
	"when several calendars share the name; retry with calendar_id in that case."

// RegisterEventTools registers event-related tools with the MCP server
func RegisterEventTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	// List events tool
	listEventsTool := mcp.NewTool("list_events",
		mcp.WithDescription("List calendar events within a time range. Without a calendar selector, "+
			"events from all calendars are aggregated and tagged with their owning calendar."),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("calendar_id",
			mcp.Description(selectorDescriptionID),
		),
		mcp.WithString("calendar_name",
			mcp.Description(selectorDescriptionName),
		),
		mcp.WithString("start",
			mcp.Required(),
			mcp.Description("Start time for the range (RFC3339 format, e.g., '2025-01-01T00:00:00Z')"),
		),
		mcp.WithString("end",
			mcp.Required(),
			mcp.Description("End time for the range (RFC3339 format, e.g., '2025-01-31T23:59:59Z')"),
		),
		mcp.WithString("query",
			mcp.Description("Optional search query to filter events"),
		),
	)

	s.AddTool(listEventsTool, common.InstrumentedToolHandlerWithOperation(
		"list_events", instrumentation.OperationList, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListEvents(ctx, request, sc)
		}))

	// Get event tool
	getEventTool := mcp.NewTool("get_event",
		mcp.WithDescription("Get details of a specific calendar event"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("calendar_id",
			mcp.Description(selectorDescriptionID),
		),
		mcp.WithString("calendar_name",
			mcp.Description(selectorDescriptionName),
		),
		mcp.WithString("event_id",
			mcp.Required(),
			mcp.Description("The ID of the event to retrieve"),
		),
	)

	s.AddTool(getEventTool, common.InstrumentedToolHandlerWithOperation(
		"get_event", instrumentation.OperationGet, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetEvent(ctx, request, sc)
		}))

	// Create event tool
	createEventTool := mcp.NewTool("create_event",
		mcp.WithDescription("Create a new calendar event (supports all-day, recurring, attendees, and reminders). "+
			"Without a calendar selector, the event is created on the primary calendar."),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("calendar_id",
			mcp.Description(selectorDescriptionID),
		),
		mcp.WithString("calendar_name",
			mcp.Description(selectorDescriptionName),
		),
		mcp.WithString("summary",
			mcp.Required(),
			mcp.Description("Event title/summary"),
		),
		mcp.WithString("description",
			mcp.Description("Event description"),
		),
		mcp.WithString("location",
			mcp.Description("Event location"),
		),
		mcp.WithString("start",
			mcp.Required(),
			mcp.Description("Start time (RFC3339 format, e.g., '2025-01-15T14:00:00Z')"),
		),
		mcp.WithString("end",
			mcp.Required(),
			mcp.Description("End time (RFC3339 format, e.g., '2025-01-15T15:00:00Z')"),
		),
		mcp.WithString("time_zone",
			mcp.Description("Time zone (e.g., 'America/New_York'). Defaults to UTC."),
		),
		mcp.WithString("attendees",
			mcp.Description("Comma-separated list of attendee email addresses"),
		),
		mcp.WithString("recurrence",
			mcp.Description("Recurrence rule (e.g., 'RRULE:FREQ=WEEKLY;BYDAY=MO,WE,FR')"),
		),
		mcp.WithString("reminder_minutes",
			mcp.Description("Comma-separated minutes before start for popup reminders (e.g., '10,30')"),
		),
		mcp.WithBoolean("all_day",
			mcp.Description("Create as all-day event (ignores time portion of start/end)"),
		),
	)

	s.AddTool(createEventTool, common.InstrumentedToolHandlerWithOperation(
		"create_event", instrumentation.OperationCreate, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCreateEvent(ctx, request, sc)
		}))

	// Update event tool
	updateEventTool := mcp.NewTool("update_event",
		mcp.WithDescription("Update an existing calendar event. Providing a calendar selector moves "+
			"the event to that calendar before applying field changes."),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("calendar_id",
			mcp.Description(selectorDescriptionID),
		),
		mcp.WithString("calendar_name",
			mcp.Description(selectorDescriptionName),
		),
		mcp.WithString("event_id",
			mcp.Required(),
			mcp.Description("The ID of the event to update"),
		),
		mcp.WithString("summary",
			mcp.Description("New event title/summary"),
		),
		mcp.WithString("description",
			mcp.Description("New event description"),
		),
		mcp.WithString("location",
			mcp.Description("New event location"),
		),
		mcp.WithString("start",
			mcp.Description("New start time (RFC3339 format)"),
		),
		mcp.WithString("end",
			mcp.Description("New end time (RFC3339 format)"),
		),
		mcp.WithString("time_zone",
			mcp.Description("Time zone (e.g., 'America/New_York')"),
		),
		mcp.WithString("attendees",
			mcp.Description("New comma-separated list of attendee email addresses"),
		),
		mcp.WithString("reminder_minutes",
			mcp.Description("Comma-separated minutes before start for popup reminders (e.g., '10,30')"),
		),
		mcp.WithBoolean("all_day",
			mcp.Description("Update to be an all-day event (ignores time portion of start/end)"),
		),
	)

	s.AddTool(updateEventTool, common.InstrumentedToolHandlerWithOperation(
		"update_event", instrumentation.OperationUpdate, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleUpdateEvent(ctx, request, sc)
		}))

	// Delete event tool
	deleteEventTool := mcp.NewTool("delete_event",
		mcp.WithDescription("Delete a calendar event"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("calendar_id",
			mcp.Description(selectorDescriptionID),
		),
		mcp.WithString("calendar_name",
			mcp.Description(selectorDescriptionName),
		),
		mcp.WithString("event_id",
			mcp.Required(),
			mcp.Description("The ID of the event to delete"),
		),
	)

	s.AddTool(deleteEventTool, common.InstrumentedToolHandlerWithOperation(
		"delete_event", instrumentation.OperationDelete, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleDeleteEvent(ctx, request, sc)
		}))

	return nil
}

// findEventCalendar locates the calendar that holds the given event by
// scanning the account's calendars in enumeration order.
func findEventCalendar(client *calendar.Client, eventID string) (*calendar.EventSummary, *calendar.CalendarInfo, error) {
	calendars, err := client.ListCalendars()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list calendars: %w", err)
	}

	for i := range calendars {
		event, err := client.GetEvent(calendars[i].ID, eventID)
		if err != nil {
			continue
		}
		return event, &calendars[i], nil
	}

	return nil, nil, fmt.Errorf("no event with ID %q found in any calendar", eventID)
}

func parseReminderMinutes(value string) ([]int64, error) {
	parts := strings.Split(value, ",")
	minutes := make([]int64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		m, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid reminder minutes value %q", part)
		}
		minutes = append(minutes, m)
	}
	return minutes, nil
}

func splitEmails(value string) []string {
	emails := strings.Split(value, ",")
	for i := range emails {
		emails[i] = strings.TrimSpace(emails[i])
	}
	return emails
}

func handleListEvents(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(ctx, args)
	calendarID, calendarName := getSelectorArgs(args)

	startStr, ok := args["start"].(string)
	if !ok || startStr == "" {
		return mcp.NewToolResultError("start is required"), nil
	}
	start, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid start format: %v", err)), nil
	}

	endStr, ok := args["end"].(string)
	if !ok || endStr == "" {
		return mcp.NewToolResultError("end is required"), nil
	}
	end, err := time.Parse(time.RFC3339, endStr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid end format: %v", err)), nil
	}

	query := ""
	if queryVal, ok := args["query"].(string); ok {
		query = queryVal
	}

	client, err := getCalendarClient(ctx, account, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	target, err := resolveCalendarSelector(ctx, client, sc, calendarID, calendarName)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var events []calendar.EventSummary
	if target == nil {
		// No selector: aggregate events across all calendars
		events, err = client.ListEventsAllCalendars(start, end, query)
	} else {
		events, err = client.ListEvents(target.ID, start, end, query)
		for i := range events {
			events[i].CalendarID = target.ID
			events[i].CalendarName = target.Summary
		}
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list events: %v", err)), nil
	}

	result := fmt.Sprintf("Found %d event(s):\n\n", len(events))
	for i, event := range events {
		result += fmt.Sprintf("%d. %s\n", i+1, event.Summary)
		result += fmt.Sprintf("   ID: %s\n", event.ID)
		if event.CalendarName != "" {
			result += fmt.Sprintf("   Calendar: %s (%s)\n", event.CalendarName, event.CalendarID)
		} else if event.CalendarID != "" {
			result += fmt.Sprintf("   Calendar: %s\n", event.CalendarID)
		}
		if event.AllDay {
			result += fmt.Sprintf("   Date: %s (all day)\n", event.Start.Format("2006-01-02"))
		} else {
			result += fmt.Sprintf("   Start: %s\n", event.Start.Format(time.RFC3339))
			result += fmt.Sprintf("   End: %s\n", event.End.Format(time.RFC3339))
		}
		if event.Location != "" {
			result += fmt.Sprintf("   Location: %s\n", event.Location)
		}
		if event.MeetLink != "" {
			result += fmt.Sprintf("   Meet: %s\n", event.MeetLink)
		}
		if len(event.Attendees) > 0 {
			result += fmt.Sprintf("   Attendees: %d\n", len(event.Attendees))
		}
		result += "\n"
	}

	return mcp.NewToolResultText(result), nil
}

func handleGetEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(ctx, args)
	calendarID, calendarName := getSelectorArgs(args)

	eventID, ok := args["event_id"].(string)
	if !ok || eventID == "" {
		return mcp.NewToolResultError("event_id is required"), nil
	}

	client, err := getCalendarClient(ctx, account, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	target, err := resolveCalendarSelector(ctx, client, sc, calendarID, calendarName)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var event *calendar.EventSummary
	if target == nil {
		// No selector: search all calendars for the event
		event, target, err = findEventCalendar(client, eventID)
	} else {
		event, err = client.GetEvent(target.ID, eventID)
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get event: %v", err)), nil
	}

	result := fmt.Sprintf("Event: %s\n", event.Summary)
	result += fmt.Sprintf("ID: %s\n", event.ID)
	if target != nil {
		result += fmt.Sprintf("Calendar: %s (%s)\n", target.Summary, target.ID)
	}
	if event.AllDay {
		result += fmt.Sprintf("Date: %s (all day)\n", event.Start.Format("2006-01-02"))
	} else {
		result += fmt.Sprintf("Start: %s\n", event.Start.Format(time.RFC3339))
		result += fmt.Sprintf("End: %s\n", event.End.Format(time.RFC3339))
	}
	result += fmt.Sprintf("Status: %s\n", event.Status)
	if event.Description != "" {
		result += fmt.Sprintf("Description: %s\n", event.Description)
	}
	if event.Location != "" {
		result += fmt.Sprintf("Location: %s\n", event.Location)
	}
	if event.Creator != "" {
		result += fmt.Sprintf("Creator: %s\n", event.Creator)
	}
	if event.Organizer != "" {
		result += fmt.Sprintf("Organizer: %s\n", event.Organizer)
	}
	if event.MeetLink != "" {
		result += fmt.Sprintf("Google Meet: %s\n", event.MeetLink)
	}
	if len(event.Recurrence) > 0 {
		result += fmt.Sprintf("Recurrence: %s\n", strings.Join(event.Recurrence, "; "))
	}

	if len(event.Attendees) > 0 {
		result += fmt.Sprintf("\nAttendees (%d):\n", len(event.Attendees))
		for _, att := range event.Attendees {
			result += fmt.Sprintf("  - %s (%s)", att.Email, att.ResponseStatus)
			if att.DisplayName != "" {
				result += fmt.Sprintf(" - %s", att.DisplayName)
			}
			if att.Optional {
				result += " [optional]"
			}
			result += "\n"
		}
	}

	return mcp.NewToolResultText(result), nil
}

func handleCreateEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(ctx, args)
	calendarID, calendarName := getSelectorArgs(args)

	summary, ok := args["summary"].(string)
	if !ok || summary == "" {
		return mcp.NewToolResultError("summary is required"), nil
	}

	startStr, ok := args["start"].(string)
	if !ok || startStr == "" {
		return mcp.NewToolResultError("start is required"), nil
	}
	start, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid start format: %v", err)), nil
	}

	endStr, ok := args["end"].(string)
	if !ok || endStr == "" {
		return mcp.NewToolResultError("end is required"), nil
	}
	end, err := time.Parse(time.RFC3339, endStr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid end format: %v", err)), nil
	}

	input := calendar.EventInput{
		Summary: summary,
		Start:   start,
		End:     end,
	}

	if desc, ok := args["description"].(string); ok {
		input.Description = desc
	}
	if loc, ok := args["location"].(string); ok {
		input.Location = loc
	}
	if tz, ok := args["time_zone"].(string); ok {
		input.TimeZone = tz
	}

	if attendeesStr, ok := args["attendees"].(string); ok && attendeesStr != "" {
		input.Attendees = splitEmails(attendeesStr)
	}

	if recurrence, ok := args["recurrence"].(string); ok && recurrence != "" {
		input.Recurrence = []string{recurrence}
	}

	if remindersStr, ok := args["reminder_minutes"].(string); ok && remindersStr != "" {
		minutes, err := parseReminderMinutes(remindersStr)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		input.ReminderMinutes = minutes
	}

	if allDay, ok := args["all_day"].(bool); ok {
		input.AllDay = allDay
	}

	client, err := getCalendarClient(ctx, account, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	target, err := resolveCalendarSelector(ctx, client, sc, calendarID, calendarName)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// No selector: create on the store's default calendar
	targetID := calendar.DefaultCalendarID
	targetName := ""
	if target != nil {
		targetID = target.ID
		targetName = target.Summary
	}

	event, err := client.CreateEvent(targetID, input)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create event: %v", err)), nil
	}

	result := fmt.Sprintf("Successfully created event: %s\n", event.Summary)
	result += fmt.Sprintf("ID: %s\n", event.ID)
	if targetName != "" {
		result += fmt.Sprintf("Calendar: %s (%s)\n", targetName, targetID)
	} else {
		result += fmt.Sprintf("Calendar: %s\n", targetID)
	}
	if event.AllDay {
		result += fmt.Sprintf("Date: %s (all day)\n", event.Start.Format("2006-01-02"))
	} else {
		result += fmt.Sprintf("Start: %s\n", event.Start.Format(time.RFC3339))
		result += fmt.Sprintf("End: %s\n", event.End.Format(time.RFC3339))
	}
	if event.MeetLink != "" {
		result += fmt.Sprintf("Google Meet: %s\n", event.MeetLink)
	}

	return mcp.NewToolResultText(result), nil
}

func handleUpdateEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(ctx, args)
	calendarID, calendarName := getSelectorArgs(args)

	eventID, ok := args["event_id"].(string)
	if !ok || eventID == "" {
		return mcp.NewToolResultError("event_id is required"), nil
	}

	input := calendar.EventInput{}

	if summary, ok := args["summary"].(string); ok {
		input.Summary = summary
	}
	if desc, ok := args["description"].(string); ok {
		input.Description = desc
	}
	if loc, ok := args["location"].(string); ok {
		input.Location = loc
	}
	if tz, ok := args["time_zone"].(string); ok {
		input.TimeZone = tz
	}

	if startStr, ok := args["start"].(string); ok && startStr != "" {
		start, err := time.Parse(time.RFC3339, startStr)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid start format: %v", err)), nil
		}
		input.Start = start
	}

	if endStr, ok := args["end"].(string); ok && endStr != "" {
		end, err := time.Parse(time.RFC3339, endStr)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid end format: %v", err)), nil
		}
		input.End = end
	}

	if attendeesStr, ok := args["attendees"].(string); ok && attendeesStr != "" {
		input.Attendees = splitEmails(attendeesStr)
	}

	if remindersStr, ok := args["reminder_minutes"].(string); ok && remindersStr != "" {
		minutes, err := parseReminderMinutes(remindersStr)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		input.ReminderMinutes = minutes
	}

	if allDay, ok := args["all_day"].(bool); ok {
		input.AllDay = allDay
	}

	client, err := getCalendarClient(ctx, account, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// A selector on update means "move the event to the resolved calendar",
	// resolved before any field changes are applied.
	destination, err := resolveCalendarSelector(ctx, client, sc, calendarID, calendarName)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	_, current, err := findEventCalendar(client, eventID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to locate event: %v", err)), nil
	}

	targetID := current.ID
	if destination != nil && destination.ID != current.ID {
		if _, err := client.MoveEvent(current.ID, eventID, destination.ID); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to move event: %v", err)), nil
		}
		targetID = destination.ID
	}

	event, err := client.UpdateEvent(targetID, eventID, input)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to update event: %v", err)), nil
	}

	result := fmt.Sprintf("Successfully updated event: %s\n", event.Summary)
	result += fmt.Sprintf("ID: %s\n", event.ID)
	if destination != nil && destination.ID != current.ID {
		result += fmt.Sprintf("Moved to calendar: %s (%s)\n", destination.Summary, destination.ID)
	}
	if event.AllDay {
		result += fmt.Sprintf("Date: %s (all day)\n", event.Start.Format("2006-01-02"))
	} else {
		result += fmt.Sprintf("Start: %s\n", event.Start.Format(time.RFC3339))
		result += fmt.Sprintf("End: %s\n", event.End.Format(time.RFC3339))
	}

	return mcp.NewToolResultText(result), nil
}

func handleDeleteEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(ctx, args)
	calendarID, calendarName := getSelectorArgs(args)

	eventID, ok := args["event_id"].(string)
	if !ok || eventID == "" {
		return mcp.NewToolResultError("event_id is required"), nil
	}

	client, err := getCalendarClient(ctx, account, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	target, err := resolveCalendarSelector(ctx, client, sc, calendarID, calendarName)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if target == nil {
		// No selector: locate the calendar holding the event
		_, target, err = findEventCalendar(client, eventID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to locate event: %v", err)), nil
		}
	}

	if err := client.DeleteEvent(target.ID, eventID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to delete event: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Successfully deleted event %s from calendar %s", eventID, target.ID)), nil
}
