package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"mcal/internal/google"
	"mcal/internal/logging"
)

// DefaultCalendarID addresses the account's primary calendar in the store.
const DefaultCalendarID = "primary"

// Client wraps the Google Calendar service
type Client struct {
	svc           *calendar.Service
	account       string // The account this client is associated with
	tokenProvider google.TokenProvider
}

// Account returns the account name this client is associated with
func (c *Client) Account() string {
	return c.account
}

// HasTokenForAccountWithProvider checks if a valid OAuth token exists for the specified account
func HasTokenForAccountWithProvider(account string, provider google.TokenProvider) bool {
	if provider == nil {
		return false
	}
	return provider.HasTokenForAccount(account)
}

// HasTokenForAccount checks if a valid OAuth token exists for the specified account
func HasTokenForAccount(account string) bool {
	provider := google.NewFileTokenProvider()
	return HasTokenForAccountWithProvider(account, provider)
}

// HasToken checks if a valid OAuth token exists for the default account
func HasToken() bool {
	return HasTokenForAccount("default")
}

// RefreshObserver is notified whenever the underlying OAuth token source
// mints a new access token. A nil error means the refresh succeeded.
type RefreshObserver func(err error)

// observedTokenSource wraps a token source and reports refresh outcomes.
// The stored tokens carry an expired Expiry, so the wrapped source refreshes
// on first use; subsequent refreshes are detected by access token changes.
type observedTokenSource struct {
	src      oauth2.TokenSource
	observer RefreshObserver

	mu         sync.Mutex
	lastAccess string
}

func (s *observedTokenSource) Token() (*oauth2.Token, error) {
	t, err := s.src.Token()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.observer(err)
		return nil, err
	}
	if t.AccessToken != s.lastAccess {
		s.observer(nil)
		s.lastAccess = t.AccessToken
	}
	return t, nil
}

// NewClientForAccountWithProvider creates a new Calendar client with OAuth2 authentication for a specific account
// The OAuth token is retrieved from the provided token provider
func NewClientForAccountWithProvider(ctx context.Context, account string, tokenProvider google.TokenProvider) (*Client, error) {
	return NewObservedClientForAccount(ctx, account, tokenProvider, nil)
}

// NewObservedClientForAccount creates a Calendar client whose token source
// reports token refresh outcomes to observer. A nil observer disables
// reporting.
func NewObservedClientForAccount(ctx context.Context, account string, tokenProvider google.TokenProvider, observer RefreshObserver) (*Client, error) {
	if tokenProvider == nil {
		return nil, fmt.Errorf("token provider cannot be nil")
	}

	// Get token from the provided provider
	token, err := tokenProvider.GetTokenForAccount(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to get Google OAuth token for account %s: %w", account, err)
	}

	// Create OAuth2 config and token source
	conf, err := google.GetOAuthConfig()
	if err != nil {
		return nil, err
	}
	var tokenSource oauth2.TokenSource = conf.TokenSource(ctx, token)
	if observer != nil {
		tokenSource = &observedTokenSource{src: tokenSource, observer: observer}
	}

	// Create HTTP client with the token
	client := oauth2.NewClient(ctx, tokenSource)

	// Force HTTP/1.1 by disabling HTTP/2
	transport := client.Transport.(*oauth2.Transport)
	baseTransport := &http.Transport{
		ForceAttemptHTTP2: false,
	}
	transport.Base = baseTransport

	svc, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}

	return &Client{
		svc:           svc,
		account:       account,
		tokenProvider: tokenProvider,
	}, nil
}

// NewClientForAccount creates a new Calendar client with OAuth2 authentication for a specific account
// Uses the default file-based token provider for backward compatibility
func NewClientForAccount(ctx context.Context, account string) (*Client, error) {
	provider := google.NewFileTokenProvider()
	return NewClientForAccountWithProvider(ctx, account, provider)
}

// NewClient creates a new Calendar client with OAuth2 authentication for the default account
func NewClient(ctx context.Context) (*Client, error) {
	return NewClientForAccount(ctx, "default")
}

// NewClientWithProvider creates a new Calendar client with OAuth2 authentication for the default account
// using the provided token provider
func NewClientWithProvider(ctx context.Context, provider google.TokenProvider) (*Client, error) {
	return NewClientForAccountWithProvider(ctx, "default", provider)
}

// NewClientWithService wraps an already-constructed Calendar service. The
// caller controls the service's endpoint and transport, which lets tests run
// the client against a local stand-in for the store.
func NewClientWithService(svc *calendar.Service, account string) *Client {
	return &Client{svc: svc, account: account}
}

// ListCalendars lists all calendars accessible to the account, in the order
// the store enumerates them
func (c *Client) ListCalendars() ([]CalendarInfo, error) {
	var calendars []CalendarInfo
	pageToken := ""
	for {
		call := c.svc.CalendarList.List()
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		list, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list calendars: %w", err)
		}
		for _, entry := range list.Items {
			calendars = append(calendars, toCalendarInfo(entry, c.account))
		}
		if list.NextPageToken == "" {
			break
		}
		pageToken = list.NextPageToken
	}

	return calendars, nil
}

// GetCalendar retrieves information about a specific calendar
func (c *Client) GetCalendar(calendarID string) (*CalendarInfo, error) {
	entry, err := c.svc.CalendarList.Get(calendarID).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get calendar: %w", err)
	}

	info := toCalendarInfo(entry, c.account)
	return &info, nil
}

// GetPrimaryCalendar retrieves information about the primary calendar
func (c *Client) GetPrimaryCalendar() (*CalendarInfo, error) {
	return c.GetCalendar(DefaultCalendarID)
}

// ListEvents lists events in a calendar within a time range
func (c *Client) ListEvents(calendarID string, timeMin, timeMax time.Time, query string) ([]EventSummary, error) {
	call := c.svc.Events.List(calendarID).
		TimeMin(timeMin.Format(time.RFC3339)).
		TimeMax(timeMax.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime")

	if query != "" {
		call = call.Q(query)
	}

	events, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	var summaries []EventSummary
	for _, event := range events.Items {
		summaries = append(summaries, toEventSummary(event))
	}

	return summaries, nil
}

// ListEventsAllCalendars lists events across every calendar the account can
// see, tagging each event with the calendar it was read from. Per-calendar
// listing errors abort the aggregation.
func (c *Client) ListEventsAllCalendars(timeMin, timeMax time.Time, query string) ([]EventSummary, error) {
	calendars, err := c.ListCalendars()
	if err != nil {
		return nil, err
	}

	var all []EventSummary
	for _, cal := range calendars {
		events, err := c.ListEvents(cal.ID, timeMin, timeMax, query)
		if err != nil {
			return nil, fmt.Errorf("failed to list events for calendar %s: %w", cal.ID, err)
		}
		for i := range events {
			events[i].CalendarID = cal.ID
			events[i].CalendarName = cal.Summary
		}
		all = append(all, events...)
	}

	return all, nil
}

// GetEvent retrieves a specific event by ID
func (c *Client) GetEvent(calendarID, eventID string) (*EventSummary, error) {
	event, err := c.svc.Events.Get(calendarID, eventID).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	summary := toEventSummary(event)
	summary.CalendarID = calendarID
	return &summary, nil
}

// CreateEvent creates a new calendar event
func (c *Client) CreateEvent(calendarID string, input EventInput) (*EventSummary, error) {
	event := &calendar.Event{
		Summary:     input.Summary,
		Description: input.Description,
		Location:    input.Location,
		Start:       toEventDateTime(input.Start, input.TimeZone, input.AllDay),
		End:         toEventDateTime(input.End, input.TimeZone, input.AllDay),
	}

	if len(input.Attendees) > 0 {
		var attendees []*calendar.EventAttendee
		for _, email := range input.Attendees {
			attendees = append(attendees, &calendar.EventAttendee{
				Email: email,
			})
		}
		event.Attendees = attendees
	}

	if len(input.Recurrence) > 0 {
		event.Recurrence = input.Recurrence
	}

	if reminders := toReminders(input.ReminderMinutes); reminders != nil {
		event.Reminders = reminders
	}

	created, err := c.svc.Events.Insert(calendarID, event).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	slog.Debug("created event",
		logging.Account(c.account),
		logging.CalendarID(calendarID),
		logging.EventID(created.Id),
	)

	summary := toEventSummary(created)
	summary.CalendarID = calendarID
	return &summary, nil
}

// UpdateEvent updates an existing calendar event. Only fields set on input
// are changed; everything else keeps its stored value.
func (c *Client) UpdateEvent(calendarID, eventID string, input EventInput) (*EventSummary, error) {
	// Get the existing event first
	existing, err := c.svc.Events.Get(calendarID, eventID).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get existing event: %w", err)
	}

	if input.Summary != "" {
		existing.Summary = input.Summary
	}
	if input.Description != "" {
		existing.Description = input.Description
	}
	if input.Location != "" {
		existing.Location = input.Location
	}

	if !input.Start.IsZero() {
		existing.Start = toEventDateTime(input.Start, input.TimeZone, input.AllDay)
	}
	if !input.End.IsZero() {
		existing.End = toEventDateTime(input.End, input.TimeZone, input.AllDay)
	}

	if len(input.Attendees) > 0 {
		var attendees []*calendar.EventAttendee
		for _, email := range input.Attendees {
			attendees = append(attendees, &calendar.EventAttendee{
				Email: email,
			})
		}
		existing.Attendees = attendees
	}

	if len(input.Recurrence) > 0 {
		existing.Recurrence = input.Recurrence
	}

	if reminders := toReminders(input.ReminderMinutes); reminders != nil {
		existing.Reminders = reminders
	}

	updated, err := c.svc.Events.Update(calendarID, eventID, existing).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	summary := toEventSummary(updated)
	summary.CalendarID = calendarID
	return &summary, nil
}

// MoveEvent moves an event from one calendar to another. The event keeps its
// ID; only the owning calendar changes.
func (c *Client) MoveEvent(calendarID, eventID, destinationID string) (*EventSummary, error) {
	moved, err := c.svc.Events.Move(calendarID, eventID, destinationID).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to move event: %w", err)
	}

	slog.Debug("moved event",
		logging.Account(c.account),
		logging.CalendarID(destinationID),
		logging.EventID(eventID),
	)

	summary := toEventSummary(moved)
	summary.CalendarID = destinationID
	return &summary, nil
}

// DeleteEvent deletes a calendar event
func (c *Client) DeleteEvent(calendarID, eventID string) error {
	err := c.svc.Events.Delete(calendarID, eventID).Do()
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}

	slog.Debug("deleted event",
		logging.Account(c.account),
		logging.CalendarID(calendarID),
		logging.EventID(eventID),
	)
	return nil
}

// QueryFreeBusy checks availability for calendars in a time range
func (c *Client) QueryFreeBusy(timeMin, timeMax time.Time, calendarIDs []string) ([]FreeBusyInfo, error) {
	items := make([]*calendar.FreeBusyRequestItem, len(calendarIDs))
	for i, id := range calendarIDs {
		items[i] = &calendar.FreeBusyRequestItem{Id: id}
	}

	query := &calendar.FreeBusyRequest{
		TimeMin: timeMin.Format(time.RFC3339),
		TimeMax: timeMax.Format(time.RFC3339),
		Items:   items,
	}

	result, err := c.svc.Freebusy.Query(query).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to query freebusy: %w", err)
	}

	var infos []FreeBusyInfo
	for calID, cal := range result.Calendars {
		info := FreeBusyInfo{
			Calendar: calID,
		}

		for _, busy := range cal.Busy {
			start, _ := time.Parse(time.RFC3339, busy.Start)
			end, _ := time.Parse(time.RFC3339, busy.End)
			info.Busy = append(info.Busy, TimeRange{Start: start, End: end})
		}

		for _, err := range cal.Errors {
			info.Errors = append(info.Errors, err.Reason)
		}

		infos = append(infos, info)
	}

	return infos, nil
}
