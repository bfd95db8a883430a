// Package calendar provides a client for interacting with the Google Calendar API.
//
// This package offers functionality for managing calendars and calendar events,
// including creating, reading, updating, deleting and moving events, as well as
// checking availability across calendars.
//
// Calendars are addressed either by their store-assigned ID (unique and stable)
// or by their display name. Display names are not unique: the same name can
// appear on a personal calendar and on a calendar shared from another account.
// ResolveCalendar implements the addressing contract: an ID always wins, a name
// that matches exactly one calendar resolves to it, and a name shared by several
// calendars fails with an AmbiguousNameError listing every candidate so the
// caller can retry with an ID.
//
// The client supports multi-account authentication using the Google OAuth2 flow
// and can manage events across multiple Google accounts.
//
// Example usage:
//
//	ctx := context.Background()
//	client, err := calendar.NewClient(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	cal, err := client.ResolveCalendar("", "Work")
//	if err != nil {
//	    log.Fatal(err) // may be an AmbiguousNameError with candidates
//	}
//
//	events, err := client.ListEvents(cal.ID, time.Now(), time.Now().AddDate(0, 0, 7), "")
//	if err != nil {
//	    log.Fatal(err)
//	}
package calendar
