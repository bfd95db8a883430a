package calendar

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoSelector is returned when a calendar must be identified but neither
// an ID nor a name was supplied.
var ErrNoSelector = errors.New("no calendar selector: provide a calendar ID or a calendar name")

// NotFoundError indicates that no calendar matched the given selector.
type NotFoundError struct {
	ID   string
	Name string
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("no calendar with ID %q", e.ID)
	}
	return fmt.Sprintf("no calendar named %q", e.Name)
}

// AmbiguousNameError indicates that a calendar name matched more than one
// calendar. Candidates holds every matching calendar, in the order the store
// enumerated them, so the caller can pick one and retry with its ID.
type AmbiguousNameError struct {
	Name       string
	Candidates []CalendarInfo
}

func (e *AmbiguousNameError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "calendar name %q matches %d calendars:", e.Name, len(e.Candidates))
	for _, c := range e.Candidates {
		fmt.Fprintf(&b, "\n  - ID %s (account: %s, access: %s)", c.ID, c.Account, c.AccessRole)
	}
	b.WriteString("\nUse list_calendars to inspect them, then retry with a calendar ID.")
	return b.String()
}

// Resolve selects exactly one calendar from calendars using an optional ID
// and an optional name. An ID takes precedence: when present, the name is
// ignored entirely and the ID either matches a calendar or the resolution
// fails with a NotFoundError. Without an ID the name is matched against each
// calendar's display name; a unique match resolves, no match fails with a
// NotFoundError, and multiple matches fail with an AmbiguousNameError that
// carries every candidate. With neither selector, ErrNoSelector is returned.
//
// Resolve never picks an arbitrary calendar out of several matches.
func Resolve(calendars []CalendarInfo, id, name string) (*CalendarInfo, error) {
	if id != "" {
		for i := range calendars {
			if calendars[i].ID == id {
				return &calendars[i], nil
			}
		}
		return nil, &NotFoundError{ID: id}
	}

	if name != "" {
		var matches []CalendarInfo
		for _, c := range calendars {
			if c.Summary == name {
				matches = append(matches, c)
			}
		}
		switch len(matches) {
		case 0:
			return nil, &NotFoundError{Name: name}
		case 1:
			return &matches[0], nil
		default:
			return nil, &AmbiguousNameError{Name: name, Candidates: matches}
		}
	}

	return nil, ErrNoSelector
}

// ResolveCalendar resolves an optional calendar ID and/or name against the
// store's current calendar list. The list is re-read on every call; nothing
// is cached, so renames and newly shared calendars take effect immediately.
func (c *Client) ResolveCalendar(id, name string) (*CalendarInfo, error) {
	calendars, err := c.ListCalendars()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve calendar: %w", err)
	}
	return Resolve(calendars, id, name)
}
