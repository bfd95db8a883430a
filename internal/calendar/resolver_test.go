package calendar

import (
	"errors"
	"strings"
	"testing"
)

func testCalendars() []CalendarInfo {
	return []CalendarInfo{
		{ID: "cal-personal", Summary: "Personal", Account: "default", AccessRole: "owner", Primary: true},
		{ID: "A", Summary: "TestDup", Account: "default", AccessRole: "owner"},
		{ID: "B", Summary: "TestDup", Account: "default", AccessRole: "reader"},
		{ID: "cal-work", Summary: "Work", Account: "default", AccessRole: "owner"},
		{ID: "cal-team", Summary: "Team", Account: "work", AccessRole: "writer"},
	}
}

func TestResolveByID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantID  string
		wantErr bool
	}{
		{
			name:   "existing ID",
			id:     "cal-work",
			wantID: "cal-work",
		},
		{
			name:   "ID of a duplicate-named calendar",
			id:     "B",
			wantID: "B",
		},
		{
			name:    "unknown ID",
			id:      "cal-missing",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(testCalendars(), tt.id, "")
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				var notFound *NotFoundError
				if !errors.As(err, &notFound) {
					t.Fatalf("expected NotFoundError, got %T", err)
				}
				if notFound.ID != tt.id {
					t.Errorf("NotFoundError.ID = %q, want %q", notFound.ID, tt.id)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.ID != tt.wantID {
				t.Errorf("resolved ID = %q, want %q", got.ID, tt.wantID)
			}
		})
	}
}

func TestResolveByName(t *testing.T) {
	t.Run("unique name resolves", func(t *testing.T) {
		got, err := Resolve(testCalendars(), "", "Work")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.ID != "cal-work" {
			t.Errorf("resolved ID = %q, want %q", got.ID, "cal-work")
		}
	})

	t.Run("unknown name is not found, never ambiguous", func(t *testing.T) {
		_, err := Resolve(testCalendars(), "", "Nonexistent")
		var notFound *NotFoundError
		if !errors.As(err, &notFound) {
			t.Fatalf("expected NotFoundError, got %T: %v", err, err)
		}
		var ambiguous *AmbiguousNameError
		if errors.As(err, &ambiguous) {
			t.Error("zero-match resolution must not report ambiguity")
		}
	})

	t.Run("duplicate name reports every candidate", func(t *testing.T) {
		_, err := Resolve(testCalendars(), "", "TestDup")
		var ambiguous *AmbiguousNameError
		if !errors.As(err, &ambiguous) {
			t.Fatalf("expected AmbiguousNameError, got %T: %v", err, err)
		}
		if ambiguous.Name != "TestDup" {
			t.Errorf("AmbiguousNameError.Name = %q, want %q", ambiguous.Name, "TestDup")
		}
		if len(ambiguous.Candidates) != 2 {
			t.Fatalf("got %d candidates, want 2", len(ambiguous.Candidates))
		}
		// Candidates keep store enumeration order and contain exactly the
		// matching calendars, no omissions or duplicates.
		if ambiguous.Candidates[0].ID != "A" || ambiguous.Candidates[1].ID != "B" {
			t.Errorf("candidate IDs = [%s %s], want [A B]",
				ambiguous.Candidates[0].ID, ambiguous.Candidates[1].ID)
		}
		for _, c := range ambiguous.Candidates {
			if c.Summary != "TestDup" {
				t.Errorf("candidate %s has name %q, want %q", c.ID, c.Summary, "TestDup")
			}
		}
	})
}

func TestResolveIDTakesPrecedence(t *testing.T) {
	// An ID must win even when the accompanying name is ambiguous.
	got, err := Resolve(testCalendars(), "A", "TestDup")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "A" {
		t.Errorf("resolved ID = %q, want %q", got.ID, "A")
	}

	// And an unknown ID must fail even when the name would resolve.
	_, err = Resolve(testCalendars(), "cal-missing", "Work")
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %T: %v", err, err)
	}
}

func TestResolveNoSelector(t *testing.T) {
	_, err := Resolve(testCalendars(), "", "")
	if !errors.Is(err, ErrNoSelector) {
		t.Fatalf("expected ErrNoSelector, got %v", err)
	}
}

func TestResolveEmptyStore(t *testing.T) {
	_, err := Resolve(nil, "", "Work")
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %T: %v", err, err)
	}
}

func TestResolveSingleMatchAmongMany(t *testing.T) {
	// A single "Work" calendar resolves even when other calendars share
	// names with each other.
	got, err := Resolve(testCalendars(), "", "Work")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Summary != "Work" || got.ID != "cal-work" {
		t.Errorf("resolved %q (%s), want Work (cal-work)", got.Summary, got.ID)
	}
}

func TestAmbiguousNameErrorMessage(t *testing.T) {
	err := &AmbiguousNameError{
		Name: "TestDup",
		Candidates: []CalendarInfo{
			{ID: "A", Summary: "TestDup", Account: "default", AccessRole: "owner"},
			{ID: "B", Summary: "TestDup", Account: "work", AccessRole: "reader"},
		},
	}

	msg := err.Error()
	for _, want := range []string{"TestDup", "A", "B", "default", "work", "list_calendars", "calendar ID"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error message missing %q:\n%s", want, msg)
		}
	}
}

func TestNotFoundErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *NotFoundError
		want string
	}{
		{
			name: "by ID",
			err:  &NotFoundError{ID: "cal-missing"},
			want: `no calendar with ID "cal-missing"`,
		},
		{
			name: "by name",
			err:  &NotFoundError{Name: "Nonexistent"},
			want: `no calendar named "Nonexistent"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}
