package session

import (
	"errors"
	"testing"
)

func TestState_String(t *testing.T) {
	tests := []struct {
		state    State
		expected string
	}{
		{StateCreated, "CREATED"},
		{StateExchanged, "EXCHANGED"},
		{StateCompleted, "COMPLETED"},
		{StateScored, "SCORED"},
		{State(99), "UNKNOWN(99)"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.expected {
			t.Errorf("State(%d).String() = %s, want %s", tt.state, got, tt.expected)
		}
	}
}

func TestParseState_RoundTrip(t *testing.T) {
	for _, s := range []State{StateCreated, StateExchanged, StateCompleted, StateScored} {
		got, err := ParseState(s.String())
		if err != nil {
			t.Fatalf("ParseState(%s): unexpected error: %v", s, err)
		}
		if got != s {
			t.Errorf("ParseState(%s) = %v", s, got)
		}
	}
}

func TestParseState_EmptyIsCreated(t *testing.T) {
	got, err := ParseState("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != StateCreated {
		t.Errorf("expected StateCreated, got %v", got)
	}
}

func TestParseState_Unknown(t *testing.T) {
	if _, err := ParseState("ARCHIVED"); err == nil {
		t.Error("expected error for unknown state")
	}
}

func TestAdvance(t *testing.T) {
	tests := []struct {
		from    State
		event   Event
		want    State
		wantErr bool
	}{
		{StateCreated, EventExchange, StateExchanged, false},
		{StateExchanged, EventExchange, StateExchanged, false},
		{StateScored, EventExchange, StateExchanged, false},
		{StateCompleted, EventExchange, StateCompleted, true},

		{StateCreated, EventComplete, StateCompleted, false},
		{StateExchanged, EventComplete, StateCompleted, false},
		{StateCompleted, EventComplete, StateCompleted, true},
		{StateScored, EventComplete, StateScored, true},

		{StateCreated, EventScore, StateCreated, true},
		{StateExchanged, EventScore, StateScored, false},
		{StateCompleted, EventScore, StateScored, false},
		{StateScored, EventScore, StateScored, false},
	}

	for _, tt := range tests {
		t.Run(tt.from.String()+"/"+tt.event.String(), func(t *testing.T) {
			got, err := Advance(tt.from, tt.event)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTransition) {
					t.Errorf("expected ErrInvalidTransition, got %v", err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Advance(%s, %s) = %s, want %s", tt.from, tt.event, got, tt.want)
			}
		})
	}
}

func TestAdvance_FullInterview(t *testing.T) {
	s := StateCreated
	for _, ev := range []Event{EventExchange, EventExchange, EventExchange, EventComplete, EventScore, EventScore} {
		next, err := Advance(s, ev)
		if err != nil {
			t.Fatalf("%s from %s: unexpected error: %v", ev, s, err)
		}
		s = next
	}
	if s != StateScored {
		t.Errorf("expected StateScored, got %v", s)
	}
}
