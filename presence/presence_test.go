package presence

import (
	"testing"
)

func TestInitialState(t *testing.T) {
	s := Initial()
	if s.Phase != PhasePing {
		t.Errorf("Expected initial phase to be ping, got %s", s.Phase)
	}
	if s.RoomID != "" {
		t.Errorf("Expected initial room id to be unset, got %q", s.RoomID)
	}
}

func TestJoin_Toggle(t *testing.T) {
	s := Initial()

	s = Join(s, "a")
	if s.Phase != PhasePong || s.RoomID != "a" {
		t.Fatalf("Expected Pong room a after first join, got %s room %q", s.Phase, s.RoomID)
	}

	s = Join(s, "a")
	if s.Phase != PhasePing || s.RoomID != "a" {
		t.Fatalf("Expected Ping room a after second join, got %s room %q", s.Phase, s.RoomID)
	}
}

func TestJoin_RoundTrip(t *testing.T) {
	start := State{Phase: PhasePing, RoomID: "r1"}
	end := Join(Join(start, "r1"), "r1")
	if end != start {
		t.Errorf("Expected two joins with the same id to restore the state, got %+v", end)
	}
}

func TestJoin_EmptyRoomIDKeepsPrevious(t *testing.T) {
	s := State{Phase: PhasePing, RoomID: "keep"}
	next := Join(s, "")
	if next.RoomID != "keep" {
		t.Errorf("Expected empty room id to preserve %q, got %q", "keep", next.RoomID)
	}

	// Left carries no room id, so joining from it with no id stays unset.
	left := State{Phase: PhaseLeft, PrevStatus: "Left Ping room keep"}
	next = Join(left, "")
	if next.Phase != PhasePing || next.RoomID != "" {
		t.Errorf("Expected Ping with unset room id, got %s room %q", next.Phase, next.RoomID)
	}
}

func TestStatusMessage_AfterFirstJoin(t *testing.T) {
	s := Join(Initial(), "a")
	if got := StatusMessage(s); got != "In the Pong room a" {
		t.Errorf("StatusMessage() = %q, want %q", got, "In the Pong room a")
	}
}

func TestLeave_FromPong(t *testing.T) {
	s := State{Phase: PhasePong, RoomID: "a"}

	next, err := Leave(s, StrictLeave)
	if err != nil {
		t.Fatalf("Leave from Pong should not fail, got: %v", err)
	}
	if next.Phase != PhaseLeft {
		t.Fatalf("Expected Left, got %s", next.Phase)
	}
	if next.PrevStatus != "Left Pong room a" {
		t.Errorf("PrevStatus = %q, want %q", next.PrevStatus, "Left Pong room a")
	}
	if got := StatusMessage(next); got != "Not in any room (previously in Left Pong room a)" {
		t.Errorf("StatusMessage() = %q, want %q", got, "Not in any room (previously in Left Pong room a)")
	}
}

func TestLeave_FromPing(t *testing.T) {
	s := State{Phase: PhasePing, RoomID: "b"}
	next, err := Leave(s, RecoverLeave)
	if err != nil {
		t.Fatalf("Leave from Ping should not fail, got: %v", err)
	}
	if next.PrevStatus != "Left Ping room b" {
		t.Errorf("PrevStatus = %q, want %q", next.PrevStatus, "Left Ping room b")
	}
}

func TestLeave_FromLeft_Strict(t *testing.T) {
	s := State{Phase: PhaseLeft, PrevStatus: "Left Ping room a"}

	next, err := Leave(s, StrictLeave)
	if err != ErrNoRoomAssigned {
		t.Fatalf("Expected ErrNoRoomAssigned, got: %v", err)
	}
	if next != s {
		t.Errorf("A failed strict leave must not change the state, got %+v", next)
	}
}

func TestLeave_FromLeft_Recover(t *testing.T) {
	s := State{Phase: PhaseLeft, PrevStatus: "Left Ping room a"}

	next, err := Leave(s, RecoverLeave)
	if err != nil {
		t.Fatalf("Recovering leave should not fail, got: %v", err)
	}
	if next.Phase != PhaseError {
		t.Fatalf("Expected Error variant, got %s", next.Phase)
	}
	if next.ErrMessage != "Can't leave, no room assigned" {
		t.Errorf("ErrMessage = %q, want %q", next.ErrMessage, "Can't leave, no room assigned")
	}
	if got := StatusMessage(next); got != "An error occurred. Can't leave, no room assigned" {
		t.Errorf("StatusMessage() = %q, want %q", got, "An error occurred. Can't leave, no room assigned")
	}
}

func TestLeave_FromError_Absorbed(t *testing.T) {
	s := State{Phase: PhaseError, ErrMessage: "Can't leave, no room assigned"}

	for _, policy := range []LeavePolicy{StrictLeave, RecoverLeave} {
		next, err := Leave(s, policy)
		if err != nil {
			t.Fatalf("Leave on Error should be absorbed, got: %v", err)
		}
		if next != s {
			t.Errorf("Leave on Error must return the state unchanged, got %+v", next)
		}
	}
}

func TestJoin_RecoversFromError(t *testing.T) {
	s := State{Phase: PhaseError, ErrMessage: "Can't leave, no room assigned"}

	next := Join(s, "b")
	if next.Phase != PhasePing || next.RoomID != "b" {
		t.Errorf("Expected Ping room b after recovery, got %s room %q", next.Phase, next.RoomID)
	}
	if next.ErrMessage != "" {
		t.Errorf("Recovered state should not carry an error message, got %q", next.ErrMessage)
	}
}

func TestStatusMessage_AllVariants(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		expected string
	}{
		{
			name:     "ping",
			state:    State{Phase: PhasePing, RoomID: "r"},
			expected: "In the Ping room r",
		},
		{
			name:     "pong",
			state:    State{Phase: PhasePong, RoomID: "r"},
			expected: "In the Pong room r",
		},
		{
			name:     "left",
			state:    State{Phase: PhaseLeft, PrevStatus: "Left Ping room r"},
			expected: "Not in any room (previously in Left Ping room r)",
		},
		{
			name:     "error",
			state:    State{Phase: PhaseError, ErrMessage: "boom"},
			expected: "An error occurred. boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusMessage(tt.state); got != tt.expected {
				t.Errorf("StatusMessage() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestPhaseString(t *testing.T) {
	tests := []struct {
		name     string
		phase    Phase
		expected string
	}{
		{name: "ping", phase: PhasePing, expected: "ping"},
		{name: "pong", phase: PhasePong, expected: "pong"},
		{name: "left", phase: PhaseLeft, expected: "left"},
		{name: "error", phase: PhaseError, expected: "error"},
		{name: "unknown", phase: Phase(99), expected: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.phase.String(); got != tt.expected {
				t.Errorf("Phase.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestParseLeavePolicy(t *testing.T) {
	if p, err := ParseLeavePolicy("strict"); err != nil || p != StrictLeave {
		t.Errorf("ParseLeavePolicy(strict) = %v, %v", p, err)
	}
	if p, err := ParseLeavePolicy("recover"); err != nil || p != RecoverLeave {
		t.Errorf("ParseLeavePolicy(recover) = %v, %v", p, err)
	}
	if p, err := ParseLeavePolicy(""); err != nil || p != RecoverLeave {
		t.Errorf("ParseLeavePolicy(\"\") = %v, %v", p, err)
	}
	if _, err := ParseLeavePolicy("bogus"); err == nil {
		t.Error("ParseLeavePolicy(bogus) should fail")
	}
}

func TestInRoom(t *testing.T) {
	if !InRoom(State{Phase: PhasePing}) || !InRoom(State{Phase: PhasePong}) {
		t.Error("Ping and Pong should count as in a room")
	}
	if InRoom(State{Phase: PhaseLeft}) || InRoom(State{Phase: PhaseError}) {
		t.Error("Left and Error should not count as in a room")
	}
}
