package presence

import (
	"testing"
)

func TestMachine_InitialState(t *testing.T) {
	m := NewMachine(RecoverLeave)
	if m.Current() != Initial() {
		t.Errorf("Expected a fresh machine to hold the initial state, got %+v", m.Current())
	}
}

func TestMachine_UsableBeforeAttach(t *testing.T) {
	m := NewMachine(RecoverLeave)

	// No observer attached yet; transitions must still commit.
	s := m.Join("a")
	if s.Phase != PhasePong || m.Current() != s {
		t.Fatalf("Join without observer should commit, got %+v", m.Current())
	}
}

func TestMachine_AttachExactlyOnce(t *testing.T) {
	m := NewMachine(RecoverLeave)

	var first []State
	if err := m.Attach(func(s State) { first = append(first, s) }); err != nil {
		t.Fatalf("First attach should succeed, got: %v", err)
	}

	if err := m.Attach(func(s State) { t.Error("second observer must never fire") }); err != ErrObserverAttached {
		t.Fatalf("Expected ErrObserverAttached on second attach, got: %v", err)
	}

	m.Join("a")
	if len(first) != 1 || first[0].Phase != PhasePong {
		t.Errorf("First observer should have seen the commit, got %+v", first)
	}
}

func TestMachine_ObserverSeesEveryCommit(t *testing.T) {
	m := NewMachine(RecoverLeave)

	var seen []State
	m.Attach(func(s State) { seen = append(seen, s) })

	m.Join("a")
	m.Leave()
	m.Join("b")

	if len(seen) != 3 {
		t.Fatalf("Expected 3 notifications, got %d", len(seen))
	}
	if seen[0].Phase != PhasePong || seen[1].Phase != PhaseLeft || seen[2].Phase != PhasePing {
		t.Errorf("Unexpected notification order: %+v", seen)
	}
}

func TestMachine_StrictLeaveFailureCommitsNothing(t *testing.T) {
	m := NewMachine(StrictLeave)
	m.Join("a")
	m.Leave() // now Left

	notified := 0
	m.Attach(func(State) { notified++ })

	before := m.Current()
	s, err := m.Leave()
	if err != ErrNoRoomAssigned {
		t.Fatalf("Expected ErrNoRoomAssigned, got: %v", err)
	}
	if s != before || m.Current() != before {
		t.Error("A failed strict leave must leave the state untouched")
	}
	if notified != 0 {
		t.Errorf("A failed leave must not notify, got %d notifications", notified)
	}
}

func TestMachine_LeaveOnErrorIsIdempotent(t *testing.T) {
	m := NewMachine(RecoverLeave)
	m.Leave() // Ping -> Left
	m.Leave() // Left -> Error

	notified := 0
	m.Attach(func(State) { notified++ })

	before := m.Current()
	if before.Phase != PhaseError {
		t.Fatalf("Setup failed: expected Error, got %s", before.Phase)
	}

	after, err := m.Leave()
	if err != nil {
		t.Fatalf("Leave on Error should be absorbed, got: %v", err)
	}
	if after != before {
		t.Error("Leave on Error must not change the state")
	}
	if notified != 0 {
		t.Errorf("An absorbed leave must not notify, got %d notifications", notified)
	}
}

func TestMachine_RecoverPolicyEndToEnd(t *testing.T) {
	m := NewMachine(RecoverLeave)

	m.Join("a") // Pong a
	if got := m.StatusMessage(); got != "In the Pong room a" {
		t.Errorf("StatusMessage() = %q, want %q", got, "In the Pong room a")
	}

	m.Leave() // Left
	m.Leave() // Error
	if got := m.StatusMessage(); got != "An error occurred. Can't leave, no room assigned" {
		t.Errorf("StatusMessage() = %q, want %q", got, "An error occurred. Can't leave, no room assigned")
	}

	s := m.Join("b")
	if s.Phase != PhasePing || s.RoomID != "b" {
		t.Errorf("Expected recovery into Ping room b, got %s room %q", s.Phase, s.RoomID)
	}
}
