package presence

import (
	"errors"
	"fmt"
)

// Phase identifies which room-status variant is active.
type Phase int

const (
	PhasePing Phase = iota
	PhasePong
	PhaseLeft
	PhaseError
)

var phaseName = map[Phase]string{
	PhasePing:  "ping",
	PhasePong:  "pong",
	PhaseLeft:  "left",
	PhaseError: "error",
}

func (p Phase) String() string {
	if name, ok := phaseName[p]; ok {
		return name
	}
	return "unknown"
}

// State is one case of the room-status union. Exactly one variant is active
// at a time; transitions build a whole new value rather than mutating fields,
// so a committed state can be read without locking it against later moves.
//
// RoomID is only meaningful for Ping/Pong, PrevStatus only for Left,
// ErrMessage only for Error. Non-meaningful fields stay zero.
type State struct {
	Phase      Phase
	RoomID     string
	PrevStatus string
	ErrMessage string
}

// Initial returns the state a fresh machine starts in: Ping with no room
// assigned yet.
func Initial() State {
	return State{Phase: PhasePing}
}

// ErrNoRoomAssigned is returned by Leave under StrictLeave when the session
// is not in any room.
var ErrNoRoomAssigned = errors.New("no room assigned")

// LeavePolicy selects how Leave treats a session that has no room to leave.
type LeavePolicy int

const (
	// StrictLeave reports leaving without a room as an error to the caller.
	StrictLeave LeavePolicy = iota
	// RecoverLeave absorbs the bad leave into the Error variant, which a
	// later Join can still exit.
	RecoverLeave
)

// ParseLeavePolicy maps a config string to a LeavePolicy.
func ParseLeavePolicy(s string) (LeavePolicy, error) {
	switch s {
	case "strict":
		return StrictLeave, nil
	case "recover", "":
		return RecoverLeave, nil
	}
	return RecoverLeave, fmt.Errorf("unknown leave policy %q", s)
}

// Join moves the session into a room. Ping and Pong toggle into each other;
// Left and Error both recover into Ping. An empty roomID keeps the previous
// variant's room id (Left and Error carry none, so the result stays unset).
// Join never fails.
func Join(s State, roomID string) State {
	room := roomID
	if room == "" {
		room = s.RoomID
	}

	switch s.Phase {
	case PhasePing:
		return State{Phase: PhasePong, RoomID: room}
	case PhasePong, PhaseLeft, PhaseError:
		return State{Phase: PhasePing, RoomID: room}
	}
	return State{Phase: PhasePing, RoomID: room}
}

// Leave moves the session out of its room. From Ping or Pong it produces a
// Left variant that records the last status. From Left the outcome depends on
// the policy: StrictLeave returns ErrNoRoomAssigned with the state unchanged,
// RecoverLeave produces the Error variant instead. From Error the call is
// absorbed and the state comes back unchanged.
func Leave(s State, policy LeavePolicy) (State, error) {
	switch s.Phase {
	case PhasePing:
		return State{Phase: PhaseLeft, PrevStatus: fmt.Sprintf("Left Ping room %s", s.RoomID)}, nil
	case PhasePong:
		return State{Phase: PhaseLeft, PrevStatus: fmt.Sprintf("Left Pong room %s", s.RoomID)}, nil
	case PhaseLeft:
		if policy == RecoverLeave {
			return State{Phase: PhaseError, ErrMessage: "Can't leave, no room assigned"}, nil
		}
		return s, ErrNoRoomAssigned
	case PhaseError:
		return s, nil
	}
	return s, ErrNoRoomAssigned
}

// StatusMessage renders the human-readable status line for a state.
func StatusMessage(s State) string {
	switch s.Phase {
	case PhasePing:
		return fmt.Sprintf("In the Ping room %s", s.RoomID)
	case PhasePong:
		return fmt.Sprintf("In the Pong room %s", s.RoomID)
	case PhaseLeft:
		return fmt.Sprintf("Not in any room (previously in %s)", s.PrevStatus)
	case PhaseError:
		return fmt.Sprintf("An error occurred. %s", s.ErrMessage)
	}
	return "Unknown"
}

// InRoom reports whether the state occupies a room.
func InRoom(s State) bool {
	return s.Phase == PhasePing || s.Phase == PhasePong
}
