// roster/roster.go
package roster

import (
	"sync"
)

// Manager tracks which sessions currently occupy which room label. Rooms here
// are just identifiers carried by presence states; a room exists exactly as
// long as at least one session occupies it.
type Manager struct {
	rooms map[string]map[string]struct{} // roomID -> set of sessionIDs
	mutex sync.RWMutex
}

// NewManager creates an empty roster.
func NewManager() *Manager {
	return &Manager{
		rooms: make(map[string]map[string]struct{}),
	}
}

// Track records that a session occupies a room, replacing any previous room
// the session was tracked in.
func (m *Manager) Track(sessionID, roomID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.untrackLocked(sessionID)

	if roomID == "" {
		return
	}
	members, exists := m.rooms[roomID]
	if !exists {
		members = make(map[string]struct{})
		m.rooms[roomID] = members
	}
	members[sessionID] = struct{}{}
}

// Untrack removes a session from whatever room it occupies.
func (m *Manager) Untrack(sessionID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.untrackLocked(sessionID)
}

func (m *Manager) untrackLocked(sessionID string) {
	for roomID, members := range m.rooms {
		if _, exists := members[sessionID]; exists {
			delete(members, sessionID)
			if len(members) == 0 {
				delete(m.rooms, roomID)
			}
			return
		}
	}
}

// Members returns a snapshot of the session ids occupying a room.
func (m *Manager) Members(roomID string) []string {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	members, exists := m.rooms[roomID]
	if !exists {
		return nil
	}
	result := make([]string, 0, len(members))
	for id := range members {
		result = append(result, id)
	}
	return result
}

// RoomOf returns the room a session occupies, if any.
func (m *Manager) RoomOf(sessionID string) (string, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for roomID, members := range m.rooms {
		if _, exists := members[sessionID]; exists {
			return roomID, true
		}
	}
	return "", false
}

// RoomCount returns the number of occupied rooms.
func (m *Manager) RoomCount() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.rooms)
}
