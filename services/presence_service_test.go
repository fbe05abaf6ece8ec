package services

import (
	"testing"

	"github.com/wfunc/roomstate/models"
	"github.com/wfunc/roomstate/persistence"
	"github.com/wfunc/roomstate/presence"
)

// MockStore is a test double for the persistence.Store interface.
type MockStore struct {
	snapshots []models.PresenceSnapshot
	records   []models.TransitionRecord
	presences map[string]models.PresenceSnapshot
}

func NewMockStore() *MockStore {
	return &MockStore{presences: make(map[string]models.PresenceSnapshot)}
}

func (m *MockStore) RecordTransition(snapshot models.PresenceSnapshot, record models.TransitionRecord) error {
	m.snapshots = append(m.snapshots, snapshot)
	m.records = append(m.records, record)
	m.presences[snapshot.SessionID] = snapshot
	return nil
}

func (m *MockStore) LoadPresence(sessionID string) (*models.PresenceSnapshot, error) {
	snapshot, exists := m.presences[sessionID]
	if !exists {
		return nil, persistence.ErrRecordNotFound
	}
	return &snapshot, nil
}

func (m *MockStore) SessionTransitions(sessionID string, limit int) ([]models.TransitionRecord, error) {
	var result []models.TransitionRecord
	for _, record := range m.records {
		if record.SessionID == sessionID {
			result = append(result, record)
		}
	}
	return result, nil
}

func (m *MockStore) GetUserStats(userID int64) (*models.UserStats, error) {
	stats := &models.UserStats{}
	for _, record := range m.records {
		if record.UserID != userID {
			continue
		}
		stats.TotalTransitions++
		switch record.ToPhase {
		case "ping", "pong":
			stats.Joins++
		case "left":
			stats.Leaves++
		case "error":
			stats.Errors++
		}
	}
	return stats, nil
}

func (m *MockStore) Close() error { return nil }

func TestRecordTransition_BuildsSnapshotAndRecord(t *testing.T) {
	store := NewMockStore()
	svc := NewPresenceService(store)

	from := presence.Initial()
	to := presence.Join(from, "a")

	if err := svc.RecordTransition("sess1", 42, from, to); err != nil {
		t.Fatalf("RecordTransition failed: %v", err)
	}

	if len(store.records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(store.records))
	}

	record := store.records[0]
	if record.FromPhase != "ping" || record.ToPhase != "pong" {
		t.Errorf("Expected ping->pong, got %s->%s", record.FromPhase, record.ToPhase)
	}
	if record.RoomID != "a" {
		t.Errorf("Expected room a, got %q", record.RoomID)
	}
	if record.Status != "In the Pong room a" {
		t.Errorf("Status = %q, want %q", record.Status, "In the Pong room a")
	}

	snapshot := store.snapshots[0]
	if snapshot.SessionID != "sess1" || snapshot.UserID != 42 {
		t.Errorf("Unexpected snapshot identity: %+v", snapshot)
	}
	if snapshot.Phase != "pong" || snapshot.Status != "In the Pong room a" {
		t.Errorf("Unexpected snapshot state: %+v", snapshot)
	}
}

func TestSessionStatus(t *testing.T) {
	store := NewMockStore()
	svc := NewPresenceService(store)

	from := presence.Initial()
	to := presence.Join(from, "a")
	svc.RecordTransition("sess1", 0, from, to)

	status, err := svc.SessionStatus("sess1")
	if err != nil {
		t.Fatalf("SessionStatus failed: %v", err)
	}
	if status != "In the Pong room a" {
		t.Errorf("SessionStatus = %q, want %q", status, "In the Pong room a")
	}

	if _, err := svc.SessionStatus("ghost"); err != persistence.ErrRecordNotFound {
		t.Errorf("Expected ErrRecordNotFound for unknown session, got: %v", err)
	}
}

func TestUserStats_CountsByPhase(t *testing.T) {
	store := NewMockStore()
	svc := NewPresenceService(store)

	s := presence.Initial()
	next := presence.Join(s, "a")
	svc.RecordTransition("sess1", 7, s, next)

	s = next
	next, _ = presence.Leave(s, presence.RecoverLeave)
	svc.RecordTransition("sess1", 7, s, next)

	s = next
	next, _ = presence.Leave(s, presence.RecoverLeave) // Left -> Error
	svc.RecordTransition("sess1", 7, s, next)

	stats, err := svc.UserStats(7)
	if err != nil {
		t.Fatalf("UserStats failed: %v", err)
	}
	if stats.TotalTransitions != 3 || stats.Joins != 1 || stats.Leaves != 1 || stats.Errors != 1 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}
