// services/presence_service.go
package services

import (
	"fmt"

	"github.com/wfunc/roomstate/models"
	"github.com/wfunc/roomstate/persistence"
	"github.com/wfunc/roomstate/presence"
)

type PresenceService struct {
	store persistence.Store
}

func NewPresenceService(store persistence.Store) *PresenceService {
	return &PresenceService{store: store}
}

// RecordTransition 持久化一次状态转换
func (s *PresenceService) RecordTransition(sessionID string, userID int64, from, to presence.State) error {
	status := presence.StatusMessage(to)

	snapshot := models.PresenceSnapshot{
		SessionID: sessionID,
		UserID:    userID,
		Phase:     to.Phase.String(),
		RoomID:    to.RoomID,
		Status:    status,
	}
	record := models.TransitionRecord{
		SessionID: sessionID,
		UserID:    userID,
		FromPhase: from.Phase.String(),
		ToPhase:   to.Phase.String(),
		RoomID:    to.RoomID,
		Status:    status,
	}

	if err := s.store.RecordTransition(snapshot, record); err != nil {
		return fmt.Errorf("record transition for session %s: %w", sessionID, err)
	}
	return nil
}

// SessionStatus 返回会话最后持久化的状态行
func (s *PresenceService) SessionStatus(sessionID string) (string, error) {
	snapshot, err := s.store.LoadPresence(sessionID)
	if err != nil {
		return "", err
	}
	return snapshot.Status, nil
}

// SessionHistory 返回会话的转换历史
func (s *PresenceService) SessionHistory(sessionID string, limit int) ([]models.TransitionRecord, error) {
	return s.store.SessionTransitions(sessionID, limit)
}

// UserStats 返回用户的转换统计
func (s *PresenceService) UserStats(userID int64) (*models.UserStats, error) {
	return s.store.GetUserStats(userID)
}
