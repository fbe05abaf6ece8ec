// persistence/interface.go
package persistence

import (
	"fmt"

	"github.com/wfunc/roomstate/models"
)

// Store 数据库接口
type Store interface {
	// RecordTransition atomically upserts the session's presence snapshot
	// and appends the transition to the journal.
	RecordTransition(snapshot models.PresenceSnapshot, record models.TransitionRecord) error
	LoadPresence(sessionID string) (*models.PresenceSnapshot, error)
	SessionTransitions(sessionID string, limit int) ([]models.TransitionRecord, error)
	GetUserStats(userID int64) (*models.UserStats, error)
	Close() error
}

// 错误定义
var (
	ErrRecordNotFound = fmt.Errorf("record not found")
)
