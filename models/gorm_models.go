// models/gorm_models.go
package models

import (
	"gorm.io/gorm"
)

// GormPresence 会话状态模型
type GormPresence struct {
	gorm.Model
	SessionID string `gorm:"uniqueIndex;not null"`
	UserID    int64  `gorm:"index"`
	Phase     string `gorm:"not null"`
	RoomID    string `gorm:"index"`
	Status    string `gorm:"not null"`
}

// GormTransition 状态转换记录模型
type GormTransition struct {
	gorm.Model
	SessionID string `gorm:"index;not null"`
	UserID    int64  `gorm:"index"`
	FromPhase string `gorm:"not null"`
	ToPhase   string `gorm:"not null"`
	RoomID    string
	Status    string `gorm:"not null"`
}

// UserStats 用户在线统计信息
type UserStats struct {
	TotalTransitions int `json:"total_transitions"`
	Joins            int `json:"joins"`
	Leaves           int `json:"leaves"`
	Errors           int `json:"errors"`
}
