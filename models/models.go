// models/models.go
package models

import (
	"time"
)

// JoinRequest 客户端加入房间请求
type JoinRequest struct {
	RoomID string `json:"room_id"`
}

// StatusUpdate 推送给客户端的状态更新
type StatusUpdate struct {
	SessionID string `json:"session_id"`
	Phase     string `json:"phase"`
	RoomID    string `json:"room_id,omitempty"`
	Status    string `json:"status"`
}

// ErrorReply 发送给客户端的错误信息
type ErrorReply struct {
	Message string `json:"message"`
}

// PresenceSnapshot 会话当前状态模型
type PresenceSnapshot struct {
	SessionID string    `json:"session_id"`
	UserID    int64     `json:"user_id"`
	Phase     string    `json:"phase"`
	RoomID    string    `json:"room_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TransitionRecord 状态转换记录
type TransitionRecord struct {
	SessionID string    `json:"session_id"`
	UserID    int64     `json:"user_id"`
	FromPhase string    `json:"from_phase"`
	ToPhase   string    `json:"to_phase"`
	RoomID    string    `json:"room_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
