// broadcast/broadcast.go
package broadcast

import (
	"errors"

	"github.com/wfunc/roomstate/roster"
	"github.com/wfunc/roomstate/session"
)

var (
	ErrRoomNotFound = errors.New("room not found")
)

// 广播接口
type Broadcaster interface {
	BroadcastToRoom(roomID string, msgID uint16, data []byte) error
	BroadcastToAll(msgID uint16, data []byte) error
	BroadcastToUsers(userIDs []int64, msgID uint16, data []byte) error
}

// RoomBroadcaster 基于房间名单的广播器
type RoomBroadcaster struct {
	roster         *roster.Manager
	sessionManager *session.Manager
}

func NewRoomBroadcaster(roster *roster.Manager, sessionManager *session.Manager) *RoomBroadcaster {
	return &RoomBroadcaster{
		roster:         roster,
		sessionManager: sessionManager,
	}
}

func (b *RoomBroadcaster) BroadcastToRoom(roomID string, msgID uint16, data []byte) error {
	members := b.roster.Members(roomID)
	if members == nil {
		return ErrRoomNotFound
	}

	for _, sessionID := range members {
		s, exists := b.sessionManager.Get(sessionID)
		if !exists {
			continue
		}
		if err := s.Send(msgID, data); err != nil {
			// 处理发送错误，会话会由空闲清理回收
			continue
		}
	}

	return nil
}

func (b *RoomBroadcaster) BroadcastToAll(msgID uint16, data []byte) error {
	for _, s := range b.sessionManager.All() {
		if err := s.Send(msgID, data); err != nil {
			continue
		}
	}
	return nil
}

func (b *RoomBroadcaster) BroadcastToUsers(userIDs []int64, msgID uint16, data []byte) error {
	for _, userID := range userIDs {
		sessions := b.sessionManager.GetByUserID(userID)
		for _, s := range sessions {
			if err := s.Send(msgID, data); err != nil {
				// 处理发送错误
				continue
			}
		}
	}
	return nil
}
