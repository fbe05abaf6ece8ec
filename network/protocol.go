package network

const (
	MsgTypeHeartbeat    = 1
	MsgTypeJoinRoom     = 101
	MsgTypeLeaveRoom    = 102
	MsgTypeRoomStatus   = 103
	MsgTypeStateChanged = 301
	MsgTypeStatusReply  = 302
	MsgTypeError        = 401
)
