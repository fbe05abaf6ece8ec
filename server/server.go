package server

import (
	"encoding/json"
	"net/http"
	"net/rpc"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wfunc/roomstate/broadcast"
	"github.com/wfunc/roomstate/config"
	"github.com/wfunc/roomstate/logger"
	"github.com/wfunc/roomstate/models"
	"github.com/wfunc/roomstate/monitor"
	"github.com/wfunc/roomstate/network"
	"github.com/wfunc/roomstate/presence"
	presence_rpc "github.com/wfunc/roomstate/rpc"
	"github.com/wfunc/roomstate/roster"
	"github.com/wfunc/roomstate/services"
	"github.com/wfunc/roomstate/session"
	"github.com/wfunc/roomstate/timer"
)

type PresenceServer struct {
	addr            string
	upgrader        websocket.Upgrader
	roster          *roster.Manager
	sessionManager  *session.Manager
	presenceService *services.PresenceService
	broadcaster     broadcast.Broadcaster
	rpcServer       *presence_rpc.Server
	monitor         *monitor.Monitor
	timers          *timer.Manager
	policy          presence.LeavePolicy
	idleTimeout     time.Duration
	defaultRoom     string
	shutdownChan    chan struct{}
}

func NewPresenceServer(cfg *config.Config, svc *services.PresenceService, mon *monitor.Monitor) *PresenceServer {
	policy, err := presence.ParseLeavePolicy(cfg.Presence.LeavePolicy)
	if err != nil {
		logger.Log.Fatalf("Invalid leave policy: %v", err)
	}

	s := &PresenceServer{
		addr:            cfg.Server.HTTPAddress,
		roster:          roster.NewManager(),
		sessionManager:  session.NewManager(),
		presenceService: svc,
		monitor:         mon,
		timers:          timer.NewManager(),
		policy:          policy,
		idleTimeout:     cfg.Presence.IdleTimeout,
		defaultRoom:     cfg.Presence.DefaultRoom,
		shutdownChan:    make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}

	// 初始化广播器
	s.broadcaster = broadcast.NewRoomBroadcaster(s.roster, s.sessionManager)

	// 初始化RPC服务器
	rpcServer, err := presence_rpc.NewServer(cfg.Server.RPCAddress)
	if err != nil {
		logger.Log.Fatalf("Failed to create RPC server: %v", err)
	}
	s.rpcServer = rpcServer

	// 注册RPC服务
	query := presence_rpc.NewPresenceQuery(svc)
	rpc.Register(query)

	return s
}

func (s *PresenceServer) Start() error {
	go s.rpcServer.Start()

	if s.idleTimeout > 0 {
		s.timers.Add(s.idleTimeout, s.idleTimeout, s.sweepIdle)
	}

	http.HandleFunc("/ws", s.handleWebSocket)
	logger.Log.Infof("Presence server listening on %s", s.addr)
	return http.ListenAndServe(s.addr, nil)
}

func (s *PresenceServer) Shutdown() {
	close(s.shutdownChan)
	s.timers.Stop()
	s.rpcServer.Stop()
}

func (s *PresenceServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(conn)
}

func (s *PresenceServer) handleConnection(conn *websocket.Conn) {
	wsConn := network.NewWSConnection(conn)
	sess := session.NewSession(uuid.New().String(), wsConn, s.policy)
	s.sessionManager.Add(sess)
	s.monitor.IncOnlineSessions()

	s.attachObserver(sess)

	logger.Log.Infof("New connection from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())
		s.dropSession(sess)
		wsConn.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			packet, err := wsConn.ReadPacket()
			if err != nil {
				return
			}
			start := time.Now()
			s.handlePacket(sess, packet)
			s.monitor.ObserveIntentLatency(time.Since(start))
		}
	}
}

// attachObserver wires the per-session push path: each committed transition
// is tracked in the roster, persisted, counted, and broadcast to the rooms it
// touches. Commits are serialized by the machine, so prev needs no lock.
func (s *PresenceServer) attachObserver(sess *session.Session) {
	prev := sess.Machine.Current()

	err := sess.Machine.Attach(func(next presence.State) {
		leftRoom, wasTracked := s.roster.RoomOf(sess.GetID())

		if presence.InRoom(next) {
			s.roster.Track(sess.GetID(), next.RoomID)
		} else {
			s.roster.Untrack(sess.GetID())
		}
		s.monitor.IncTransitions()
		s.monitor.SetOccupiedRooms(s.roster.RoomCount())

		if err := s.presenceService.RecordTransition(sess.GetID(), sess.UserID, prev, next); err != nil {
			logger.Log.Errorf("Failed to persist transition for session %s: %v", sess.GetID(), err)
		}

		update := models.StatusUpdate{
			SessionID: sess.GetID(),
			Phase:     next.Phase.String(),
			RoomID:    next.RoomID,
			Status:    presence.StatusMessage(next),
		}
		data, _ := json.Marshal(update)

		if presence.InRoom(next) {
			s.broadcaster.BroadcastToRoom(next.RoomID, network.MsgTypeStateChanged, data)
		} else {
			// The session is out of any room now; tell it directly and let
			// the room it left know.
			sess.Send(network.MsgTypeStateChanged, data)
			if wasTracked && leftRoom != "" {
				s.broadcaster.BroadcastToRoom(leftRoom, network.MsgTypeStateChanged, data)
			}
		}

		prev = next
	})
	if err != nil {
		logger.Log.Errorf("Failed to attach observer for session %s: %v", sess.GetID(), err)
	}
}

func (s *PresenceServer) handlePacket(sess *session.Session, packet *network.Packet) {
	switch packet.MsgID {
	case network.MsgTypeHeartbeat:
		sess.Touch()
	case network.MsgTypeJoinRoom:
		s.handleJoinRoom(sess, packet)
	case network.MsgTypeLeaveRoom:
		s.handleLeaveRoom(sess)
	case network.MsgTypeRoomStatus:
		s.handleRoomStatus(sess)
	default:
		logger.Log.Infof("Unknown message type: %d", packet.MsgID)
	}
}

func (s *PresenceServer) handleJoinRoom(sess *session.Session, packet *network.Packet) {
	var req models.JoinRequest
	if len(packet.Data) > 0 {
		if err := json.Unmarshal(packet.Data, &req); err != nil {
			logger.Log.Warnf("Session %s sent a malformed join request: %v", sess.GetID(), err)
			return
		}
	}

	// A brand-new session joining with no id gets the configured default
	// room; otherwise an empty id keeps whatever the machine already has.
	roomID := req.RoomID
	if roomID == "" && sess.Machine.Current().RoomID == "" {
		roomID = s.defaultRoom
	}

	sess.Touch()
	state := sess.Machine.Join(roomID)
	logger.Log.Infof("Session %s joined room %s (%s)", sess.GetID(), state.RoomID, state.Phase)
}

func (s *PresenceServer) handleLeaveRoom(sess *session.Session) {
	sess.Touch()
	state, err := sess.Machine.Leave()
	if err != nil {
		s.monitor.IncInvalidTransitions()
		logger.Log.Warnf("Session %s leave rejected: %v", sess.GetID(), err)

		reply := models.ErrorReply{Message: err.Error()}
		data, _ := json.Marshal(reply)
		sess.Send(network.MsgTypeError, data)
		return
	}
	logger.Log.Infof("Session %s left, now %s", sess.GetID(), state.Phase)
}

func (s *PresenceServer) handleRoomStatus(sess *session.Session) {
	sess.Touch()
	state := sess.Machine.Current()
	update := models.StatusUpdate{
		SessionID: sess.GetID(),
		Phase:     state.Phase.String(),
		RoomID:    state.RoomID,
		Status:    presence.StatusMessage(state),
	}
	data, _ := json.Marshal(update)
	sess.Send(network.MsgTypeStatusReply, data)
}

// dropSession removes all traces of a disconnected session. If it still
// occupies a room the leave is applied first so the journal records the exit.
func (s *PresenceServer) dropSession(sess *session.Session) {
	if presence.InRoom(sess.Machine.Current()) {
		sess.Machine.Leave()
	}
	s.roster.Untrack(sess.GetID())
	s.sessionManager.Remove(sess.GetID())
	s.monitor.DecOnlineSessions()
	s.monitor.SetOccupiedRooms(s.roster.RoomCount())
}

// sweepIdle auto-leaves sessions that have gone quiet past the timeout and
// closes the ones that are idle while already out of any room.
func (s *PresenceServer) sweepIdle() {
	now := time.Now()
	for _, sess := range s.sessionManager.All() {
		if sess.IdleSince(now) < s.idleTimeout {
			continue
		}
		if presence.InRoom(sess.Machine.Current()) {
			logger.Log.Infof("Session %s idle for %v, leaving room", sess.GetID(), sess.IdleSince(now))
			sess.Machine.Leave()
			continue
		}
		logger.Log.Infof("Session %s idle and out of any room, closing", sess.GetID())
		sess.Close()
	}
}
