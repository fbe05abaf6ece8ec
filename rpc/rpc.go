package rpc

import (
	"net"
	"net/rpc"

	"github.com/wfunc/roomstate/logger"
	"github.com/wfunc/roomstate/models"
	"github.com/wfunc/roomstate/services"
)

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	address  string
}

// NewServer creates a new RPC server. Services are registered by the caller
// through the net/rpc package before Start.
func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  addr,
	}, nil
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			// Check if the error is due to the listener being closed.
			if _, ok := err.(*net.OpError); ok {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// PresenceQuery exposes presence lookups over net/rpc. Methods follow the
// net/rpc signature: exported method, exported arguments, second argument a
// pointer, return type error.
type PresenceQuery struct {
	presenceService *services.PresenceService
}

// NewPresenceQuery creates a new PresenceQuery service.
func NewPresenceQuery(ps *services.PresenceService) *PresenceQuery {
	return &PresenceQuery{presenceService: ps}
}

type SessionStatusArgs struct {
	SessionID string
}

type SessionStatusReply struct {
	Status string
}

func (q *PresenceQuery) SessionStatus(args *SessionStatusArgs, reply *SessionStatusReply) error {
	status, err := q.presenceService.SessionStatus(args.SessionID)
	if err != nil {
		return err
	}
	reply.Status = status
	return nil
}

type UserStatsArgs struct {
	UserID int64
}

type UserStatsReply struct {
	Stats *models.UserStats
}

func (q *PresenceQuery) UserStats(args *UserStatsArgs, reply *UserStatsReply) error {
	stats, err := q.presenceService.UserStats(args.UserID)
	if err != nil {
		return err
	}
	reply.Stats = stats
	return nil
}
