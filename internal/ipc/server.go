package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"
	"time"

	"log/slog"

	"flowsight/internal/api"
	"flowsight/internal/daemon"
	"flowsight/internal/logging"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName("Flowsight", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed", logging.Error(err))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String("component", "ipc"))
}

func (s *service) Start(_ StartRequest, resp *StartResponse) error {
	s.log().Debug("daemon start requested")
	if err := s.daemon.Start(s.ctx); err != nil {
		resp.Started = false
		resp.Message = err.Error()
		return nil
	}
	resp.Started = true
	resp.Message = "daemon started"
	s.log().Info("daemon started via IPC")
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.log().Debug("daemon stop requested")
	s.daemon.Stop()
	resp.Stopped = true
	s.log().Info("daemon stopped via IPC")
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Running = status.Running
	resp.Monitoring = status.Monitoring
	resp.PID = status.PID
	resp.LockPath = status.LockFilePath
	resp.StateDBPath = status.StateDBPath
	resp.Pipeline = api.FromHealth(status.Health)

	blockers := s.daemon.ListBlockers(false)
	resp.TotalCount = len(blockers)
	for _, blocker := range blockers {
		if !blocker.Resolved {
			resp.ActiveCount++
		}
	}
	return nil
}

func (s *service) Monitor(req MonitorRequest, resp *MonitorResponse) error {
	if req.Enable {
		if !s.daemon.StartMonitoring() {
			resp.Monitoring = s.daemon.Monitoring()
			resp.Message = "monitoring unavailable; daemon stopped or capture disabled"
			return nil
		}
		resp.Monitoring = true
		resp.Message = "monitoring resumed"
		return nil
	}
	s.daemon.StopMonitoring()
	resp.Monitoring = false
	resp.Message = "monitoring paused"
	return nil
}

func (s *service) Detect(req DetectRequest, resp *DetectResponse) error {
	s.log().Debug("manual detection requested",
		logging.String("window_title", req.WindowTitle))
	outcome := s.daemon.Detect(s.ctx, req.WindowTitle, req.ActivityDurationMs)
	converted := api.FromOutcome(outcome)
	resp.Captured = converted.Captured
	resp.Skipped = converted.Skipped
	resp.Score = converted.Score
	resp.Activated = converted.Activated
	resp.Blocker = converted.Blocker
	return nil
}

func (s *service) Blockers(req BlockersRequest, resp *BlockersResponse) error {
	blockers := s.daemon.ListBlockers(req.ActiveOnly)
	resp.Blockers = api.FromBlockers(blockers)
	return nil
}

func (s *service) Describe(req DescribeRequest, resp *DescribeResponse) error {
	if req.ID == "" {
		return errors.New("describe requires a blocker id")
	}
	blocker, ok := s.daemon.GetBlocker(req.ID)
	if !ok {
		return fmt.Errorf("blocker %s not found", req.ID)
	}
	resp.Blocker = api.FromBlocker(blocker)
	return nil
}

func (s *service) Resolve(req ResolveRequest, resp *ResolveResponse) error {
	if req.ID == "" {
		return errors.New("resolve requires a blocker id")
	}
	blocker, ok := s.daemon.ResolveBlocker(req.ID, req.Action)
	if !ok {
		return fmt.Errorf("blocker %s not found", req.ID)
	}
	resp.Blocker = api.FromBlocker(blocker)
	s.log().Info("blocker resolved via IPC", logging.String("id", req.ID))
	return nil
}

func (s *service) Stats(_ StatsRequest, resp *StatsResponse) error {
	stats, events, unsynced, err := s.daemon.Stats(s.ctx)
	if err != nil {
		return err
	}
	converted := api.FromStats(stats, events, unsynced)
	resp.Total = converted.Total
	resp.Resolved = converted.Resolved
	resp.Active = converted.Active
	resp.ByCategory = converted.ByCategory
	resp.BySeverity = converted.BySeverity
	resp.Events = converted.Events
	resp.UnsyncedEvents = converted.UnsyncedEvents
	return nil
}

func (s *service) History(req HistoryRequest, resp *HistoryResponse) error {
	events, err := s.daemon.EventHistory(s.ctx, req.BlockerID, req.Limit)
	if err != nil {
		return err
	}
	resp.Events = make([]HistoryEvent, 0, len(events))
	for _, event := range events {
		resp.Events = append(resp.Events, HistoryEvent{
			ID:        event.ID,
			Type:      event.Type,
			BlockerID: event.BlockerID,
			Category:  event.Category,
			Severity:  event.Severity,
			CreatedAt: event.CreatedAt.UTC().Format(time.RFC3339),
			Synced:    event.Synced,
		})
	}
	return nil
}

func (s *service) DatabaseHealth(_ DatabaseHealthRequest, resp *DatabaseHealthResponse) error {
	health, err := s.daemon.DatabaseHealth(s.ctx)
	resp.DBPath = health.DBPath
	resp.DatabaseExists = health.DatabaseExists
	resp.DatabaseReadable = health.DatabaseReadable
	resp.IntegrityCheck = health.IntegrityCheck
	resp.Error = health.Error
	if err != nil && health.Error == "" {
		return err
	}
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.TestNotification(s.ctx)
	resp.Sent = sent
	resp.Message = message
	return err
}
