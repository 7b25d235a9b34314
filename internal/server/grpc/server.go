package grpc

import (
	"context"
	"fmt"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/emmett/livecap/internal/logging"
	"github.com/emmett/livecap/internal/session"
)

// SessionService is the health service name that tracks the captioning session
const SessionService = "livecap.Session"

// Server exposes gRPC health checks. The overall service is SERVING while
// the process runs; SessionService is SERVING only while a session is active.
type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	session    *session.Flag
	port       int
	interval   time.Duration
}

// Config holds server configuration
type Config struct {
	Port int

	// PollInterval is how often the session flag is mirrored into health status
	PollInterval time.Duration
}

// NewServer creates a new gRPC server
func NewServer(cfg Config, flag *session.Flag) *Server {
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}

	s := &Server{
		grpcServer: grpc.NewServer(),
		health:     health.NewServer(),
		session:    flag,
		port:       cfg.Port,
		interval:   interval,
	}

	healthpb.RegisterHealthServer(s.grpcServer, s.health)
	reflection.Register(s.grpcServer)

	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.syncSession()

	return s
}

// Run listens on the configured port and serves until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", s.port, err)
	}
	return s.Serve(ctx, lis)
}

// Serve serves on lis until ctx is cancelled
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	logging.Infow("gRPC health server listening", "addr", lis.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.grpcServer.Serve(lis)
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.health.Shutdown()
			s.grpcServer.GracefulStop()
			return nil
		case err := <-errCh:
			return err
		case <-ticker.C:
			s.syncSession()
		}
	}
}

func (s *Server) syncSession() {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if s.session.Active() {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(SessionService, status)
}
