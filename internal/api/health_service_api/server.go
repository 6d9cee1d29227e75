package health_service_api

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Pinger is a dependency whose reachability decides the serving status.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server reports the overall service as SERVING only when every dependency answers.
// Each dependency is also exposed under its own service name.
type Server struct {
	health *health.Server
	deps   map[string]Pinger
	logger *zap.Logger
}

func NewServer(deps map[string]Pinger, logger *zap.Logger) *Server {
	return &Server{
		health: health.NewServer(),
		deps:   deps,
		logger: logger,
	}
}

func (s *Server) Register(grpcSrv *grpc.Server) {
	healthpb.RegisterHealthServer(grpcSrv, s.health)
}

// Refresh pings every dependency once and updates the statuses.
func (s *Server) Refresh(ctx context.Context) {
	overall := healthpb.HealthCheckResponse_SERVING
	for name, dep := range s.deps {
		status := healthpb.HealthCheckResponse_SERVING
		if err := dep.Ping(ctx); err != nil {
			s.logger.Warn("dependency unhealthy", zap.String("dependency", name), zap.Error(err))
			status = healthpb.HealthCheckResponse_NOT_SERVING
			overall = healthpb.HealthCheckResponse_NOT_SERVING
		}
		s.health.SetServingStatus(name, status)
	}
	s.health.SetServingStatus("", overall)
}

// Watch refreshes the statuses every interval until ctx is done.
func (s *Server) Watch(ctx context.Context, interval time.Duration) {
	s.Refresh(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.health.Shutdown()
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, interval/2)
			s.Refresh(pingCtx)
			cancel()
		}
	}
}

// Check answers a health check in-process.
func (s *Server) Check(ctx context.Context, service string) (healthpb.HealthCheckResponse_ServingStatus, error) {
	resp, err := s.health.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	return resp.GetStatus(), nil
}
