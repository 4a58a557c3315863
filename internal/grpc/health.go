package grpc

import (
	"context"
	"net"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Check probes one backend; a nil error means it is reachable.
type Check func(ctx context.Context) error

// HealthServer publishes backend probes over the standard gRPC health
// service. The empty service name reports the overall status.
type HealthServer struct {
	srv    *grpc.Server
	health *health.Server
	checks map[string]Check
	logger *zap.Logger

	mu     sync.RWMutex
	status map[string]string
}

func NewHealthServer(checks map[string]Check, logger *zap.Logger) *HealthServer {
	srv := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	h := health.NewServer()
	healthpb.RegisterHealthServer(srv, h)

	// Enable reflection for grpcurl/grpcui
	reflection.Register(srv)

	return &HealthServer{
		srv:    srv,
		health: h,
		checks: checks,
		logger: logger,
		status: make(map[string]string),
	}
}

// Probe runs every check once and publishes the results.
func (s *HealthServer) Probe(ctx context.Context) bool {
	healthy := true
	results := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		status := healthpb.HealthCheckResponse_SERVING
		if err := check(ctx); err != nil {
			s.logger.Warn("health check failed", zap.String("check", name), zap.Error(err))
			status = healthpb.HealthCheckResponse_NOT_SERVING
			healthy = false
		}
		s.health.SetServingStatus(name, status)
		results[name] = status.String()
	}

	overall := healthpb.HealthCheckResponse_SERVING
	if !healthy {
		overall = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", overall)

	s.mu.Lock()
	s.status = results
	s.mu.Unlock()
	return healthy
}

// Status returns the latest per-check result.
func (s *HealthServer) Status() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.status))
	for k, v := range s.status {
		out[k] = v
	}
	return out
}

func (s *HealthServer) Healthy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.status {
		if v != healthpb.HealthCheckResponse_SERVING.String() {
			return false
		}
	}
	return true
}

// Names lists the registered checks in order.
func (s *HealthServer) Names() []string {
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run probes every interval until ctx is done.
func (s *HealthServer) Run(ctx context.Context, interval, timeout time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		probeCtx, cancel := context.WithTimeout(ctx, timeout)
		s.Probe(probeCtx)
		cancel()

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

func (s *HealthServer) Serve(lis net.Listener) error {
	return s.srv.Serve(lis)
}

// GracefulStop reports NOT_SERVING to in-flight watchers, then stops.
func (s *HealthServer) GracefulStop() {
	s.health.Shutdown()
	s.srv.GracefulStop()
}
