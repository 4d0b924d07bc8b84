// Package health serves grpc.health.v1 on top of the dependency probes.
package health

import (
	"context"

	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/dtroode/piggyvault/internal/logger"
	"github.com/dtroode/piggyvault/internal/model"
)

// Checker runs the dependency probes.
type Checker interface {
	Check(ctx context.Context) ([]model.ComponentStatus, bool)
}

// Server answers health checks for the whole server (empty service name)
// and for each probed component by name.
type Server struct {
	healthpb.UnimplementedHealthServer
	checker Checker
	logger  *logger.Logger
}

func NewServer(checker Checker, logger *logger.Logger) *Server {
	return &Server{checker: checker, logger: logger}
}

func (s *Server) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	statuses, healthy := s.checker.Check(ctx)

	if req.GetService() == "" {
		return response(healthy), nil
	}

	for _, st := range statuses {
		if st.Name == req.GetService() {
			return response(st.Error == ""), nil
		}
	}

	s.logger.Debug("Health server: unknown service requested",
		"service", req.GetService())
	return nil, status.Errorf(codes.NotFound, "unknown service %q", req.GetService())
}

// List reports every probed component.
func (s *Server) List(ctx context.Context, _ *healthpb.HealthListRequest) (*healthpb.HealthListResponse, error) {
	statuses, healthy := s.checker.Check(ctx)

	out := &healthpb.HealthListResponse{
		Statuses: make(map[string]*healthpb.HealthCheckResponse, len(statuses)+1),
	}
	out.Statuses[""] = response(healthy)
	for _, st := range statuses {
		out.Statuses[st.Name] = response(st.Error == "")
	}
	return out, nil
}

func response(healthy bool) *healthpb.HealthCheckResponse {
	if healthy {
		return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}
	}
	return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_NOT_SERVING}
}
