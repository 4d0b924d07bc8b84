package router

import (
	"context"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/selector"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/dtroode/piggyvault/internal/api/grpc/health"
	"github.com/dtroode/piggyvault/internal/api/grpc/middleware"
	"github.com/dtroode/piggyvault/internal/logger"
)

// Router builds the operator-facing gRPC server.
type Router struct {
	checker health.Checker
	logger  *logger.Logger
}

func New(checker health.Checker, logger *logger.Logger) *Router {
	return &Router{checker: checker, logger: logger}
}

// reflection streams are noisy and carry nothing worth logging
func logSkip(_ context.Context, c interceptors.CallMeta) bool {
	return !strings.HasPrefix(c.FullMethod(), "/grpc.reflection.")
}

// Register returns a gRPC server with the health and reflection services.
func (r *Router) Register() *grpc.Server {
	logging := middleware.NewLogging(r.logger)
	recoveryOpt := recovery.WithRecoveryHandlerContext(func(ctx context.Context, p any) error {
		r.logger.Error("gRPC handler panicked",
			"panic", p)
		return status.Error(codes.Internal, "internal server error")
	})

	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			selector.UnaryServerInterceptor(logging.HandleGRPC, selector.MatchFunc(logSkip)),
			recovery.UnaryServerInterceptor(recoveryOpt),
		),
		grpc.ChainStreamInterceptor(
			recovery.StreamServerInterceptor(recoveryOpt),
		),
	)

	healthpb.RegisterHealthServer(s, health.NewServer(r.checker, r.logger))
	reflection.Register(s)

	return s
}
