package server

import (
	"context"
	"fmt"

	"google.golang.org/grpc"

	"github.com/dtroode/piggyvault/internal/model"
)

var _ model.Server = (*GRPCServer)(nil)

// GRPCServer runs the operator gRPC services.
type GRPCServer struct {
	server *grpc.Server
	addr   string
}

func NewGRPCServer(server *grpc.Server, addr string) *GRPCServer {
	return &GRPCServer{server: server, addr: addr}
}

func (s *GRPCServer) Start(securityLayer model.SecurityLayer) error {
	listener, err := securityLayer.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return s.server.Serve(listener)
}

// Stop waits for running calls to finish, or closes them all once ctx is
// done.
func (s *GRPCServer) Stop(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.server.Stop()
		<-done
		return fmt.Errorf("grpc server stopped forcefully: %w", ctx.Err())
	}
}

func (s *GRPCServer) Address() string {
	return s.addr
}
