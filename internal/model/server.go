package model

import (
	"context"
	"net"
)

type SecurityLayer interface {
	Listen(protocol, addr string) (net.Listener, error)
}

type Server interface {
	Start(securityLayer SecurityLayer) error
	Stop(ctx context.Context) error
	Address() string
}

// ComponentStatus is the outcome of one health probe. Error is empty when
// the component is healthy.
type ComponentStatus struct {
	Name  string
	Error string
}
