package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dtroode/piggyvault/internal/logger"
	"github.com/dtroode/piggyvault/internal/model"
)

// Probe checks a single dependency.
type Probe func(ctx context.Context) error

// Health runs dependency probes on demand.
type Health struct {
	probes  map[string]Probe
	timeout time.Duration
	logger  *logger.Logger
}

func NewHealth(probes map[string]Probe, timeout time.Duration, logger *logger.Logger) *Health {
	return &Health{probes: probes, timeout: timeout, logger: logger}
}

// Check runs every probe and reports whether all of them passed.
func (h *Health) Check(ctx context.Context) ([]model.ComponentStatus, bool) {
	names := make([]string, 0, len(h.probes))
	for name := range h.probes {
		names = append(names, name)
	}
	sort.Strings(names)

	healthy := true
	statuses := make([]model.ComponentStatus, 0, len(names))
	for _, name := range names {
		status := model.ComponentStatus{Name: name}
		if err := h.probe(ctx, h.probes[name]); err != nil {
			healthy = false
			status.Error = err.Error()
			h.logger.Warn("Health service: probe failed",
				"component", name,
				"error", err.Error())
		}
		statuses = append(statuses, status)
	}
	return statuses, healthy
}

func (h *Health) probe(ctx context.Context, p Probe) error {
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}
	return p(ctx)
}

// BucketProbe adapts a bucket existence check to a Probe.
func BucketProbe(exists func(ctx context.Context) (bool, error)) Probe {
	return func(ctx context.Context) error {
		ok, err := exists(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("bucket does not exist")
		}
		return nil
	}
}
