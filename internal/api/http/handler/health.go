package handler

import (
	"context"
	"net/http"

	"github.com/dtroode/piggyvault/internal/model"
)

// HealthChecker runs the dependency probes.
type HealthChecker interface {
	Check(ctx context.Context) ([]model.ComponentStatus, bool)
}

type Health struct {
	checker   HealthChecker
	responder *Responder
}

func NewHealth(checker HealthChecker, responder *Responder) *Health {
	return &Health{checker: checker, responder: responder}
}

type componentHealth struct {
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

// Check answers 200 when every probe passes and 503 otherwise.
func (h *Health) Check(w http.ResponseWriter, r *http.Request) {
	statuses, healthy := h.checker.Check(r.Context())

	components := make(map[string]componentHealth, len(statuses))
	for _, s := range statuses {
		components[s.Name] = componentHealth{Healthy: s.Error == "", Error: s.Error}
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	h.responder.write(w, envelope{
		Status:  status,
		Content: map[string]any{"healthy": healthy, "components": components},
	})
}
