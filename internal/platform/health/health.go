// Package health serves a readiness document built from dependency checks.
package health

import (
	"context"
	"net/http"
	"sort"
	"time"

	"registrar/pkg/platform/httputil"
)

// CheckFunc reports a dependency failure as a non-nil error.
type CheckFunc func(ctx context.Context) error

// Handler runs every registered check on each request.
type Handler struct {
	checks  map[string]CheckFunc
	timeout time.Duration
}

func New(timeout time.Duration) *Handler {
	return &Handler{checks: make(map[string]CheckFunc), timeout: timeout}
}

// Register adds a named check. Not safe to call after serving starts.
func (h *Handler) Register(name string, check CheckFunc) {
	h.checks[name] = check
}

type report struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := report{Status: "ok", Checks: make(map[string]string, len(names))}
	status := http.StatusOK
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	httputil.WriteJSON(w, status, resp)
}
