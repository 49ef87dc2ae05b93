// Package voter assembles the voter registration workflow and its HTTP
// adapter.
package voter

import (
	"log/slog"

	"registrar/internal/platform/metrics"
	"registrar/internal/voter/handler"
	"registrar/internal/voter/service"
)

// Service exposes the registration workflow.
type Service = service.Service

// Handler wires HTTP endpoints to the voter service.
type Handler = handler.Handler

// NewService constructs the voter service with required dependencies.
func NewService(voters service.VoterStore, hasher service.PasswordHasher, opts ...service.Option) (*Service, error) {
	return service.New(voters, hasher, opts...)
}

// NewHandler constructs the HTTP handler for /v1/voter routes.
func NewHandler(s *Service, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return handler.New(s, logger, m)
}
