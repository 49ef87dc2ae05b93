package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"registrar/internal/platform/metrics"
	"registrar/internal/platform/middleware"
	"registrar/internal/voter/models"
	id "registrar/pkg/domain"
	dErrors "registrar/pkg/domain-errors"
	"registrar/pkg/platform/httputil"
)

// Service defines the voter operations exposed over HTTP.
type Service interface {
	List(ctx context.Context) ([]models.VoterOutput, error)
	Create(ctx context.Context, in models.VoterInput) (*models.VoterOutput, error)
	GetByID(ctx context.Context, voterID id.VoterID) (*models.VoterOutput, error)
	Update(ctx context.Context, voterID id.VoterID, in models.VoterInput) (*models.VoterOutput, error)
	Delete(ctx context.Context, voterID id.VoterID) (*models.GenericOutput, error)
}

// Handler serves the voter registration endpoints.
type Handler struct {
	voters  Service
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New creates a voter Handler. metrics may be nil.
func New(voters Service, logger *slog.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{
		voters:  voters,
		logger:  logger,
		metrics: metrics,
	}
}

// Register mounts the voter routes under /v1/voter.
func (h *Handler) Register(r chi.Router) {
	voterRouter := chi.NewRouter()
	voterRouter.Use(middleware.RequestID)
	voterRouter.Use(middleware.Recovery(h.logger))
	voterRouter.Use(middleware.Logger(h.logger))
	voterRouter.Use(middleware.Timeout(30 * time.Second))
	voterRouter.Use(middleware.ContentTypeJSON)
	voterRouter.Use(middleware.LatencyMiddleware(h.metrics))
	voterRouter.Get("/", h.handleList)
	voterRouter.Post("/", h.handleCreate)
	voterRouter.Get("/{voterId}", h.handleGet)
	voterRouter.Put("/{voterId}", h.handleUpdate)
	voterRouter.Delete("/{voterId}", h.handleDelete)

	r.Mount("/v1/voter", voterRouter)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	voters, err := h.voters.List(r.Context())
	if err != nil {
		h.fail(w, r, "failed to list voters", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, voters)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decode(w, r)
	if !ok {
		return
	}
	out, err := h.voters.Create(r.Context(), in)
	if err != nil {
		h.fail(w, r, "failed to create voter", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, out)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	out, err := h.voters.GetByID(r.Context(), voterIDParam(r))
	if err != nil {
		h.fail(w, r, "failed to get voter", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decode(w, r)
	if !ok {
		return
	}
	out, err := h.voters.Update(r.Context(), voterIDParam(r), in)
	if err != nil {
		h.fail(w, r, "failed to update voter", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	out, err := h.voters.Delete(r.Context(), voterIDParam(r))
	if err != nil {
		h.fail(w, r, "failed to delete voter", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (models.VoterInput, bool) {
	var in models.VoterInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.logger.WarnContext(r.Context(), "invalid voter request body",
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return in, false
	}
	return in, true
}

// fail logs at a level matching the error class and writes the envelope.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg,
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
	} else {
		h.logger.DebugContext(ctx, msg,
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}

// voterIDParam returns the path id, or the zero id when it does not parse
// so the service reports the missing id itself.
func voterIDParam(r *http.Request) id.VoterID {
	voterID, err := id.ParseVoterID(chi.URLParam(r, "voterId"))
	if err != nil {
		return 0
	}
	return voterID
}
