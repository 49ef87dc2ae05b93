package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"registrar/internal/platform/metrics"
	"registrar/internal/voter/models"
	"registrar/internal/voter/store"
	id "registrar/pkg/domain"
	dErrors "registrar/pkg/domain-errors"
	"registrar/pkg/requestcontext"
)

// VoterStore persists voter records. Missing records are reported with
// store.ErrNotFound and email collisions with store.ErrConflict.
type VoterStore interface {
	FindAll(ctx context.Context) ([]*models.Voter, error)
	FindByID(ctx context.Context, voterID id.VoterID) (*models.Voter, error)
	FindByEmail(ctx context.Context, email string) (*models.Voter, error)
	Save(ctx context.Context, voter *models.Voter) (*models.Voter, error)
	Delete(ctx context.Context, voterID id.VoterID) error
}

type PasswordHasher interface {
	Hash(plaintext string) (string, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event models.VoterEvent) error
}

// Service runs the voter registration workflow.
type Service struct {
	voters    VoterStore
	hasher    PasswordHasher
	logger    *slog.Logger
	metrics   *metrics.Metrics
	publisher EventPublisher
	tracer    trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithEventPublisher(publisher EventPublisher) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// New constructs a Service.
func New(voters VoterStore, hasher PasswordHasher, opts ...Option) (*Service, error) {
	if voters == nil {
		return nil, fmt.Errorf("voter store is required")
	}
	if hasher == nil {
		return nil, fmt.Errorf("password hasher is required")
	}

	s := &Service{
		voters: voters,
		hasher: hasher,
		tracer: otel.Tracer("registrar/voter"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// List returns every voter ordered by id.
func (s *Service) List(ctx context.Context) (_ []models.VoterOutput, err error) {
	ctx, end := s.start(ctx, "list")
	defer func() { end(err) }()

	voters, err := s.voters.FindAll(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list voters")
	}
	return models.ToOutputs(voters), nil
}

// Create registers a new voter.
func (s *Service) Create(ctx context.Context, in models.VoterInput) (_ *models.VoterOutput, err error) {
	ctx, end := s.start(ctx, "create")
	defer func() { end(err) }()

	if err := s.validateInput(ctx, in, false); err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password, in.PasswordConfirm); err != nil {
		return nil, err
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	voter := models.FromInput(in)
	voter.PasswordHash = digest
	saved, err := s.save(ctx, voter)
	if err != nil {
		return nil, err
	}

	s.logAudit(ctx, string(models.EventVoterCreated), "voter_id", saved.ID)
	s.publish(ctx, models.EventVoterCreated, saved)
	if s.metrics != nil {
		s.metrics.IncrementVotersCreated()
	}

	out := models.ToOutput(saved)
	return &out, nil
}

// GetByID returns a single voter.
func (s *Service) GetByID(ctx context.Context, voterID id.VoterID) (_ *models.VoterOutput, err error) {
	ctx, end := s.start(ctx, "get_by_id")
	defer func() { end(err) }()

	voter, err := s.load(ctx, voterID)
	if err != nil {
		return nil, err
	}
	out := models.ToOutput(voter)
	return &out, nil
}

// GetByEmail returns the full record for email, or nil when nobody has
// registered it. Only an empty email is an error.
func (s *Service) GetByEmail(ctx context.Context, email string) (_ *models.Voter, err error) {
	ctx, end := s.start(ctx, "get_by_email")
	defer func() { end(err) }()

	if email == "" {
		return nil, dErrors.New(dErrors.CodeValidation, MsgEmailNotFound)
	}
	return s.findByEmail(ctx, email)
}

// Update overwrites email and name, and the password when one is supplied.
func (s *Service) Update(ctx context.Context, voterID id.VoterID, in models.VoterInput) (_ *models.VoterOutput, err error) {
	ctx, end := s.start(ctx, "update")
	defer func() { end(err) }()

	if voterID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, MsgInvalidID)
	}
	if err := s.validateInput(ctx, in, true); err != nil {
		return nil, err
	}

	voter, err := s.load(ctx, voterID)
	if err != nil {
		return nil, err
	}

	voter.Email = in.Email
	voter.Name = in.Name
	if !isBlank(in.Password) {
		digest, err := s.hasher.Hash(in.Password)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
		}
		voter.PasswordHash = digest
	}

	saved, err := s.save(ctx, voter)
	if err != nil {
		return nil, err
	}

	s.logAudit(ctx, string(models.EventVoterUpdated), "voter_id", saved.ID)
	s.publish(ctx, models.EventVoterUpdated, saved)
	if s.metrics != nil {
		s.metrics.IncrementVotersUpdated()
	}

	out := models.ToOutput(saved)
	return &out, nil
}

// Delete removes a voter.
func (s *Service) Delete(ctx context.Context, voterID id.VoterID) (_ *models.GenericOutput, err error) {
	ctx, end := s.start(ctx, "delete")
	defer func() { end(err) }()

	voter, err := s.load(ctx, voterID)
	if err != nil {
		return nil, err
	}

	if err := s.voters.Delete(ctx, voterID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeValidation, MsgVoterNotFound)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete voter")
	}

	s.logAudit(ctx, string(models.EventVoterDeleted), "voter_id", voterID)
	s.publish(ctx, models.EventVoterDeleted, voter)
	if s.metrics != nil {
		s.metrics.IncrementVotersDeleted()
	}

	return &models.GenericOutput{Message: MsgVoterDeleted}, nil
}

// load resolves voterID, mapping absence to the workflow messages.
func (s *Service) load(ctx context.Context, voterID id.VoterID) (*models.Voter, error) {
	if voterID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, MsgInvalidID)
	}
	voter, err := s.voters.FindByID(ctx, voterID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeValidation, MsgVoterNotFound)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load voter")
	}
	return voter, nil
}

func (s *Service) findByEmail(ctx context.Context, email string) (*models.Voter, error) {
	voter, err := s.voters.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up email")
	}
	return voter, nil
}

func (s *Service) save(ctx context.Context, voter *models.Voter) (*models.Voter, error) {
	saved, err := s.voters.Save(ctx, voter)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrConflict):
			return nil, dErrors.New(dErrors.CodeValidation, MsgEmailRegistered)
		case errors.Is(err, store.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeValidation, MsgVoterNotFound)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save voter")
	}
	return saved, nil
}

// start opens a span and returns a func that closes it and records the
// operation duration.
func (s *Service) start(ctx context.Context, operation string) (context.Context, func(error)) {
	began := time.Now()
	ctx, span := s.tracer.Start(ctx, "voter."+operation,
		trace.WithAttributes(attribute.String("voter.operation", operation)))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		if s.metrics != nil {
			s.metrics.ObserveOperation(operation, began)
		}
	}
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if s.logger == nil {
		return
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	s.logger.InfoContext(ctx, event, args...)
}

// publish is best effort: a broker failure never fails the request.
func (s *Service) publish(ctx context.Context, eventType models.EventType, voter *models.Voter) {
	if s.publisher == nil {
		return
	}
	event := models.VoterEvent{
		Type:       eventType,
		VoterID:    voter.ID,
		Email:      voter.Email,
		RequestID:  requestcontext.RequestID(ctx),
		OccurredAt: requestcontext.Now(ctx),
	}
	if err := s.publisher.Publish(ctx, event); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to publish voter event",
			"event", string(eventType),
			"voter_id", voter.ID,
			"error", err,
		)
	}
}

func isBlank(v string) bool {
	return strings.TrimSpace(v) == ""
}
