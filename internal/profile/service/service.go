// Package service implements the authorized profile read and
// update-and-synchronization pipeline.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"donorhub/internal/audit"
	"donorhub/internal/platform/metrics"
	"donorhub/internal/profile/models"
	"donorhub/internal/profile/store"
	id "donorhub/pkg/domain"
	dErrors "donorhub/pkg/domain-errors"
	"donorhub/pkg/requestcontext"
)

// BillingClient is the consumed surface of the billing provider.
type BillingClient interface {
	UpdateAddress(ctx context.Context, accountID string, address models.Address) error
}

// CRMClient is the consumed surface of the CRM.
type CRMClient interface {
	UpdateAddress(ctx context.Context, accountID string, address models.Address) error
}

// Service orchestrates profile reads and the update pipeline:
// authorize → load → detect/sync → persist.
type Service struct {
	store   store.Store
	billing BillingClient
	crm     CRMClient
	logger  *slog.Logger
	metrics *metrics.Metrics
	audit   *audit.Publisher
	tracer  trace.Tracer
}

// New builds the profile service. auditPub may be nil, which disables the
// audit trail.
func New(st store.Store, billing BillingClient, crm CRMClient, logger *slog.Logger, m *metrics.Metrics, auditPub *audit.Publisher) *Service {
	return &Service{
		store:   st,
		billing: billing,
		crm:     crm,
		logger:  logger,
		metrics: m,
		audit:   auditPub,
		tracer:  otel.Tracer("donorhub/profile"),
	}
}

// GetProfile returns the target profile after the ownership check.
func (s *Service) GetProfile(ctx context.Context, identity *Identity, target id.UserID) (*models.Profile, error) {
	if err := AuthorizeSelfAccess(identity, target); err != nil {
		return nil, err
	}
	profile, err := s.store.FindByID(ctx, target)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "profile not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load profile")
	}
	return profile, nil
}

// UpdateProfile runs the full update pipeline for one request. External
// synchronization happens before the local write: a sync failure blocks
// persistence entirely, so the local record is never ahead of a refused
// external update. Two concurrent updates to the same profile are not
// serialized; the last persisted write wins.
func (s *Service) UpdateProfile(ctx context.Context, identity *Identity, target id.UserID, req models.UpdateProfileRequest) (*models.Profile, error) {
	// Authorizing.
	if err := AuthorizeSelfAccess(identity, target); err != nil {
		if dErrors.HasCode(err, dErrors.CodeForbidden) {
			s.metrics.IncProfileUpdate("denied")
		} else {
			s.metrics.IncProfileUpdate("malformed_identity")
			s.logger.ErrorContext(ctx, "malformed identity in verified token",
				"request_id", requestcontext.RequestID(ctx),
			)
		}
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "profile.update")
	defer span.End()

	// Loading.
	current, err := s.store.FindByID(ctx, target)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.metrics.IncProfileUpdate("not_found")
			return nil, dErrors.New(dErrors.CodeNotFound, "profile not found")
		}
		s.metrics.IncProfileUpdate("load_failed")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load profile")
	}

	// Detecting / syncing.
	changed := addressChanged(current.Address, req.Address)
	if changed {
		if err := s.syncExternal(ctx, current, req.Address); err != nil {
			s.metrics.IncProfileUpdate("sync_failed")
			s.logger.ErrorContext(ctx, "external address sync failed",
				"user_id", target.String(),
				"error", err.Error(),
				"request_id", requestcontext.RequestID(ctx),
			)
			return nil, err
		}
	}

	// Persisting.
	updated := current.Clone()
	req.ApplyTo(updated)
	updated.UpdatedAt = requestcontext.Now(ctx)
	if err := s.store.Update(ctx, updated); err != nil {
		s.metrics.IncProfileUpdate("persist_failed")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist profile")
	}

	s.metrics.IncProfileUpdate("ok")
	s.emitAudit(ctx, audit.Event{
		UserID: target.String(),
		Action: audit.ActionProfileUpdated,
		Actor:  identity.Subject,
		Detail: map[string]string{"addressChanged": strconv.FormatBool(changed)},
	})
	return updated, nil
}

// emitAudit records the event best-effort: the trail observes updates, it
// never fails them.
func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "audit emit failed",
			"error", err.Error(),
			"action", event.Action,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}
