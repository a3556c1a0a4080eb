// Package handler exposes the profile endpoints. It is a thin chi layer that
// delegates to the profile service; transport concerns stay here, business
// rules stay there.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"donorhub/internal/platform/metrics"
	"donorhub/internal/platform/middleware"
	"donorhub/internal/profile/models"
	"donorhub/internal/profile/service"
	"donorhub/internal/transport/shared"
	id "donorhub/pkg/domain"
	dErrors "donorhub/pkg/domain-errors"
	"donorhub/pkg/requestcontext"
)

// Service defines the profile operations the handler needs.
type Service interface {
	GetProfile(ctx context.Context, identity *service.Identity, target id.UserID) (*models.Profile, error)
	UpdateProfile(ctx context.Context, identity *service.Identity, target id.UserID, req models.UpdateProfileRequest) (*models.Profile, error)
}

//go:generate mockgen -source=handler.go -destination=mocks/profile-mocks.go -package=mocks Service

// Handler handles profile endpoints.
type Handler struct {
	logger       *slog.Logger
	profiles     Service
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

func New(profiles Service, logger *slog.Logger, m *metrics.Metrics, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		profiles:     profiles,
		metrics:      m,
		jwtValidator: jwtValidator,
	}
}

// Register mounts the profile routes with their middleware chain.
func (h *Handler) Register(r chi.Router) {
	profileRouter := chi.NewRouter()
	profileRouter.Use(middleware.Recovery(h.logger))
	profileRouter.Use(middleware.RequestID)
	profileRouter.Use(middleware.ClientMetadata)
	profileRouter.Use(middleware.Logger(h.logger))
	profileRouter.Use(middleware.Timeout(30 * time.Second))
	profileRouter.Use(middleware.ContentTypeJSON)
	profileRouter.Use(middleware.Latency(h.metrics))
	profileRouter.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
	profileRouter.Get("/users/{id}", h.handleGetProfile)
	profileRouter.Put("/users/{id}", h.handleUpdateProfile)

	r.Mount("/", profileRouter)
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	target, err := id.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	profile, err := h.profiles.GetProfile(ctx, identityFrom(ctx), target)
	if err != nil {
		h.logFault(ctx, "get profile failed", err)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, profile)
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	target, err := id.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req models.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid update profile request",
			"error", err.Error(),
			"request_id", requestcontext.RequestID(ctx),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	profile, err := h.profiles.UpdateProfile(ctx, identityFrom(ctx), target, req)
	if err != nil {
		h.logFault(ctx, "update profile failed", err)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, profile)
}

// identityFrom builds the request identity from the verified token subject.
// A missing subject yields a nil identity, which the guard denies.
func identityFrom(ctx context.Context) *service.Identity {
	subject := requestcontext.Subject(ctx)
	if subject == "" {
		return nil
	}
	return &service.Identity{Subject: subject}
}

// logFault logs at a severity matching the failure class: expected denials
// and misses are warnings, everything else is an error.
func (h *Handler) logFault(ctx context.Context, msg string, err error) {
	attrs := []any{
		"error", err.Error(),
		"request_id", requestcontext.RequestID(ctx),
	}
	code := dErrors.FromError(err)
	switch code {
	case dErrors.CodeForbidden, dErrors.CodeNotFound, dErrors.CodeBadRequest, dErrors.CodeInvalidInput:
		h.logger.WarnContext(ctx, msg, attrs...)
	default:
		h.logger.ErrorContext(ctx, msg, attrs...)
	}
}
