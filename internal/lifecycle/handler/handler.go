// Package handler exposes the internal lifecycle callbacks the
// account-creation authority invokes. The routes are not donor-facing and
// authenticate with a shared webhook secret instead of a donor token.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"donorhub/internal/lifecycle"
	"donorhub/internal/platform/middleware"
	"donorhub/internal/platform/secrets"
	"donorhub/internal/transport/shared"
	dErrors "donorhub/pkg/domain-errors"
	"donorhub/pkg/requestcontext"
)

const secretHeader = "X-Webhook-Secret"

// Orchestrator defines the lifecycle operations the handler needs.
type Orchestrator interface {
	OnAccountCreated(ctx context.Context, user lifecycle.UpstreamUser, confirmToken string, meta lifecycle.CreationMeta) error
	OnLoginSuccess(ctx context.Context, rawUserID string, meta lifecycle.LoginMeta)
	OnForgotPasswordRequest(ctx context.Context, email, resetToken string) error
	OnChangePasswordRequest(ctx context.Context, email string) error
	OnResendConfirmation(ctx context.Context, email, confirmToken string) error
}

// Handler handles the internal lifecycle endpoints.
type Handler struct {
	logger       *slog.Logger
	orchestrator Orchestrator
	secretHash   string
}

func New(orchestrator Orchestrator, secretHash string, logger *slog.Logger) *Handler {
	return &Handler{
		logger:       logger,
		orchestrator: orchestrator,
		secretHash:   secretHash,
	}
}

// Register mounts the lifecycle routes under /internal.
func (h *Handler) Register(r chi.Router) {
	internalRouter := chi.NewRouter()
	internalRouter.Use(middleware.Recovery(h.logger))
	internalRouter.Use(middleware.RequestID)
	internalRouter.Use(middleware.Logger(h.logger))
	internalRouter.Use(middleware.Timeout(30 * time.Second))
	internalRouter.Use(middleware.ContentTypeJSON)
	internalRouter.Use(h.requireWebhookSecret)
	internalRouter.Post("/accounts", h.handleAccountCreated)
	internalRouter.Post("/hooks/login", h.handleLoginSuccess)
	internalRouter.Post("/hooks/forgot-password", h.handleForgotPassword)
	internalRouter.Post("/hooks/change-password", h.handleChangePassword)
	internalRouter.Post("/hooks/resend-confirmation", h.handleResendConfirmation)

	r.Mount("/internal", internalRouter)
}

// requireWebhookSecret authenticates the caller against the configured bcrypt
// hash. A service with no hash configured refuses every callback.
func (h *Handler) requireWebhookSecret(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.secretHash == "" {
			shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "webhook secret not configured"))
			return
		}
		if err := secrets.Verify(r.Header.Get(secretHeader), h.secretHash); err != nil {
			h.logger.WarnContext(r.Context(), "webhook secret rejected",
				"request_id", requestcontext.RequestID(r.Context()),
			)
			shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid webhook secret"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

type accountCreatedRequest struct {
	User         lifecycle.UpstreamUser `json:"user"`
	ConfirmToken string                 `json:"confirmToken"`
	Meta         lifecycle.CreationMeta `json:"meta"`
}

func (h *Handler) handleAccountCreated(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req accountCreatedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := h.orchestrator.OnAccountCreated(ctx, req.User, req.ConfirmToken, req.Meta); err != nil {
		h.logger.ErrorContext(ctx, "account creation callback failed",
			"error", err.Error(),
			"request_id", requestcontext.RequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, map[string]string{"status": "created"})
}

type loginHookRequest struct {
	UserID string              `json:"userId"`
	Meta   lifecycle.LoginMeta `json:"meta"`
}

func (h *Handler) handleLoginSuccess(w http.ResponseWriter, r *http.Request) {
	var req loginHookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	h.orchestrator.OnLoginSuccess(r.Context(), req.UserID, req.Meta)
	shared.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

type tokenHookRequest struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

func (h *Handler) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	h.handleTokenHook(w, r, func(ctx context.Context, req tokenHookRequest) error {
		return h.orchestrator.OnForgotPasswordRequest(ctx, req.Email, req.Token)
	})
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	h.handleTokenHook(w, r, func(ctx context.Context, req tokenHookRequest) error {
		return h.orchestrator.OnChangePasswordRequest(ctx, req.Email)
	})
}

func (h *Handler) handleResendConfirmation(w http.ResponseWriter, r *http.Request) {
	h.handleTokenHook(w, r, func(ctx context.Context, req tokenHookRequest) error {
		return h.orchestrator.OnResendConfirmation(ctx, req.Email, req.Token)
	})
}

func (h *Handler) handleTokenHook(w http.ResponseWriter, r *http.Request, call func(ctx context.Context, req tokenHookRequest) error) {
	ctx := r.Context()

	var req tokenHookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.Email == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "email is required"))
		return
	}

	if err := call(ctx, req); err != nil {
		h.logger.ErrorContext(ctx, "lifecycle hook failed",
			"error", err.Error(),
			"path", r.URL.Path,
			"request_id", requestcontext.RequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}
