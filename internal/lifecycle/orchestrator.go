// Package lifecycle sequences account provisioning and process shutdown.
// Account creation happens upstream in the auth authority; this service owns
// the donor profile record and the follow-up notifications.
package lifecycle

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mssola/useragent"

	"donorhub/internal/audit"
	"donorhub/internal/notify"
	"donorhub/internal/platform/metrics"
	"donorhub/internal/profile/models"
	"donorhub/internal/profile/store"
	id "donorhub/pkg/domain"
	dErrors "donorhub/pkg/domain-errors"
	"donorhub/pkg/requestcontext"
)

// UpstreamUser is the donor record as the account-creation authority knows it.
type UpstreamUser struct {
	ID        string         `json:"id"`
	Email     string         `json:"email"`
	FirstName string         `json:"firstName"`
	LastName  string         `json:"lastName"`
	Phone     string         `json:"phone"`
	Address   models.Address `json:"address"`
}

// CreationMeta carries the external account IDs the authority provisioned
// before calling us. They are recorded verbatim, never computed here.
type CreationMeta struct {
	BillingAccountID string `json:"billingAccountId"`
	CRMAccountID     string `json:"crmAccountId"`
}

// LoginMeta describes the client that completed a login.
type LoginMeta struct {
	JTI       string `json:"jti"`
	UserAgent string `json:"userAgent"`
	ClientIP  string `json:"clientIp"`
}

// Orchestrator handles account-lifecycle callbacks from the upstream
// authority.
type Orchestrator struct {
	store    store.Store
	audit    *audit.Publisher
	notifier notify.Notifier
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func New(st store.Store, auditPub *audit.Publisher, notifier notify.Notifier, logger *slog.Logger, m *metrics.Metrics) *Orchestrator {
	return &Orchestrator{
		store:    st,
		audit:    auditPub,
		notifier: notifier,
		logger:   logger,
		metrics:  m,
	}
}

// OnAccountCreated provisions the local profile after the upstream authority
// has created the billing account, CRM contact, and base identity. The
// profile write is the one step that can fail the callback; the welcome mail
// is best-effort.
func (o *Orchestrator) OnAccountCreated(ctx context.Context, user UpstreamUser, confirmToken string, meta CreationMeta) error {
	userID, err := id.ParseUserID(user.ID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid upstream user id")
	}

	firstName, lastName := user.FirstName, user.LastName
	if firstName == "" && lastName == "" {
		firstName, lastName = deriveNameFromEmail(user.Email)
	}

	now := requestcontext.Now(ctx)
	profile := &models.Profile{
		ID:               userID,
		Email:            user.Email,
		FirstName:        firstName,
		LastName:         lastName,
		Phone:            user.Phone,
		Address:          user.Address.Clone(),
		BillingAccountID: meta.BillingAccountID,
		CRMAccountID:     meta.CRMAccountID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := o.store.Create(ctx, profile); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return dErrors.Wrap(err, dErrors.CodeConflict, "profile already exists")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "create profile")
	}
	o.metrics.IncAccountsCreated()

	o.emit(ctx, audit.Event{
		UserID: userID.String(),
		Action: audit.ActionAccountCreated,
		Detail: map[string]string{
			"billingLinked": boolString(meta.BillingAccountID != ""),
			"crmLinked":     boolString(meta.CRMAccountID != ""),
		},
	})

	// The account is committed; a failed welcome mail must not undo it.
	if err := o.notifier.Send(ctx, notify.KindWelcome, user.Email, map[string]string{
		"firstName": firstName,
		"link":      confirmToken,
	}); err != nil {
		o.logger.ErrorContext(ctx, "welcome notification failed",
			"error", err.Error(),
			"user_id", userID.String(),
		)
	}

	return nil
}

// OnLoginSuccess stamps the donor's last login and records the client device.
// Everything here is best-effort; a login must never fail on bookkeeping.
func (o *Orchestrator) OnLoginSuccess(ctx context.Context, rawUserID string, meta LoginMeta) {
	userID, err := id.ParseUserID(rawUserID)
	if err != nil {
		o.logger.WarnContext(ctx, "login hook with invalid user id", "error", err.Error())
		return
	}

	ua := useragent.New(meta.UserAgent)
	browser, version := ua.Browser()
	o.logger.InfoContext(ctx, "login succeeded",
		"user_id", userID.String(),
		"jti", meta.JTI,
		"os", ua.OS(),
		"browser", browser,
		"browser_version", version,
		"mobile", ua.Mobile(),
		"client_ip", meta.ClientIP,
	)

	if err := o.stampLastLogin(ctx, userID); err != nil {
		o.logger.WarnContext(ctx, "last login stamp failed",
			"error", err.Error(),
			"user_id", userID.String(),
		)
	}

	o.emit(ctx, audit.Event{
		UserID: userID.String(),
		Action: audit.ActionLoginSucceeded,
		Detail: map[string]string{"os": ua.OS(), "browser": browser},
	})
}

// OnForgotPasswordRequest forwards the reset token to the donor's mailbox.
func (o *Orchestrator) OnForgotPasswordRequest(ctx context.Context, email, resetToken string) error {
	if err := o.notifier.Send(ctx, notify.KindForgotPassword, email, map[string]string{
		"link": resetToken,
	}); err != nil {
		return err
	}
	o.emit(ctx, audit.Event{UserID: email, Action: audit.ActionForgotPassword})
	return nil
}

// OnChangePasswordRequest notifies the donor that a password change happened.
func (o *Orchestrator) OnChangePasswordRequest(ctx context.Context, email string) error {
	if err := o.notifier.Send(ctx, notify.KindPasswordChanged, email, nil); err != nil {
		return err
	}
	o.emit(ctx, audit.Event{UserID: email, Action: audit.ActionPasswordChanged})
	return nil
}

// OnResendConfirmation re-sends the email confirmation link.
func (o *Orchestrator) OnResendConfirmation(ctx context.Context, email, confirmToken string) error {
	if err := o.notifier.Send(ctx, notify.KindEmailConfirmation, email, map[string]string{
		"link": confirmToken,
	}); err != nil {
		return err
	}
	o.emit(ctx, audit.Event{UserID: email, Action: audit.ActionConfirmationResent})
	return nil
}

func (o *Orchestrator) stampLastLogin(ctx context.Context, userID id.UserID) error {
	profile, err := o.store.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	updated := profile.Clone()
	now := requestcontext.Now(ctx)
	updated.LastLogin = &now
	return o.store.Update(ctx, updated)
}

// emit records an audit event, logging instead of failing: the audit trail is
// an observer of lifecycle actions, never a gate on them.
func (o *Orchestrator) emit(ctx context.Context, event audit.Event) {
	if err := o.audit.Emit(ctx, event); err != nil {
		o.logger.ErrorContext(ctx, "audit emit failed",
			"error", err.Error(),
			"action", event.Action,
		)
	}
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
