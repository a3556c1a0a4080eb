package audit

import (
	"time"

	"github.com/google/uuid"
)

// Actions recorded in the audit trail.
const (
	ActionAccountCreated     = "account_created"
	ActionProfileUpdated     = "profile_updated"
	ActionLoginSucceeded     = "login_succeeded"
	ActionForgotPassword     = "forgot_password_requested"
	ActionPasswordChanged    = "password_change_requested"
	ActionConfirmationResent = "confirmation_resent"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        uuid.UUID         `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	UserID    string            `json:"userId"`
	Action    string            `json:"action"`
	Actor     string            `json:"actor,omitempty"`
	Detail    map[string]string `json:"detail,omitempty"`
}
