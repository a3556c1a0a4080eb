// Package notify delivers transactional email to donors. Deliveries are
// best-effort: callers log failures and carry on, so a down mail relay never
// blocks an account operation.
package notify

import "context"

// Kind names a notification template.
type Kind string

const (
	KindWelcome           Kind = "welcome"
	KindEmailConfirmation Kind = "email_confirmation"
	KindForgotPassword    Kind = "forgot_password"
	KindPasswordChanged   Kind = "password_changed"
	KindAddressChanged    Kind = "address_changed"
)

// Notifier sends a notification of the given kind to recipient. The payload
// carries template fields such as the donor's name or a one-time token link.
type Notifier interface {
	Send(ctx context.Context, kind Kind, recipient string, payload map[string]string) error
}

// Noop discards all notifications. Used when SMTP is not configured and in
// tests.
type Noop struct{}

func (Noop) Send(context.Context, Kind, string, map[string]string) error { return nil }
