package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"donorhub/internal/platform/config"
	dErrors "donorhub/pkg/domain-errors"
)

var subjects = map[Kind]string{
	KindWelcome:           "Welcome to DonorHub",
	KindEmailConfirmation: "Confirm your email address",
	KindForgotPassword:    "Reset your password",
	KindPasswordChanged:   "Your password was changed",
	KindAddressChanged:    "Your mailing address was updated",
}

// SMTPNotifier sends plain-text mail through a single relay.
type SMTPNotifier struct {
	addr string
	auth smtp.Auth
	from string
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTP(cfg config.SMTPConfig) *SMTPNotifier {
	var auth smtp.Auth
	if cfg.User != "" {
		auth = smtp.PlainAuth("", cfg.User, cfg.Pass, cfg.Host)
	}
	return &SMTPNotifier{
		addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		auth: auth,
		from: cfg.From,
		send: smtp.SendMail,
	}
}

func (n *SMTPNotifier) Send(ctx context.Context, kind Kind, recipient string, payload map[string]string) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "notification cancelled")
	}

	subject, ok := subjects[kind]
	if !ok {
		return dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unknown notification kind %q", kind))
	}

	msg := buildMessage(n.from, recipient, subject, payload)
	if err := n.send(n.addr, n.auth, n.from, []string{recipient}, msg); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "smtp delivery failed")
	}
	return nil
}

func buildMessage(from, to, subject string, payload map[string]string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")

	if name := payload["firstName"]; name != "" {
		fmt.Fprintf(&b, "Hi %s,\r\n\r\n", name)
	}
	if link := payload["link"]; link != "" {
		fmt.Fprintf(&b, "Follow this link to continue: %s\r\n", link)
	}
	if body := payload["body"]; body != "" {
		b.WriteString(body)
		b.WriteString("\r\n")
	}
	return []byte(b.String())
}
