package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/eventplanner/twofactor/pkg/email"
	"github.com/eventplanner/twofactor/svc/twofactor"
)

var (
	ErrUnknownNotification = errors.New("unknown notification type")
	ErrFailedToRender      = errors.New("failed to render notice")
)

// EmailNotifier implements twofactor.Notifier by emailing the account owner.
type EmailNotifier struct {
	sender       email.EmailSender
	appName      string
	supportEmail string
}

type Option func(*EmailNotifier)

// WithAppName sets the product name shown in subjects and footers.
func WithAppName(name string) Option {
	return func(n *EmailNotifier) {
		if name != "" {
			n.appName = name
		}
	}
}

// WithSupportEmail adds a "not you?" contact line.
func WithSupportEmail(addr string) Option {
	return func(n *EmailNotifier) { n.supportEmail = addr }
}

func NewEmailNotifier(sender email.EmailSender, opts ...Option) *EmailNotifier {
	n := &EmailNotifier{
		sender:  sender,
		appName: "EventPlanner",
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Notify renders the notice for n.Type and sends it to n.Email.
func (e *EmailNotifier) Notify(ctx context.Context, n twofactor.Notification) error {
	params, err := e.params(n)
	if err != nil {
		return err
	}

	body, err := email.Render(ctx, Notice(params))
	if err != nil {
		return errors.Join(ErrFailedToRender, err)
	}

	return e.sender.SendEmail(ctx, email.SendEmailParams{
		SendTo:   n.Email,
		Subject:  fmt.Sprintf("%s: %s", e.appName, params.Title),
		BodyHTML: body,
		Tag:      string(n.Type),
	})
}

func (e *EmailNotifier) params(n twofactor.Notification) (NoticeParams, error) {
	p := NoticeParams{
		AppName:              e.appName,
		OccurredAt:           n.OccurredAt,
		SupportEmail:         e.supportEmail,
		BackupCodesRemaining: n.BackupCodesRemaining,
	}

	switch n.Type {
	case twofactor.NotificationEnabled:
		p.Title = "Two-factor authentication enabled"
		p.Lead = "Two-factor authentication is now active on your account. Keep your backup codes somewhere safe."
	case twofactor.NotificationDisabled:
		p.Title = "Two-factor authentication disabled"
		p.Lead = "Two-factor authentication was turned off for your account."
		p.Detail = "Your previous authenticator setup and backup codes no longer work."
	case twofactor.NotificationBackupCodeUsed:
		p.Title = "A backup code was used"
		p.Lead = "One of your backup codes was just used to sign in. Each code works only once."
		p.ShowRemaining = true
		if n.BackupCodesRemaining <= 2 {
			p.Detail = "You are running low on backup codes. Generate a new set from your security settings."
		}
	case twofactor.NotificationBackupCodesRefreshed:
		p.Title = "New backup codes generated"
		p.Lead = "A new set of backup codes was generated. Your old codes no longer work."
		p.ShowRemaining = true
	default:
		return NoticeParams{}, fmt.Errorf("%w: %q", ErrUnknownNotification, n.Type)
	}

	return p, nil
}
