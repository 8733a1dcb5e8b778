// Package email sends transactional emails through a provider-agnostic interface.
//
// # Architecture
//
// EmailSender is implemented by:
//   - the Postmark client (NewPostmarkClient) for production delivery
//   - DevSender for local development, which saves emails to disk
//
// NewSender picks one based on whether Postmark tokens are configured. Every
// implementation validates SendEmailParams before doing any work.
//
// # Usage
//
//	sender, err := email.NewSender(cfg)
//	if err != nil {
//	    return err
//	}
//
//	html, err := email.Render(ctx, notice) // any templ.Component
//	if err != nil {
//	    return err
//	}
//
//	err = sender.SendEmail(ctx, email.SendEmailParams{
//	    SendTo:   "user@example.com",
//	    Subject:  "Two-factor authentication enabled",
//	    BodyHTML: html,
//	    Tag:      "2fa-enabled",
//	})
//
// DevSender creates timestamped HTML and JSON files in its directory.
//
// # Configuration
//
//   - POSTMARK_SERVER_TOKEN, POSTMARK_ACCOUNT_TOKEN: Postmark API tokens
//   - SENDER_EMAIL: From address for all emails
//   - SUPPORT_EMAIL: Reply-To address
//   - EMAIL_DEV_DIR: output directory of the DevSender
//
// # Error Handling
//
//   - ErrInvalidConfig: configuration validation failed
//   - ErrInvalidParams: email parameters validation failed
//   - ErrFailedToSendEmail: delivery failed
package email
