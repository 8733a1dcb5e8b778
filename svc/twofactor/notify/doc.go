// Package notify emails security notices about two-factor changes.
//
// EmailNotifier satisfies twofactor.Notifier. It renders a templ component for each
// notification type and hands the HTML to any email.EmailSender (Postmark in
// production, the on-disk DevSender locally):
//
//	sender, _ := email.NewSender(cfg.Email)
//	notifier := notify.NewEmailNotifier(sender,
//	    notify.WithAppName("EventPlanner"),
//	    notify.WithSupportEmail(cfg.Email.SupportEmail),
//	)
//	svc := twofactor.NewService(store, store, codec, engine, twofactor.WithNotifier(notifier))
package notify
