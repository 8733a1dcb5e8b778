package email

// Config holds email service configuration.
// The Postmark tokens are optional: without them NewSender falls back to a
// DevSender writing into DevOutputDir.
// SenderEmail and SupportEmail are required as they establish the sender identity
// and reply-to behavior for all outbound emails.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL,required"`
	SupportEmail         string `env:"SUPPORT_EMAIL,required"`
	DevOutputDir         string `env:"EMAIL_DEV_DIR" envDefault:"tmp/emails"`
}

// NewSender returns a Postmark client when both tokens are set and a DevSender otherwise.
func NewSender(cfg Config) (EmailSender, error) {
	if cfg.PostmarkServerToken == "" && cfg.PostmarkAccountToken == "" {
		return NewDevSender(cfg.DevOutputDir), nil
	}
	return NewPostmarkClient(cfg)
}
