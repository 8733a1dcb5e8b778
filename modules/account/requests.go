package account

import (
	"net/mail"
	"strings"

	"github.com/eventplanner/twofactor/handler"
)

const (
	maxTOTPTokenLength  = 6
	maxBackupCodeLength = 32
	maxPasswordLength   = 1024
)

// SetupRequest has no body; setup acts on the authenticated user.
type SetupRequest struct{}

// TokenRequest carries a TOTP code for enable and backup code regeneration.
type TokenRequest struct {
	Token string `json:"token"`
}

func (r *TokenRequest) Validate() error {
	verr := handler.NewValidationError()
	validateTOTPToken(verr, r.Token)
	return orNil(verr)
}

// VerifyRequest is the second login step.
type VerifyRequest struct {
	Email        string `json:"email"`
	Token        string `json:"token"`
	IsBackupCode bool   `json:"is_backup_code"`
}

func (r *VerifyRequest) Validate() error {
	verr := handler.NewValidationError()

	if r.Email == "" {
		verr.Add("email", "email is required")
	} else if addr, err := mail.ParseAddress(r.Email); err != nil || addr.Address != r.Email {
		verr.Add("email", "email is invalid")
	}

	if r.IsBackupCode {
		switch {
		case r.Token == "":
			verr.Add("token", "backup code is required")
		case len(r.Token) > maxBackupCodeLength:
			verr.Add("token", "backup code is too long")
		}
	} else {
		validateTOTPToken(verr, r.Token)
	}

	return orNil(verr)
}

// DisableRequest requires both a current code and the account password.
type DisableRequest struct {
	Token    string `json:"token"`
	Password string `json:"password" sanitize:"-"`
}

func (r *DisableRequest) Validate() error {
	verr := handler.NewValidationError()
	validateTOTPToken(verr, r.Token)

	switch {
	case r.Password == "":
		verr.Add("password", "password is required")
	case len(r.Password) > maxPasswordLength:
		verr.Add("password", "password is too long")
	}

	return orNil(verr)
}

func validateTOTPToken(verr handler.ValidationError, token string) {
	switch {
	case token == "":
		verr.Add("token", "token is required")
	case len(token) > maxTOTPTokenLength:
		verr.Add("token", "token must be at most 6 digits")
	case strings.Trim(token, "0123456789") != "":
		verr.Add("token", "token must contain digits only")
	}
}

func orNil(verr handler.ValidationError) error {
	if verr.IsEmpty() {
		return nil
	}
	return verr
}
