package account_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eventplanner/twofactor/handler"
	"github.com/eventplanner/twofactor/modules/account"
)

func TestVerifyRequest_ValidateEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		email   string
		wantErr bool
	}{
		{email: "alice@example.com"},
		{email: "", wantErr: true},
		{email: "nope", wantErr: true},
		{email: "Alice <alice@example.com>", wantErr: true},
		{email: "<alice@example.com>", wantErr: true},
	}

	for _, tt := range tests {
		req := account.VerifyRequest{Email: tt.email, Token: "123456"}
		err := req.Validate()
		if !tt.wantErr {
			assert.NoError(t, err, "email %q", tt.email)
			continue
		}
		var verr handler.ValidationError
		if assert.ErrorAs(t, err, &verr, "email %q", tt.email) {
			assert.True(t, verr.Has("email"), "email %q", tt.email)
		}
	}
}
