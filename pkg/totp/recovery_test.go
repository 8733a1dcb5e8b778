package totp_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventplanner/twofactor/pkg/totp"
)

func TestGenerateRecoveryCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		count   int
		wantErr bool
	}{
		{name: "default count", count: totp.DefaultRecoveryCodeCount},
		{name: "single code", count: 1},
		{name: "zero codes", count: 0, wantErr: true},
		{name: "negative count", count: -1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			codes, err := totp.GenerateRecoveryCodes(tt.count)
			if tt.wantErr {
				assert.ErrorIs(t, err, totp.ErrInvalidRecoveryCodeCount)
				assert.Nil(t, codes)
				return
			}
			require.NoError(t, err)
			assert.Len(t, codes, tt.count)

			for _, code := range codes {
				assert.Regexp(t, `^[0-9A-F]{8}$`, code)
			}
		})
	}
}

func TestHashRecoveryCode(t *testing.T) {
	t.Parallel()

	hash := totp.HashRecoveryCode("A1B2C3D4")
	assert.Len(t, hash, 64)
	assert.Equal(t, hash, totp.HashRecoveryCode("A1B2C3D4"))
	assert.Equal(t, hash, totp.HashRecoveryCode("  a1b2c3d4 "), "input is normalized before hashing")
	assert.NotEqual(t, hash, totp.HashRecoveryCode("A1B2C3D5"))

	codes := []string{"AAAAAAAA", "BBBBBBBB"}
	hashed := totp.HashRecoveryCodes(codes)
	require.Len(t, hashed, 2)
	assert.Equal(t, totp.HashRecoveryCode("AAAAAAAA"), hashed[0])
	assert.Equal(t, totp.HashRecoveryCode("BBBBBBBB"), hashed[1])
}

func TestVerifyRecoveryCode(t *testing.T) {
	t.Parallel()

	hash := totp.HashRecoveryCode("1234ABCD")
	assert.True(t, totp.VerifyRecoveryCode("1234ABCD", hash))
	assert.True(t, totp.VerifyRecoveryCode("1234abcd", hash))
	assert.False(t, totp.VerifyRecoveryCode("ABCD1234", hash))
	assert.False(t, totp.VerifyRecoveryCode("1234ABCD", ""))
}

func TestVerifyAndConsume(t *testing.T) {
	t.Parallel()

	codes, err := totp.GenerateRecoveryCodes(totp.DefaultRecoveryCodeCount)
	require.NoError(t, err)
	hashed := totp.HashRecoveryCodes(codes)

	t.Run("consumes exactly one code", func(t *testing.T) {
		t.Parallel()
		input := append([]string(nil), hashed...)

		ok, remaining := totp.VerifyAndConsume(codes[3], input)
		require.True(t, ok)
		assert.Len(t, remaining, len(hashed)-1)
		assert.NotContains(t, remaining, hashed[3])
		assert.Equal(t, hashed, input, "input slice must not be modified")

		ok, again := totp.VerifyAndConsume(codes[3], remaining)
		assert.False(t, ok, "a consumed code cannot be used twice")
		assert.Equal(t, remaining, again)
	})

	t.Run("case and whitespace insensitive", func(t *testing.T) {
		t.Parallel()
		ok, remaining := totp.VerifyAndConsume(" "+strings.ToLower(codes[0])+" ", hashed)
		assert.True(t, ok)
		assert.Len(t, remaining, len(hashed)-1)
	})

	t.Run("unknown code leaves the set unchanged", func(t *testing.T) {
		t.Parallel()
		ok, remaining := totp.VerifyAndConsume("ZZZZZZZZ", hashed)
		assert.False(t, ok)
		assert.Equal(t, hashed, remaining)
	})

	t.Run("empty code", func(t *testing.T) {
		t.Parallel()
		ok, remaining := totp.VerifyAndConsume("   ", hashed)
		assert.False(t, ok)
		assert.Equal(t, hashed, remaining)
	})

	t.Run("empty set", func(t *testing.T) {
		t.Parallel()
		ok, remaining := totp.VerifyAndConsume(codes[0], nil)
		assert.False(t, ok)
		assert.Empty(t, remaining)
	})

	t.Run("duplicate hashes only lose one entry", func(t *testing.T) {
		t.Parallel()
		h := totp.HashRecoveryCode("DEADBEEF")
		ok, remaining := totp.VerifyAndConsume("DEADBEEF", []string{h, "other", h})
		assert.True(t, ok)
		assert.Equal(t, []string{"other", h}, remaining)
	})

	t.Run("all codes usable once each", func(t *testing.T) {
		t.Parallel()
		set := hashed
		for _, code := range codes {
			var ok bool
			ok, set = totp.VerifyAndConsume(code, set)
			require.True(t, ok)
		}
		assert.Empty(t, set)
	})
}

func BenchmarkVerifyAndConsume(b *testing.B) {
	codes, _ := totp.GenerateRecoveryCodes(totp.DefaultRecoveryCodeCount)
	hashed := totp.HashRecoveryCodes(codes)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		totp.VerifyAndConsume(codes[9], hashed)
	}
}
