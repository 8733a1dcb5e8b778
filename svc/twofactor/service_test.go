package twofactor_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/eventplanner/twofactor/pkg/totp"
	"github.com/eventplanner/twofactor/svc/twofactor"
)

const (
	testEmail    = "alice@example.com"
	testPassword = "correct horse battery staple"
)

var testCodec = sync.OnceValues(func() (*totp.SecretCodec, error) {
	return totp.NewSecretCodec(totp.Config{EncryptionKey: "test-process-key"})
})

var testPasswordHash = sync.OnceValues(func() ([]byte, error) {
	return twofactor.HashPassword(testPassword, bcrypt.MinCost)
})

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type harness struct {
	svc    *twofactor.Service
	store  *twofactor.MemoryStorage
	engine *totp.Engine
	clock  *fakeClock
	userID uuid.UUID
}

func newHarness(t *testing.T, opts ...twofactor.Option) *harness {
	t.Helper()

	codec, err := testCodec()
	require.NoError(t, err)
	hash, err := testPasswordHash()
	require.NoError(t, err)

	// Middle of a 30 second step.
	clock := &fakeClock{now: time.Date(2026, 5, 1, 10, 0, 15, 0, time.UTC)}
	engine := totp.NewEngine(totp.WithIssuer("EventPlanner"), totp.WithClock(clock.Now))

	store := twofactor.NewMemoryStorage()
	userID := uuid.New()
	store.Add(&twofactor.Record{ID: userID, Email: testEmail}, hash)

	opts = append([]twofactor.Option{twofactor.WithQRCodeGenerator(nil, 0)}, opts...)
	svc := twofactor.NewService(store, store, codec, engine, opts...)

	return &harness{svc: svc, store: store, engine: engine, clock: clock, userID: userID}
}

// code returns the token for secret at the harness clock shifted by offset.
func (h *harness) code(t *testing.T, secret string, offset time.Duration) string {
	t.Helper()
	code, err := h.engine.Generate(secret, h.clock.Now().Add(offset))
	require.NoError(t, err)
	return code
}

func (h *harness) record(t *testing.T) *twofactor.Record {
	t.Helper()
	rec, err := h.store.GetByID(context.Background(), h.userID)
	require.NoError(t, err)
	return rec
}

// enroll runs setup and enable and returns the plaintext secret and backup codes.
func (h *harness) enroll(t *testing.T) (string, []string) {
	t.Helper()
	ctx := context.Background()

	setup, err := h.svc.Setup(ctx, h.userID)
	require.NoError(t, err)

	res, err := h.svc.Enable(ctx, h.userID, h.code(t, setup.ManualEntryKey, 0))
	require.NoError(t, err)
	return setup.ManualEntryKey, res.Codes
}

func TestService_Setup(t *testing.T) {
	t.Parallel()

	t.Run("stores encrypted secret and returns enrollment data", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)

		res, err := h.svc.Setup(context.Background(), h.userID)
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(res.OTPAuthURI, "otpauth://totp/EventPlanner:alice@example.com?"))
		assert.Contains(t, res.OTPAuthURI, "secret="+res.ManualEntryKey)
		assert.Empty(t, res.QRCode)

		rec := h.record(t)
		assert.Equal(t, twofactor.StatePending, twofactor.StateOf(rec))
		assert.NotEmpty(t, rec.Secret)
		assert.NotContains(t, rec.Secret, res.ManualEntryKey)
		assert.Empty(t, rec.BackupCodes)

		codec, err := testCodec()
		require.NoError(t, err)
		plain, err := codec.Decrypt(rec.Secret)
		require.NoError(t, err)
		assert.Equal(t, res.ManualEntryKey, plain)
	})

	t.Run("repeated setup while pending replaces the secret", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)

		first, err := h.svc.Setup(context.Background(), h.userID)
		require.NoError(t, err)
		second, err := h.svc.Setup(context.Background(), h.userID)
		require.NoError(t, err)
		assert.NotEqual(t, first.ManualEntryKey, second.ManualEntryKey)

		_, err = h.svc.Enable(context.Background(), h.userID, h.code(t, first.ManualEntryKey, 0))
		assert.ErrorIs(t, err, twofactor.ErrInvalidToken)
	})

	t.Run("renders QR code", func(t *testing.T) {
		t.Parallel()
		codec, err := testCodec()
		require.NoError(t, err)
		store := twofactor.NewMemoryStorage()
		id := uuid.New()
		store.Add(&twofactor.Record{ID: id, Email: testEmail}, nil)

		svc := twofactor.NewService(store, store, codec, totp.NewEngine())
		res, err := svc.Setup(context.Background(), id)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(res.QRCode, "data:image/png;base64,"))
	})

	t.Run("QR failure persists nothing", func(t *testing.T) {
		t.Parallel()
		failing := func(string, int) (string, error) { return "", errors.New("boom") }
		h := newHarness(t, twofactor.WithQRCodeGenerator(failing, 128))

		_, err := h.svc.Setup(context.Background(), h.userID)
		assert.ErrorIs(t, err, twofactor.ErrFailedToGenerateQRCode)
		assert.Equal(t, twofactor.StateUnconfigured, twofactor.StateOf(h.record(t)))
	})

	t.Run("already enabled", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		h.enroll(t)

		_, err := h.svc.Setup(context.Background(), h.userID)
		assert.ErrorIs(t, err, twofactor.ErrAlreadyEnabled)
		assert.True(t, twofactor.IsTransitionError(err))
	})

	t.Run("unknown user", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		_, err := h.svc.Setup(context.Background(), uuid.New())
		assert.ErrorIs(t, err, twofactor.ErrNotFound)
	})
}

func TestService_Enable(t *testing.T) {
	t.Parallel()

	t.Run("activates and returns backup codes once", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		_, codes := h.enroll(t)

		require.Len(t, codes, 10)
		for _, c := range codes {
			assert.Regexp(t, `^[0-9A-F]{8}$`, c)
		}

		rec := h.record(t)
		assert.True(t, rec.Enabled)
		assert.Equal(t, twofactor.StateActive, twofactor.StateOf(rec))
		require.NotNil(t, rec.SetupDate)
		assert.Equal(t, h.clock.Now(), *rec.SetupDate)
		assert.NotEmpty(t, rec.LastTOTPToken)
		require.NotNil(t, rec.LastTOTPUsed)
		assert.Len(t, rec.BackupCodes, 10)
		for _, c := range codes {
			assert.NotContains(t, rec.BackupCodes, c, "cleartext codes are never stored")
			assert.Contains(t, rec.BackupCodes, totp.HashRecoveryCode(c))
		}

		status, err := h.svc.Status(context.Background(), h.userID)
		require.NoError(t, err)
		assert.True(t, status.Enabled)
		assert.Equal(t, 10, status.BackupCodesRemaining)
	})

	t.Run("token more than one step away keeps enrollment pending", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		setup, err := h.svc.Setup(context.Background(), h.userID)
		require.NoError(t, err)
		before := h.record(t)

		_, err = h.svc.Enable(context.Background(), h.userID, h.code(t, setup.ManualEntryKey, -60*time.Second))
		assert.ErrorIs(t, err, twofactor.ErrInvalidToken)

		after := h.record(t)
		assert.Equal(t, twofactor.StatePending, twofactor.StateOf(after))
		assert.Equal(t, before, after)
	})

	t.Run("token one step behind is accepted", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		setup, err := h.svc.Setup(context.Background(), h.userID)
		require.NoError(t, err)

		_, err = h.svc.Enable(context.Background(), h.userID, h.code(t, setup.ManualEntryKey, -30*time.Second))
		assert.NoError(t, err)
	})

	t.Run("without setup", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		_, err := h.svc.Enable(context.Background(), h.userID, "123456")
		assert.ErrorIs(t, err, twofactor.ErrNotConfigured)
	})

	t.Run("already enabled", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		secret, _ := h.enroll(t)
		_, err := h.svc.Enable(context.Background(), h.userID, h.code(t, secret, 0))
		assert.ErrorIs(t, err, twofactor.ErrAlreadyEnabled)
	})

	t.Run("unknown user", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		_, err := h.svc.Enable(context.Background(), uuid.New(), "123456")
		assert.ErrorIs(t, err, twofactor.ErrNotFound)
	})

	t.Run("custom backup code count", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, twofactor.WithBackupCodeCount(4))
		_, codes := h.enroll(t)
		assert.Len(t, codes, 4)
	})
}

func TestService_VerifyTOTP(t *testing.T) {
	t.Parallel()

	t.Run("same token twice inside cooldown is a replay", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		secret, _ := h.enroll(t)

		h.clock.Advance(30 * time.Second)
		token := h.code(t, secret, 0)
		before := h.record(t)
		require.NotEqual(t, before.LastTOTPToken, token)

		res, err := h.svc.Verify(context.Background(), testEmail, token, false)
		require.NoError(t, err)
		assert.Equal(t, h.userID, res.UserID)
		assert.Equal(t, twofactor.MethodTOTP, res.Method)

		rec := h.record(t)
		assert.Equal(t, token, rec.LastTOTPToken)
		require.NotNil(t, rec.LastTOTPUsed)
		assert.Equal(t, h.clock.Now(), *rec.LastTOTPUsed)

		h.clock.Advance(10 * time.Second)
		_, err = h.svc.Verify(context.Background(), testEmail, token, false)
		assert.ErrorIs(t, err, twofactor.ErrReplayDetected)
	})

	t.Run("token accepted at enable is blocked right after", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		h.enroll(t)

		_, err := h.svc.Verify(context.Background(), testEmail, h.record(t).LastTOTPToken, false)
		assert.ErrorIs(t, err, twofactor.ErrReplayDetected)
	})

	t.Run("different valid token is not blocked", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		secret, _ := h.enroll(t)

		previous := h.code(t, secret, -30*time.Second)
		require.NotEqual(t, h.record(t).LastTOTPToken, previous)

		_, err := h.svc.Verify(context.Background(), testEmail, previous, false)
		assert.NoError(t, err)
	})

	t.Run("case insensitive email", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		secret, _ := h.enroll(t)
		h.clock.Advance(30 * time.Second)

		_, err := h.svc.Verify(context.Background(), "  ALICE@Example.com ", h.code(t, secret, 0), false)
		assert.NoError(t, err)
	})

	t.Run("wrong token persists nothing", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		secret, _ := h.enroll(t)
		before := h.record(t)

		_, err := h.svc.Verify(context.Background(), testEmail, h.code(t, secret, 90*time.Second), false)
		assert.ErrorIs(t, err, twofactor.ErrInvalidToken)
		assert.Equal(t, before, h.record(t))
	})

	t.Run("malformed token", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		h.enroll(t)

		_, err := h.svc.Verify(context.Background(), testEmail, "abc", false)
		assert.ErrorIs(t, err, twofactor.ErrInvalidToken)
	})

	t.Run("unknown email", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		_, err := h.svc.Verify(context.Background(), "nobody@example.com", "123456", false)
		assert.ErrorIs(t, err, twofactor.ErrInvalidToken)
		assert.ErrorIs(t, err, twofactor.ErrNotConfigured)
	})

	t.Run("pending enrollment is not enough", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		setup, err := h.svc.Setup(context.Background(), h.userID)
		require.NoError(t, err)

		_, err = h.svc.Verify(context.Background(), testEmail, h.code(t, setup.ManualEntryKey, 0), false)
		assert.ErrorIs(t, err, twofactor.ErrInvalidToken)
		assert.ErrorIs(t, err, twofactor.ErrNotConfigured)
	})

	t.Run("undecryptable secret", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		rec := h.record(t)
		rec.Enabled = true
		rec.Secret = "00112233445566778899aabb:deadbeef"
		require.NoError(t, h.store.Update(context.Background(), rec))

		_, err := h.svc.Verify(context.Background(), testEmail, "123456", false)
		assert.ErrorIs(t, err, twofactor.ErrCryptoFailure)
		assert.ErrorIs(t, err, totp.ErrCryptoFailure)
	})
}

// countingCipher counts Decrypt calls on the wrapped codec.
type countingCipher struct {
	twofactor.SecretCipher
	decrypts atomic.Int32
}

func (c *countingCipher) Decrypt(blob string) (string, error) {
	c.decrypts.Add(1)
	return c.SecretCipher.Decrypt(blob)
}

func TestService_ReplayRejectedBeforeDecrypt(t *testing.T) {
	t.Parallel()

	codec, err := testCodec()
	require.NoError(t, err)
	hash, err := testPasswordHash()
	require.NoError(t, err)

	clock := &fakeClock{now: time.Date(2026, 5, 1, 10, 0, 15, 0, time.UTC)}
	engine := totp.NewEngine(totp.WithClock(clock.Now))
	store := twofactor.NewMemoryStorage()
	userID := uuid.New()
	store.Add(&twofactor.Record{ID: userID, Email: testEmail}, hash)

	cipher := &countingCipher{SecretCipher: codec}
	svc := twofactor.NewService(store, store, cipher, engine, twofactor.WithQRCodeGenerator(nil, 0))

	ctx := context.Background()
	setup, err := svc.Setup(ctx, userID)
	require.NoError(t, err)
	token, err := engine.Generate(setup.ManualEntryKey, clock.Now())
	require.NoError(t, err)
	_, err = svc.Enable(ctx, userID, token)
	require.NoError(t, err)

	before := cipher.decrypts.Load()
	_, err = svc.Verify(ctx, testEmail, token, false)
	assert.ErrorIs(t, err, twofactor.ErrReplayDetected)
	assert.Equal(t, before, cipher.decrypts.Load(), "secret must not be decrypted for a replay")

	clock.Advance(30 * time.Second)
	next, err := engine.Generate(setup.ManualEntryKey, clock.Now())
	require.NoError(t, err)
	_, err = svc.Verify(ctx, testEmail, next, false)
	require.NoError(t, err)
	assert.Equal(t, before+1, cipher.decrypts.Load())
}

func TestService_ConcurrentBackupCodeUse(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	_, codes := h.enroll(t)

	const workers = 20
	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		start     = make(chan struct{})
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := h.svc.Verify(context.Background(), testEmail, codes[0], true)
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, twofactor.ErrConflict), errors.Is(err, twofactor.ErrInvalidToken):
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), successes.Load())
	rec := h.record(t)
	assert.Len(t, rec.BackupCodes, 9)
	assert.NotContains(t, rec.BackupCodes, totp.HashRecoveryCode(codes[0]))
}

func TestService_VerifyBackupCode(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	_, codes := h.enroll(t)
	before := h.record(t)

	res, err := h.svc.Verify(context.Background(), testEmail, strings.ToLower(codes[2]), true)
	require.NoError(t, err)
	assert.Equal(t, twofactor.MethodBackupCode, res.Method)
	assert.Equal(t, 9, res.BackupCodesRemaining)

	after := h.record(t)
	assert.Len(t, after.BackupCodes, 9)
	assert.NotContains(t, after.BackupCodes, totp.HashRecoveryCode(codes[2]))
	assert.Equal(t, before.LastTOTPToken, after.LastTOTPToken, "replay state untouched")
	assert.Equal(t, before.LastTOTPUsed, after.LastTOTPUsed)

	_, err = h.svc.Verify(context.Background(), testEmail, codes[2], true)
	assert.ErrorIs(t, err, twofactor.ErrInvalidToken)
	assert.Len(t, h.record(t).BackupCodes, 9)

	_, err = h.svc.Verify(context.Background(), testEmail, "NOTACODE", true)
	assert.ErrorIs(t, err, twofactor.ErrInvalidToken)
}

func TestService_Disable(t *testing.T) {
	t.Parallel()

	t.Run("correct password but wrong token", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		secret, _ := h.enroll(t)
		before := h.record(t)

		err := h.svc.Disable(context.Background(), h.userID, h.code(t, secret, 120*time.Second), testPassword)
		assert.ErrorIs(t, err, twofactor.ErrInvalidToken)

		after := h.record(t)
		assert.True(t, after.Enabled)
		assert.Equal(t, before.Secret, after.Secret)
	})

	t.Run("wrong password", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		secret, _ := h.enroll(t)

		err := h.svc.Disable(context.Background(), h.userID, h.code(t, secret, 0), "wrong")
		assert.ErrorIs(t, err, twofactor.ErrInvalidCredential)
		assert.True(t, h.record(t).Enabled)
	})

	t.Run("clears every field", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		secret, _ := h.enroll(t)

		require.NoError(t, h.svc.Disable(context.Background(), h.userID, h.code(t, secret, 0), testPassword))

		rec := h.record(t)
		assert.Equal(t, twofactor.StateUnconfigured, twofactor.StateOf(rec))
		assert.Empty(t, rec.Secret)
		assert.Empty(t, rec.BackupCodes)
		assert.Nil(t, rec.SetupDate)
		assert.Empty(t, rec.LastTOTPToken)
		assert.Nil(t, rec.LastTOTPUsed)

		status, err := h.svc.Status(context.Background(), h.userID)
		require.NoError(t, err)
		assert.False(t, status.Enabled)
		assert.Nil(t, status.SetupDate)
		assert.Zero(t, status.BackupCodesRemaining)

		_, err = h.svc.Setup(context.Background(), h.userID)
		assert.NoError(t, err, "setup is allowed again after disable")
	})

	t.Run("not enabled", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		err := h.svc.Disable(context.Background(), h.userID, "123456", testPassword)
		assert.ErrorIs(t, err, twofactor.ErrNotEnabled)
	})

	t.Run("no credential verifier", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		secret, _ := h.enroll(t)
		codec, err := testCodec()
		require.NoError(t, err)

		svc := twofactor.NewService(h.store, nil, codec, h.engine)
		err = svc.Disable(context.Background(), h.userID, h.code(t, secret, 0), testPassword)
		assert.ErrorIs(t, err, twofactor.ErrInvalidCredential)
	})
}

func TestService_RegenerateBackupCodes(t *testing.T) {
	t.Parallel()

	t.Run("replaces the whole set", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		secret, oldCodes := h.enroll(t)

		_, err := h.svc.Verify(context.Background(), testEmail, oldCodes[0], true)
		require.NoError(t, err)

		res, err := h.svc.RegenerateBackupCodes(context.Background(), h.userID, h.code(t, secret, 0))
		require.NoError(t, err)
		assert.Len(t, res.Codes, 10)
		assert.Len(t, h.record(t).BackupCodes, 10)

		_, err = h.svc.Verify(context.Background(), testEmail, oldCodes[1], true)
		assert.ErrorIs(t, err, twofactor.ErrInvalidToken, "previous codes are invalidated")

		_, err = h.svc.Verify(context.Background(), testEmail, res.Codes[0], true)
		assert.NoError(t, err)
	})

	t.Run("wrong token keeps codes", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		secret, _ := h.enroll(t)
		before := h.record(t)

		_, err := h.svc.RegenerateBackupCodes(context.Background(), h.userID, h.code(t, secret, -120*time.Second))
		assert.ErrorIs(t, err, twofactor.ErrInvalidToken)
		assert.Equal(t, before.BackupCodes, h.record(t).BackupCodes)
	})

	t.Run("not enabled", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		_, err := h.svc.RegenerateBackupCodes(context.Background(), h.userID, "123456")
		assert.ErrorIs(t, err, twofactor.ErrNotEnabled)
	})
}

func TestService_Status(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	status, err := h.svc.Status(context.Background(), h.userID)
	require.NoError(t, err)
	assert.False(t, status.Enabled)
	assert.Nil(t, status.SetupDate)

	_, err = h.svc.Status(context.Background(), uuid.New())
	assert.ErrorIs(t, err, twofactor.ErrNotFound)
}

func TestService_AttemptLimiter(t *testing.T) {
	t.Parallel()

	t.Run("locked out", func(t *testing.T) {
		t.Parallel()
		limiter := new(MockAttemptLimiter)
		limiter.On("Allow", mock.Anything, testEmail).Return(false, nil)
		h := newHarness(t, twofactor.WithAttemptLimiter(limiter))

		_, err := h.svc.Verify(context.Background(), testEmail, "123456", false)
		assert.ErrorIs(t, err, twofactor.ErrTooManyAttempts)
		limiter.AssertNotCalled(t, "RecordFailure", mock.Anything, mock.Anything)
	})

	t.Run("limiter error fails closed", func(t *testing.T) {
		t.Parallel()
		limiter := new(MockAttemptLimiter)
		limiter.On("Allow", mock.Anything, testEmail).Return(false, errors.New("redis down"))
		h := newHarness(t, twofactor.WithAttemptLimiter(limiter))

		_, err := h.svc.Verify(context.Background(), testEmail, "123456", false)
		assert.ErrorIs(t, err, twofactor.ErrAttemptLimiterUnavailable)
	})

	t.Run("failure recorded and success resets", func(t *testing.T) {
		t.Parallel()
		limiter := new(MockAttemptLimiter)
		limiter.On("Allow", mock.Anything, testEmail).Return(true, nil)
		limiter.On("RecordFailure", mock.Anything, testEmail).Return(nil).Once()
		limiter.On("Reset", mock.Anything, testEmail).Return(nil).Once()
		h := newHarness(t, twofactor.WithAttemptLimiter(limiter))
		_, codes := h.enroll(t)

		_, err := h.svc.Verify(context.Background(), testEmail, "WRONG123", true)
		require.ErrorIs(t, err, twofactor.ErrInvalidToken)

		_, err = h.svc.Verify(context.Background(), testEmail, codes[0], true)
		require.NoError(t, err)

		limiter.AssertExpectations(t)
	})
}

func TestService_Notifications(t *testing.T) {
	t.Parallel()

	notifier := &chanNotifier{ch: make(chan twofactor.Notification, 4)}
	h := newHarness(t, twofactor.WithNotifier(notifier))
	secret, codes := h.enroll(t)

	next := func() twofactor.Notification {
		select {
		case n := <-notifier.ch:
			return n
		case <-time.After(2 * time.Second):
			t.Fatal("notification not delivered")
			return twofactor.Notification{}
		}
	}

	n := next()
	assert.Equal(t, twofactor.NotificationEnabled, n.Type)
	assert.Equal(t, h.userID, n.UserID)
	assert.Equal(t, testEmail, n.Email)

	_, err := h.svc.Verify(context.Background(), testEmail, codes[0], true)
	require.NoError(t, err)
	n = next()
	assert.Equal(t, twofactor.NotificationBackupCodeUsed, n.Type)
	assert.Equal(t, 9, n.BackupCodesRemaining)

	require.NoError(t, h.svc.Disable(context.Background(), h.userID, h.code(t, secret, 0), testPassword))
	n = next()
	assert.Equal(t, twofactor.NotificationDisabled, n.Type)
	assert.Zero(t, n.BackupCodesRemaining)
}

func TestService_StorageErrors(t *testing.T) {
	t.Parallel()

	codec, err := testCodec()
	require.NoError(t, err)
	id := uuid.New()

	t.Run("conflict on save", func(t *testing.T) {
		t.Parallel()
		store := new(MockStorage)
		store.On("GetByID", mock.Anything, id).Return(&twofactor.Record{ID: id, Email: testEmail}, nil)
		store.On("Update", mock.Anything, mock.Anything).Return(twofactor.ErrConflict)

		svc := twofactor.NewService(store, nil, codec, totp.NewEngine(), twofactor.WithQRCodeGenerator(nil, 0))
		_, err := svc.Setup(context.Background(), id)
		assert.ErrorIs(t, err, twofactor.ErrConflict)
		store.AssertExpectations(t)
	})

	t.Run("load failure", func(t *testing.T) {
		t.Parallel()
		store := new(MockStorage)
		store.On("GetByID", mock.Anything, id).Return(nil, errors.New("connection reset"))

		svc := twofactor.NewService(store, nil, codec, totp.NewEngine())
		_, err := svc.Status(context.Background(), id)
		assert.ErrorIs(t, err, twofactor.ErrFailedToLoadRecord)
		assert.NotErrorIs(t, err, twofactor.ErrNotFound)
	})

	t.Run("save failure", func(t *testing.T) {
		t.Parallel()
		store := new(MockStorage)
		store.On("GetByID", mock.Anything, id).Return(&twofactor.Record{ID: id, Email: testEmail}, nil)
		store.On("Update", mock.Anything, mock.Anything).Return(errors.New("disk full"))

		svc := twofactor.NewService(store, nil, codec, totp.NewEngine(), twofactor.WithQRCodeGenerator(nil, 0))
		_, err := svc.Setup(context.Background(), id)
		assert.ErrorIs(t, err, twofactor.ErrFailedToSaveRecord)
	})
}
