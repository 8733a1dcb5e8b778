package twofactor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/eventplanner/twofactor/pkg/logger"
	"github.com/eventplanner/twofactor/pkg/qrcode"
	"github.com/eventplanner/twofactor/pkg/totp"
)

const (
	DefaultQRCodeSize = 300

	notifyTimeout = 10 * time.Second
)

// Service sequences secret storage, TOTP verification, backup codes and replay
// protection against the user store. It holds no per-user state of its own.
type Service struct {
	storage  Storage
	verifier CredentialVerifier
	codec    SecretCipher
	engine   *totp.Engine
	replay   totp.ReplayGuard
	logger   *slog.Logger
	now      func() time.Time

	limiter   AttemptLimiter
	notifier  Notifier
	qrcode    QRCodeGenerator
	qrSize    int
	codeCount int
}

type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces time.Now. The clock drives both TOTP steps and stored timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithReplayGuard overrides the default 90 second replay guard.
func WithReplayGuard(g totp.ReplayGuard) Option {
	return func(s *Service) {
		s.replay = g
	}
}

// WithAttemptLimiter throttles failed calls to Verify per email address.
func WithAttemptLimiter(l AttemptLimiter) Option {
	return func(s *Service) {
		s.limiter = l
	}
}

// WithNotifier sends security notices after enable, disable, backup code use and regeneration.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithQRCodeGenerator replaces the QR renderer used by Setup. Nil disables QR output.
func WithQRCodeGenerator(g QRCodeGenerator, size int) Option {
	return func(s *Service) {
		s.qrcode = g
		if size > 0 {
			s.qrSize = size
		}
	}
}

// WithBackupCodeCount sets how many backup codes enable and regenerate issue.
func WithBackupCodeCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.codeCount = n
		}
	}
}

// NewService wires the two-factor operations. The engine's issuer and time step
// settings apply to every user; the cipher must be built from process configuration.
func NewService(storage Storage, verifier CredentialVerifier, codec SecretCipher, engine *totp.Engine, opts ...Option) *Service {
	s := &Service{
		storage:   storage,
		verifier:  verifier,
		codec:     codec,
		engine:    engine,
		replay:    totp.NewReplayGuard(totp.DefaultReplayCooldown),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:       engine.Now,
		qrcode:    qrcode.GenerateBase64Image,
		qrSize:    DefaultQRCodeSize,
		codeCount: totp.DefaultRecoveryCodeCount,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Setup creates a fresh secret for a user that has not enabled 2FA yet. Calling it
// again while enrollment is pending replaces the pending secret.
func (s *Service) Setup(ctx context.Context, userID uuid.UUID) (*SetupResult, error) {
	rec, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, err := Next(StateOf(rec), EventSetup); err != nil {
		return nil, err
	}

	enrollment, err := s.engine.GenerateSecret(rec.Email)
	if err != nil {
		return nil, errors.Join(ErrFailedToGenerateSecret, err)
	}

	blob, err := s.codec.Encrypt(enrollment.Secret)
	if err != nil {
		return nil, errors.Join(ErrFailedToGenerateSecret, err)
	}

	result := &SetupResult{
		OTPAuthURI:     enrollment.URI,
		ManualEntryKey: enrollment.Secret,
	}
	if s.qrcode != nil {
		img, err := s.qrcode(enrollment.URI, s.qrSize)
		if err != nil {
			return nil, errors.Join(ErrFailedToGenerateQRCode, err)
		}
		result.QRCode = img
	}

	rec.Secret = blob
	rec.Enabled = false
	if err := s.save(ctx, rec); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "two-factor setup started",
		logger.UserID(userID.String()),
		logger.Event("setup"),
		logger.Component("twofactor"),
	)

	return result, nil
}

// Enable confirms enrollment with a token from the authenticator app and issues the
// first set of backup codes.
func (s *Service) Enable(ctx context.Context, userID uuid.UUID, token string) (*BackupCodesResult, error) {
	rec, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, err := Next(StateOf(rec), EventEnable); err != nil {
		return nil, err
	}

	now := s.now()
	normalized, err := s.verifyToken(ctx, rec, token, now)
	if err != nil {
		return nil, err
	}

	codes, err := totp.GenerateRecoveryCodes(s.codeCount)
	if err != nil {
		return nil, errors.Join(ErrFailedToGenerateBackupCodes, err)
	}

	rec.Enabled = true
	rec.BackupCodes = totp.HashRecoveryCodes(codes)
	rec.SetupDate = &now
	rec.LastTOTPToken = normalized
	rec.LastTOTPUsed = &now
	if err := s.save(ctx, rec); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "two-factor enabled",
		logger.UserID(userID.String()),
		logger.Event("enable"),
		logger.Component("twofactor"),
	)
	s.notify(rec, NotificationEnabled, now)

	return &BackupCodesResult{Codes: codes}, nil
}

// Verify is the second login step. The caller is not authenticated yet, so the user
// is looked up by email. Unknown users and users without 2FA get the same error.
func (s *Service) Verify(ctx context.Context, email, token string, isBackupCode bool) (*VerifyResult, error) {
	email = NormalizeEmail(email)

	if err := s.checkAttempts(ctx, email); err != nil {
		return nil, err
	}

	rec, err := s.storage.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.recordFailure(ctx, email)
			return nil, errors.Join(ErrNotConfigured, ErrInvalidToken)
		}
		return nil, errors.Join(ErrFailedToLoadRecord, err)
	}
	if !CanFire(StateOf(rec), EventVerify) {
		s.recordFailure(ctx, email)
		return nil, errors.Join(ErrNotConfigured, ErrInvalidToken)
	}

	now := s.now()
	method := MethodTOTP

	if isBackupCode {
		ok, remaining := totp.VerifyAndConsume(token, rec.BackupCodes)
		if !ok {
			s.recordFailure(ctx, email)
			s.logger.WarnContext(ctx, "invalid backup code",
				logger.UserID(rec.ID.String()),
				logger.Event("verify"),
				logger.Component("twofactor"),
			)
			return nil, ErrInvalidToken
		}
		rec.BackupCodes = remaining
		method = MethodBackupCode
	} else {
		normalized, ok := s.engine.NormalizeToken(token)
		if !ok {
			s.recordFailure(ctx, email)
			return nil, ErrInvalidToken
		}

		var lastUsed time.Time
		if rec.LastTOTPUsed != nil {
			lastUsed = *rec.LastTOTPUsed
		}
		if s.replay.IsBlocked(rec.LastTOTPToken, lastUsed, normalized, now) {
			s.logger.WarnContext(ctx, "replayed two-factor token",
				logger.UserID(rec.ID.String()),
				logger.Event("verify"),
				logger.Component("twofactor"),
			)
			return nil, ErrReplayDetected
		}

		if _, err := s.verifyToken(ctx, rec, normalized, now); err != nil {
			if errors.Is(err, ErrInvalidToken) {
				s.recordFailure(ctx, email)
			}
			return nil, err
		}
		rec.LastTOTPToken = normalized
		rec.LastTOTPUsed = &now
	}

	if err := s.save(ctx, rec); err != nil {
		return nil, err
	}
	s.resetAttempts(ctx, email)

	if method == MethodBackupCode {
		s.logger.InfoContext(ctx, "backup code consumed",
			logger.UserID(rec.ID.String()),
			logger.BackupCodesRemaining(len(rec.BackupCodes)),
			logger.Method(string(MethodBackupCode)),
			logger.Event("verify"),
			logger.Component("twofactor"),
		)
		s.notify(rec, NotificationBackupCodeUsed, now)
	}

	return &VerifyResult{
		UserID:               rec.ID,
		Email:                rec.Email,
		Method:               method,
		BackupCodesRemaining: len(rec.BackupCodes),
	}, nil
}

// Disable turns 2FA off. It requires both the primary password and a current token.
func (s *Service) Disable(ctx context.Context, userID uuid.UUID, token, password string) error {
	rec, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	if _, err := Next(StateOf(rec), EventDisable); err != nil {
		return err
	}

	if s.verifier == nil {
		return ErrInvalidCredential
	}
	if err := s.verifier.VerifyPassword(ctx, userID, password); err != nil {
		if !errors.Is(err, ErrInvalidCredential) {
			return errors.Join(ErrInvalidCredential, err)
		}
		return err
	}

	now := s.now()
	if _, err := s.verifyToken(ctx, rec, token, now); err != nil {
		return err
	}

	notice := rec.Clone()
	rec.reset()
	if err := s.save(ctx, rec); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "two-factor disabled",
		logger.UserID(userID.String()),
		logger.Event("disable"),
		logger.Component("twofactor"),
	)
	notice.BackupCodes = nil
	s.notify(notice, NotificationDisabled, now)

	return nil
}

func (s *Service) Status(ctx context.Context, userID uuid.UUID) (*StatusResult, error) {
	rec, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &StatusResult{
		Enabled:              rec.Enabled,
		SetupDate:            rec.SetupDate,
		BackupCodesRemaining: len(rec.BackupCodes),
	}, nil
}

// RegenerateBackupCodes replaces the whole backup code set after a token check.
func (s *Service) RegenerateBackupCodes(ctx context.Context, userID uuid.UUID, token string) (*BackupCodesResult, error) {
	rec, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, err := Next(StateOf(rec), EventRegenerate); err != nil {
		return nil, err
	}

	now := s.now()
	if _, err := s.verifyToken(ctx, rec, token, now); err != nil {
		return nil, err
	}

	codes, err := totp.GenerateRecoveryCodes(s.codeCount)
	if err != nil {
		return nil, errors.Join(ErrFailedToGenerateBackupCodes, err)
	}

	rec.BackupCodes = totp.HashRecoveryCodes(codes)
	if err := s.save(ctx, rec); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "backup codes regenerated",
		logger.UserID(userID.String()),
		logger.Event("regenerate_backup_codes"),
		logger.Component("twofactor"),
	)
	s.notify(rec, NotificationBackupCodesRefreshed, now)

	return &BackupCodesResult{Codes: codes}, nil
}

func (s *Service) load(ctx context.Context, userID uuid.UUID) (*Record, error) {
	rec, err := s.storage.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Join(ErrFailedToLoadRecord, err)
	}
	return rec, nil
}

func (s *Service) save(ctx context.Context, rec *Record) error {
	if err := s.storage.Update(ctx, rec); err != nil {
		if errors.Is(err, ErrConflict) {
			s.logger.WarnContext(ctx, "concurrent two-factor update rejected",
				logger.UserID(rec.ID.String()),
				logger.Component("twofactor"),
			)
			return ErrConflict
		}
		return errors.Join(ErrFailedToSaveRecord, err)
	}
	return nil
}

// verifyToken decrypts the stored secret and checks token at now. It returns the
// normalized token on success.
func (s *Service) verifyToken(ctx context.Context, rec *Record, token string, now time.Time) (string, error) {
	normalized, ok := s.engine.NormalizeToken(token)
	if !ok {
		return "", ErrInvalidToken
	}

	secret, err := s.codec.Decrypt(rec.Secret)
	if err != nil {
		// Undecryptable secrets mean a wrong process key or corrupted data.
		s.logger.ErrorContext(ctx, "failed to decrypt two-factor secret",
			logger.UserID(rec.ID.String()),
			logger.Error(err),
			logger.Component("twofactor"),
		)
		return "", errors.Join(ErrCryptoFailure, err)
	}

	if !s.engine.VerifyAt(secret, normalized, now) {
		s.logger.DebugContext(ctx, "two-factor token mismatch",
			logger.UserID(rec.ID.String()),
			logger.Component("twofactor"),
		)
		return "", ErrInvalidToken
	}

	return normalized, nil
}

func (s *Service) checkAttempts(ctx context.Context, key string) error {
	if s.limiter == nil {
		return nil
	}
	allowed, err := s.limiter.Allow(ctx, key)
	if err != nil {
		return errors.Join(ErrAttemptLimiterUnavailable, err)
	}
	if !allowed {
		return ErrTooManyAttempts
	}
	return nil
}

func (s *Service) recordFailure(ctx context.Context, key string) {
	if s.limiter == nil {
		return
	}
	if err := s.limiter.RecordFailure(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "failed to record verification failure",
			logger.Error(err),
			logger.Component("twofactor"),
		)
	}
}

func (s *Service) resetAttempts(ctx context.Context, key string) {
	if s.limiter == nil {
		return
	}
	if err := s.limiter.Reset(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "failed to reset verification attempts",
			logger.Error(err),
			logger.Component("twofactor"),
		)
	}
}

// notify delivers a notice in the background so slow mail providers do not hold the request.
func (s *Service) notify(rec *Record, typ NotificationType, at time.Time) {
	if s.notifier == nil {
		return
	}

	n := Notification{
		Type:                 typ,
		UserID:               rec.ID,
		Email:                rec.Email,
		OccurredAt:           at,
		BackupCodesRemaining: len(rec.BackupCodes),
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("notifier panicked",
					logger.UserID(n.UserID.String()),
					slog.Any("panic", r),
					logger.Component("twofactor"),
				)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		if err := s.notifier.Notify(ctx, n); err != nil {
			s.logger.Error("failed to send security notice",
				logger.UserID(n.UserID.String()),
				logger.Event(string(n.Type)),
				logger.Error(err),
				logger.Component("twofactor"),
			)
		}
	}()
}
