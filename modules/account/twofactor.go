package account

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/eventplanner/twofactor/handler"
	"github.com/eventplanner/twofactor/pkg/binder"
	"github.com/eventplanner/twofactor/pkg/jwt"
	"github.com/eventplanner/twofactor/svc/twofactor"
)

// TwoFactorOperations is the part of twofactor.Service the HTTP layer calls.
type TwoFactorOperations interface {
	Setup(ctx context.Context, userID uuid.UUID) (*twofactor.SetupResult, error)
	Enable(ctx context.Context, userID uuid.UUID, token string) (*twofactor.BackupCodesResult, error)
	Verify(ctx context.Context, email, token string, isBackupCode bool) (*twofactor.VerifyResult, error)
	Disable(ctx context.Context, userID uuid.UUID, token, password string) error
	Status(ctx context.Context, userID uuid.UUID) (*twofactor.StatusResult, error)
	RegenerateBackupCodes(ctx context.Context, userID uuid.UUID, token string) (*twofactor.BackupCodesResult, error)
}

// SessionIssuer mints the session token handed out after a successful second step.
type SessionIssuer interface {
	Issue(subject, email string) (string, time.Time, error)
}

type TwoFactorService struct {
	svc          TwoFactorOperations
	sessions     SessionIssuer
	authenticate func(http.Handler) http.Handler
	errorHandler handler.ErrorHandler[handler.Context]
}

// NewTwoFactorService wires the /2fa routes. authenticate guards every route except
// verify and must store jwt.SessionClaims in the request context (jwt.Middleware does).
func NewTwoFactorService(
	svc TwoFactorOperations,
	sessions SessionIssuer,
	authenticate func(http.Handler) http.Handler,
	errorHandler handler.ErrorHandler[handler.Context],
) *TwoFactorService {
	return &TwoFactorService{
		svc:          svc,
		sessions:     sessions,
		authenticate: authenticate,
		errorHandler: errorHandler,
	}
}

func (s *TwoFactorService) Handle() http.Handler {
	r := chi.NewRouter()

	// Second login step: the caller has no session yet.
	r.Post("/verify", handler.Wrap(s.verify,
		handler.WithBinders[handler.Context, VerifyRequest](binder.JSON()),
		handler.WithErrorHandler[handler.Context, VerifyRequest](s.errorHandler),
	))

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)

		r.Post("/setup", handler.Wrap(s.setup,
			handler.WithBinders[handler.Context, SetupRequest](binder.JSON(binder.Optional())),
			handler.WithErrorHandler[handler.Context, SetupRequest](s.errorHandler),
		))
		r.Post("/enable", handler.Wrap(s.enable,
			handler.WithBinders[handler.Context, TokenRequest](binder.JSON()),
			handler.WithErrorHandler[handler.Context, TokenRequest](s.errorHandler),
		))
		r.Post("/disable", handler.Wrap(s.disable,
			handler.WithBinders[handler.Context, DisableRequest](binder.JSON()),
			handler.WithErrorHandler[handler.Context, DisableRequest](s.errorHandler),
		))
		r.Get("/status", handler.Wrap(s.status,
			handler.WithErrorHandler[handler.Context, struct{}](s.errorHandler),
		))
		r.Post("/backup-codes", handler.Wrap(s.regenerateBackupCodes,
			handler.WithBinders[handler.Context, TokenRequest](binder.JSON()),
			handler.WithErrorHandler[handler.Context, TokenRequest](s.errorHandler),
		))
	})

	return r
}

type SetupResponse struct {
	OTPAuthURI     string `json:"otpauth_uri"`
	ManualEntryKey string `json:"manual_entry_key"`
	QRCode         string `json:"qr_code"`
}

type BackupCodesResponse struct {
	BackupCodes []string `json:"backup_codes"`
}

type VerifyResponse struct {
	Token                string    `json:"token"`
	ExpiresAt            time.Time `json:"expires_at"`
	UserID               string    `json:"user_id"`
	Method               string    `json:"method"`
	BackupCodesRemaining int       `json:"backup_codes_remaining"`
}

type DisableResponse struct {
	Disabled bool `json:"disabled"`
}

type StatusResponse struct {
	Enabled              bool       `json:"enabled"`
	SetupDate            *time.Time `json:"setup_date"`
	BackupCodesRemaining int        `json:"backup_codes_remaining"`
}

func (s *TwoFactorService) setup(ctx handler.Context, _ SetupRequest) handler.Response {
	userID, err := currentUserID(ctx)
	if err != nil {
		return s.fail(ctx, err)
	}

	res, err := s.svc.Setup(ctx, userID)
	if err != nil {
		return s.fail(ctx, err)
	}

	return handler.JSON(SetupResponse{
		OTPAuthURI:     res.OTPAuthURI,
		ManualEntryKey: res.ManualEntryKey,
		QRCode:         res.QRCode,
	})
}

func (s *TwoFactorService) enable(ctx handler.Context, req TokenRequest) handler.Response {
	userID, err := currentUserID(ctx)
	if err != nil {
		return s.fail(ctx, err)
	}

	res, err := s.svc.Enable(ctx, userID, req.Token)
	if err != nil {
		return s.fail(ctx, err)
	}

	return handler.JSON(BackupCodesResponse{BackupCodes: res.Codes})
}

func (s *TwoFactorService) verify(ctx handler.Context, req VerifyRequest) handler.Response {
	res, err := s.svc.Verify(ctx, req.Email, req.Token, req.IsBackupCode)
	if err != nil {
		return s.fail(ctx, err)
	}

	token, expiresAt, err := s.sessions.Issue(res.UserID.String(), res.Email)
	if err != nil {
		return s.fail(ctx, err)
	}

	return handler.JSON(VerifyResponse{
		Token:                token,
		ExpiresAt:            expiresAt,
		UserID:               res.UserID.String(),
		Method:               string(res.Method),
		BackupCodesRemaining: res.BackupCodesRemaining,
	})
}

func (s *TwoFactorService) disable(ctx handler.Context, req DisableRequest) handler.Response {
	userID, err := currentUserID(ctx)
	if err != nil {
		return s.fail(ctx, err)
	}

	if err := s.svc.Disable(ctx, userID, req.Token, req.Password); err != nil {
		return s.fail(ctx, err)
	}

	return handler.JSON(DisableResponse{Disabled: true})
}

func (s *TwoFactorService) status(ctx handler.Context, _ struct{}) handler.Response {
	userID, err := currentUserID(ctx)
	if err != nil {
		return s.fail(ctx, err)
	}

	res, err := s.svc.Status(ctx, userID)
	if err != nil {
		return s.fail(ctx, err)
	}

	return handler.JSON(StatusResponse{
		Enabled:              res.Enabled,
		SetupDate:            res.SetupDate,
		BackupCodesRemaining: res.BackupCodesRemaining,
	})
}

func (s *TwoFactorService) regenerateBackupCodes(ctx handler.Context, req TokenRequest) handler.Response {
	userID, err := currentUserID(ctx)
	if err != nil {
		return s.fail(ctx, err)
	}

	res, err := s.svc.RegenerateBackupCodes(ctx, userID, req.Token)
	if err != nil {
		return s.fail(ctx, err)
	}

	return handler.JSON(BackupCodesResponse{BackupCodes: res.Codes})
}

// fail routes service errors through the shared error handler so they are logged
// and mapped the same way binding errors are.
func (s *TwoFactorService) fail(ctx handler.Context, err error) handler.Response {
	return errorResponse{ctx: ctx, err: err, handle: s.errorHandler}
}

type errorResponse struct {
	ctx    handler.Context
	err    error
	handle handler.ErrorHandler[handler.Context]
}

func (e errorResponse) Render(_ http.ResponseWriter, _ *http.Request) error {
	e.handle(e.ctx, e.err)
	return nil
}

func currentUserID(ctx context.Context) (uuid.UUID, error) {
	claims, ok := jwt.GetClaims(ctx)
	if !ok || claims == nil {
		return uuid.Nil, handler.ErrUnauthorized
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, handler.ErrUnauthorized
	}
	return id, nil
}
