package pgstore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/eventplanner/twofactor/pkg/pg"
	"github.com/eventplanner/twofactor/svc/twofactor"
)

// DBTX is the subset of *pgxpool.Pool, *pgx.Conn and pgx.Tx the store needs.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store keeps two-factor records in the users table.
// It implements twofactor.Storage and twofactor.CredentialVerifier.
type Store struct {
	db  DBTX
	now func() time.Time
}

func New(db DBTX) *Store {
	return &Store{db: db, now: time.Now}
}

const selectColumns = `id, email, two_factor_secret, two_factor_enabled, two_factor_backup_codes,
	two_factor_setup_date, last_totp_token, last_totp_used, version`

const (
	queryGetByID    = `SELECT ` + selectColumns + ` FROM users WHERE id = $1`
	queryGetByEmail = `SELECT ` + selectColumns + ` FROM users WHERE email = $1`
	queryExists     = `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`
	queryPassword   = `SELECT password_hash FROM users WHERE id = $1`

	queryInsert = `INSERT INTO users (id, email, password_hash) VALUES ($1, $2, $3)`

	queryUpdate = `UPDATE users SET
	two_factor_secret = $3,
	two_factor_enabled = $4,
	two_factor_backup_codes = $5,
	two_factor_setup_date = $6,
	last_totp_token = $7,
	last_totp_used = $8,
	version = version + 1,
	updated_at = $9
WHERE id = $1 AND version = $2`
)

// Create inserts a user with an unconfigured two-factor state.
func (s *Store) Create(ctx context.Context, rec *twofactor.Record, passwordHash []byte) error {
	email := twofactor.NormalizeEmail(rec.Email)
	if _, err := s.db.Exec(ctx, queryInsert, rec.ID, email, string(passwordHash)); err != nil {
		if pg.IsDuplicateKeyError(err) {
			return errors.Join(twofactor.ErrEmailTaken, err)
		}
		return err
	}
	rec.Email = email
	rec.Version = 0
	return nil
}

func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*twofactor.Record, error) {
	return s.scanRecord(s.db.QueryRow(ctx, queryGetByID, id))
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*twofactor.Record, error) {
	return s.scanRecord(s.db.QueryRow(ctx, queryGetByEmail, twofactor.NormalizeEmail(email)))
}

// Update writes the two-factor columns when the stored version still matches rec.Version.
func (s *Store) Update(ctx context.Context, rec *twofactor.Record) error {
	backupCodes := rec.BackupCodes
	if backupCodes == nil {
		backupCodes = []string{}
	}

	tag, err := s.db.Exec(ctx, queryUpdate,
		rec.ID,
		rec.Version,
		rec.Secret,
		rec.Enabled,
		backupCodes,
		rec.SetupDate,
		rec.LastTOTPToken,
		rec.LastTOTPUsed,
		s.now().UTC(),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := s.db.QueryRow(ctx, queryExists, rec.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return twofactor.ErrNotFound
		}
		return twofactor.ErrConflict
	}

	rec.Version++
	return nil
}

// VerifyPassword compares password with the stored bcrypt hash.
func (s *Store) VerifyPassword(ctx context.Context, userID uuid.UUID, password string) error {
	var hash string
	if err := s.db.QueryRow(ctx, queryPassword, userID).Scan(&hash); err != nil {
		if pg.IsNotFoundError(err) {
			return twofactor.ErrInvalidCredential
		}
		return err
	}
	return twofactor.ComparePassword([]byte(hash), password)
}

func (s *Store) scanRecord(row pgx.Row) (*twofactor.Record, error) {
	var rec twofactor.Record
	err := row.Scan(
		&rec.ID,
		&rec.Email,
		&rec.Secret,
		&rec.Enabled,
		&rec.BackupCodes,
		&rec.SetupDate,
		&rec.LastTOTPToken,
		&rec.LastTOTPUsed,
		&rec.Version,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, twofactor.ErrNotFound
		}
		return nil, err
	}
	if len(rec.BackupCodes) == 0 {
		rec.BackupCodes = nil
	}
	return &rec, nil
}
