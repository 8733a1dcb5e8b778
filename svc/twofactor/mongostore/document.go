package mongostore

import (
	"time"

	"github.com/google/uuid"

	"github.com/eventplanner/twofactor/svc/twofactor"
)

// userDocument mirrors the users collection. Only the two-factor fields, the
// email and the password hash are read; other fields written by the account
// service are preserved because updates use $set.
type userDocument struct {
	ID           string `bson:"_id"`
	Email        string `bson:"email"`
	PasswordHash string `bson:"password_hash,omitempty"`

	TwoFactorSecret      string     `bson:"two_factor_secret,omitempty"`
	TwoFactorEnabled     bool       `bson:"two_factor_enabled"`
	TwoFactorBackupCodes []string   `bson:"two_factor_backup_codes,omitempty"`
	TwoFactorSetupDate   *time.Time `bson:"two_factor_setup_date,omitempty"`
	LastTOTPToken        string     `bson:"last_totp_token,omitempty"`
	LastTOTPUsed         *time.Time `bson:"last_totp_used,omitempty"`

	Version int64 `bson:"version"`
}

func toRecord(doc userDocument) (*twofactor.Record, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, err
	}
	return &twofactor.Record{
		ID:            id,
		Email:         doc.Email,
		Secret:        doc.TwoFactorSecret,
		Enabled:       doc.TwoFactorEnabled,
		BackupCodes:   doc.TwoFactorBackupCodes,
		SetupDate:     utc(doc.TwoFactorSetupDate),
		LastTOTPToken: doc.LastTOTPToken,
		LastTOTPUsed:  utc(doc.LastTOTPUsed),
		Version:       doc.Version,
	}, nil
}

func toDocument(rec *twofactor.Record, passwordHash []byte) userDocument {
	return userDocument{
		ID:                   rec.ID.String(),
		Email:                twofactor.NormalizeEmail(rec.Email),
		PasswordHash:         string(passwordHash),
		TwoFactorSecret:      rec.Secret,
		TwoFactorEnabled:     rec.Enabled,
		TwoFactorBackupCodes: rec.BackupCodes,
		TwoFactorSetupDate:   rec.SetupDate,
		LastTOTPToken:        rec.LastTOTPToken,
		LastTOTPUsed:         rec.LastTOTPUsed,
		Version:              rec.Version,
	}
}

// utc drops the local zone the driver attaches when decoding BSON datetimes.
func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
