package twofactor

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Record is the two-factor part of a user document.
// Secret holds the encrypted blob only; BackupCodes holds SHA-256 hex digests.
type Record struct {
	ID            uuid.UUID
	Email         string
	Secret        string
	Enabled       bool
	BackupCodes   []string
	SetupDate     *time.Time
	LastTOTPToken string
	LastTOTPUsed  *time.Time

	// Version is owned by the storage adapter and checked on every update.
	Version int64
}

// Clone returns a deep copy so callers can mutate it without touching shared state.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	c.BackupCodes = slices.Clone(r.BackupCodes)
	if r.SetupDate != nil {
		t := *r.SetupDate
		c.SetupDate = &t
	}
	if r.LastTOTPUsed != nil {
		t := *r.LastTOTPUsed
		c.LastTOTPUsed = &t
	}
	return &c
}

// reset clears every two-factor field, returning the record to the unconfigured state.
func (r *Record) reset() {
	r.Secret = ""
	r.Enabled = false
	r.BackupCodes = nil
	r.SetupDate = nil
	r.LastTOTPToken = ""
	r.LastTOTPUsed = nil
}

// Method identifies which second factor satisfied a verification.
type Method string

const (
	MethodTOTP       Method = "totp"
	MethodBackupCode Method = "backup_code"
)

// SetupResult is shown once on the enrollment screen.
type SetupResult struct {
	OTPAuthURI     string
	ManualEntryKey string
	QRCode         string // data:image/png;base64 URL, empty when QR rendering is disabled
}

// BackupCodesResult carries cleartext backup codes. They are never retrievable again.
type BackupCodesResult struct {
	Codes []string
}

// VerifyResult signals that the second factor was accepted and a session may be issued.
type VerifyResult struct {
	UserID               uuid.UUID
	Email                string
	Method               Method
	BackupCodesRemaining int
}

type StatusResult struct {
	Enabled              bool
	SetupDate            *time.Time
	BackupCodesRemaining int
}

// NotificationType names a security-relevant change worth telling the account owner about.
type NotificationType string

const (
	NotificationEnabled              NotificationType = "two_factor_enabled"
	NotificationDisabled             NotificationType = "two_factor_disabled"
	NotificationBackupCodeUsed       NotificationType = "backup_code_used"
	NotificationBackupCodesRefreshed NotificationType = "backup_codes_regenerated"
)

type Notification struct {
	Type                 NotificationType
	UserID               uuid.UUID
	Email                string
	OccurredAt           time.Time
	BackupCodesRemaining int
}
