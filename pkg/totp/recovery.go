package totp

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const (
	DefaultRecoveryCodeCount = 10

	// 4 random bytes render as 8 uppercase hex characters (32 bits of entropy).
	recoveryCodeBytes = 4
)

// GenerateRecoveryCodes creates count independent single-use backup codes.
// The cleartext is returned to the caller exactly once; only hashes are stored.
func GenerateRecoveryCodes(count int) ([]string, error) {
	if count < 1 {
		return nil, ErrInvalidRecoveryCodeCount
	}

	codes := make([]string, count)
	for i := range count {
		codeBytes := make([]byte, recoveryCodeBytes)
		if _, err := rand.Read(codeBytes); err != nil {
			return nil, errors.Join(ErrFailedToGenerateRecoveryCode, err)
		}
		codes[i] = fmt.Sprintf("%X", codeBytes)
	}
	return codes, nil
}

// NormalizeRecoveryCode trims and uppercases user input before hashing.
func NormalizeRecoveryCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// HashRecoveryCode creates a SHA-256 hash for secure storage of recovery codes.
func HashRecoveryCode(code string) string {
	hash := sha256.Sum256([]byte(NormalizeRecoveryCode(code)))
	return hex.EncodeToString(hash[:])
}

// HashRecoveryCodes hashes every code in order.
func HashRecoveryCodes(codes []string) []string {
	hashed := make([]string, len(codes))
	for i, code := range codes {
		hashed[i] = HashRecoveryCode(code)
	}
	return hashed
}

// VerifyRecoveryCode performs constant-time comparison to prevent timing attacks.
func VerifyRecoveryCode(code, hashedCode string) bool {
	computedHash := HashRecoveryCode(code)
	return subtle.ConstantTimeCompare([]byte(computedHash), []byte(hashedCode)) == 1
}

// VerifyAndConsume checks code against the stored hashes. On a match it returns the
// set with exactly that one hash removed; otherwise the original set is returned.
// The input slice is never modified.
func VerifyAndConsume(code string, hashedCodes []string) (bool, []string) {
	if strings.TrimSpace(code) == "" {
		return false, hashedCodes
	}

	computed := []byte(HashRecoveryCode(code))

	// Scan every entry so the timing does not reveal the match position.
	match := -1
	for i, h := range hashedCodes {
		if subtle.ConstantTimeCompare(computed, []byte(h)) == 1 && match < 0 {
			match = i
		}
	}
	if match < 0 {
		return false, hashedCodes
	}

	remaining := make([]string, 0, len(hashedCodes)-1)
	remaining = append(remaining, hashedCodes[:match]...)
	remaining = append(remaining, hashedCodes[match+1:]...)
	return true, remaining
}
