package totp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base32"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultDigits     = 6      // Standard 6-digit TOTP codes
	DefaultPeriod     = 30     // 30-second validity window (RFC 6238 standard)
	DefaultAlgorithm  = "SHA1" // HMAC-SHA1 algorithm (RFC 6238 standard)
	DefaultSkew       = 1      // Steps accepted on each side of the current one
	DefaultSecretSize = 20     // 160-bit secret (RFC 4226 recommendation)
	DefaultIssuer     = "EventPlanner"

	maxDigits = 8
)

var (
	// ValidateSecretKeyRegex ensures Base32 format: uppercase A-Z, digits 2-7, optional padding
	ValidateSecretKeyRegex = regexp.MustCompile("^[A-Z2-7]+=*$")

	noPadding = base32.StdEncoding.WithPadding(base32.NoPadding)
)

// TOTPParams contains the parameters for TOTP URI generation
type TOTPParams struct {
	Secret      string // Base32-encoded TOTP secret key (required)
	AccountName string // User identifier like email (required)
	Issuer      string // Service name displayed in authenticator apps (required)
	Algorithm   string // HMAC algorithm (optional, defaults to SHA1)
	Digits      int    // Number of digits in generated codes (optional, defaults to 6)
	Period      int    // Code validity period in seconds (optional, defaults to 30)
}

// Validate ensures all required TOTP parameters are present and valid
func (p TOTPParams) Validate() error {
	if p.Secret == "" {
		return ErrMissingSecret
	}
	if !ValidateSecretKeyRegex.MatchString(p.Secret) {
		return ErrInvalidSecret
	}
	if p.AccountName == "" {
		return ErrMissingAccountName
	}
	if p.Issuer == "" {
		return ErrMissingIssuer
	}
	return nil
}

// GetDefaults returns a copy with RFC 6238 standard defaults applied to zero-valued fields
func (p TOTPParams) GetDefaults() TOTPParams {
	if p.Algorithm == "" {
		p.Algorithm = DefaultAlgorithm
	}
	if p.Digits == 0 {
		p.Digits = DefaultDigits
	}
	if p.Period == 0 {
		p.Period = DefaultPeriod
	}
	return p
}

// GetTOTPURI creates a properly encoded TOTP URI for use with authenticator apps.
// The URI format follows the Key Uri Format specification:
// https://github.com/google/google-authenticator/wiki/Key-Uri-Format
func GetTOTPURI(params TOTPParams) (string, error) {
	if err := params.Validate(); err != nil {
		return "", err
	}

	params = params.GetDefaults()

	label := fmt.Sprintf("%s:%s",
		url.PathEscape(params.Issuer),
		url.PathEscape(params.AccountName),
	)

	query := url.Values{}
	query.Set("secret", params.Secret)
	query.Set("issuer", params.Issuer)
	query.Set("algorithm", params.Algorithm)
	query.Set("digits", strconv.Itoa(params.Digits))
	query.Set("period", strconv.Itoa(params.Period))

	return fmt.Sprintf("otpauth://totp/%s?%s", label, query.Encode()), nil
}

// Enrollment is the material shown to a user once while setting up an authenticator app.
type Enrollment struct {
	Secret string // Base32 secret, also the manual entry key
	URI    string // otpauth:// URI for QR rendering
}

// Engine generates and verifies time-based one-time passwords.
// It holds configuration only and has no mutable state.
type Engine struct {
	issuer     string
	digits     int
	period     int64
	skew       int
	secretSize int
	now        func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithIssuer sets the issuer embedded in enrollment URIs.
func WithIssuer(issuer string) EngineOption {
	return func(e *Engine) {
		if issuer != "" {
			e.issuer = issuer
		}
	}
}

// WithDigits sets the code width. Values outside 1..8 are ignored.
func WithDigits(digits int) EngineOption {
	return func(e *Engine) {
		if digits > 0 && digits <= maxDigits {
			e.digits = digits
		}
	}
}

// WithPeriod sets the time step. Sub-second periods are ignored.
func WithPeriod(period time.Duration) EngineOption {
	return func(e *Engine) {
		if s := int64(period / time.Second); s > 0 {
			e.period = s
		}
	}
}

// WithSkew sets how many steps before and after the current one are accepted.
func WithSkew(steps int) EngineOption {
	return func(e *Engine) {
		if steps >= 0 {
			e.skew = steps
		}
	}
}

// WithSecretSize sets the number of random bytes in generated secrets.
// Sizes below the 160-bit minimum are ignored.
func WithSecretSize(size int) EngineOption {
	return func(e *Engine) {
		if size >= DefaultSecretSize {
			e.secretSize = size
		}
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine returns an Engine with RFC 6238 defaults: 6 digits, 30s steps, ±1 step skew.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		issuer:     DefaultIssuer,
		digits:     DefaultDigits,
		period:     DefaultPeriod,
		skew:       DefaultSkew,
		secretSize: DefaultSecretSize,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Now returns the engine clock reading.
func (e *Engine) Now() time.Time {
	return e.now()
}

// GenerateSecret creates a fresh random secret and its enrollment URI for accountName.
func (e *Engine) GenerateSecret(accountName string) (Enrollment, error) {
	raw := make([]byte, e.secretSize)
	if _, err := rand.Read(raw); err != nil {
		return Enrollment{}, errors.Join(ErrFailedToGenerateSecretKey, err)
	}
	secret := noPadding.EncodeToString(raw)

	uri, err := GetTOTPURI(TOTPParams{
		Secret:      secret,
		AccountName: accountName,
		Issuer:      e.issuer,
		Digits:      e.digits,
		Period:      int(e.period),
	})
	if err != nil {
		return Enrollment{}, err
	}

	return Enrollment{Secret: secret, URI: uri}, nil
}

// Verify reports whether token is valid for secret at the current time.
func (e *Engine) Verify(secret, token string) bool {
	return e.VerifyAt(secret, token, e.now())
}

// VerifyAt reports whether token matches the code of the step containing t or any of
// the skew steps around it. Malformed secrets and tokens yield false.
func (e *Engine) VerifyAt(secret, token string, t time.Time) bool {
	key, err := decodeSecret(secret)
	if err != nil {
		return false
	}

	token, ok := e.NormalizeToken(token)
	if !ok {
		return false
	}

	counter := t.Unix() / e.period
	for i := -e.skew; i <= e.skew; i++ {
		step := counter + int64(i)
		if step < 0 {
			continue
		}
		code := formatCode(GenerateHOTP(key, step, e.digits), e.digits)
		if subtle.ConstantTimeCompare([]byte(code), []byte(token)) == 1 {
			return true
		}
	}

	return false
}

// Generate returns the code for the step containing t.
func (e *Engine) Generate(secret string, t time.Time) (string, error) {
	key, err := decodeSecret(secret)
	if err != nil {
		return "", errors.Join(ErrFailedToGenerateTOTP, err)
	}
	return formatCode(GenerateHOTP(key, t.Unix()/e.period, e.digits), e.digits), nil
}

// NormalizeToken trims whitespace and left-pads a numeric token to the configured width.
// It returns false for anything that is not 1..digits decimal digits.
func (e *Engine) NormalizeToken(token string) (string, bool) {
	token = strings.TrimSpace(token)
	if token == "" || len(token) > e.digits {
		return "", false
	}
	for _, r := range token {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	if pad := e.digits - len(token); pad > 0 {
		token = strings.Repeat("0", pad) + token
	}
	return token, true
}

// GenerateHOTP implements RFC 4226 HMAC-based One-Time Password algorithm.
// The algorithm converts a counter value into a numeric code using HMAC-SHA1.
func GenerateHOTP(key []byte, counter int64, digits int) int {
	var counterBytes [8]byte
	binary.BigEndian.PutUint64(counterBytes[:], uint64(counter))

	mac := hmac.New(sha1.New, key)
	mac.Write(counterBytes[:])
	hash := mac.Sum(nil)

	// Dynamic truncation: last 4 bits select the offset, MSB cleared
	offset := hash[len(hash)-1] & 0x0f
	code := (int(hash[offset]&0x7f) << 24) |
		(int(hash[offset+1]) << 16) |
		(int(hash[offset+2]) << 8) |
		int(hash[offset+3])

	return code % int(math.Pow10(digits))
}

func formatCode(code, digits int) string {
	return fmt.Sprintf("%0*d", digits, code)
}

func decodeSecret(secret string) ([]byte, error) {
	secret = strings.ToUpper(strings.TrimSpace(secret))
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if !ValidateSecretKeyRegex.MatchString(secret) {
		return nil, ErrInvalidSecret
	}
	key, err := noPadding.DecodeString(strings.TrimRight(secret, "="))
	if err != nil {
		return nil, errors.Join(ErrInvalidSecret, err)
	}
	return key, nil
}
