package qrcode

import (
	"encoding/base64"
	"errors"
	"strings"

	skipqrcode "github.com/skip2/go-qrcode"
)

var (
	// ErrEmptyContent is returned when content string is empty or only whitespace
	ErrEmptyContent = errors.New("content cannot be empty")
	// ErrFailedToGenerate is returned when the QR code generation fails.
	ErrFailedToGenerate = errors.New("failed to generate QR code")
)

// DefaultSize is the edge length in pixels used when no size is specified.
const DefaultSize = 300

const dataURIPrefix = "data:image/png;base64,"

// Option tunes a single encoding.
type Option func(*options)

type options struct {
	level    skipqrcode.RecoveryLevel
	noBorder bool
}

// WithRecoveryLevel sets the error correction level (default Medium).
func WithRecoveryLevel(l skipqrcode.RecoveryLevel) Option {
	return func(o *options) { o.level = l }
}

// WithoutBorder drops the quiet zone around the code.
func WithoutBorder() Option {
	return func(o *options) { o.noBorder = true }
}

// Generate creates a PNG QR code for content. Non-positive sizes use DefaultSize.
func Generate(content string, size int, opts ...Option) ([]byte, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	if size <= 0 {
		size = DefaultSize
	}

	o := options{level: skipqrcode.Medium}
	for _, opt := range opts {
		opt(&o)
	}

	q, err := skipqrcode.New(content, o.level)
	if err != nil {
		return nil, errors.Join(ErrFailedToGenerate, err)
	}
	q.DisableBorder = o.noBorder

	png, err := q.PNG(size)
	if err != nil {
		return nil, errors.Join(ErrFailedToGenerate, err)
	}
	return png, nil
}

// GenerateBase64Image returns the QR code as a data URI that can be used directly
// as an <img> source, e.g. for an otpauth:// enrollment link:
//
//	src, err := qrcode.GenerateBase64Image(enrollment.URI, qrcode.DefaultSize)
//
// Its signature matches twofactor.QRCodeGenerator.
func GenerateBase64Image(content string, size int) (string, error) {
	png, err := Generate(content, size)
	if err != nil {
		return "", err
	}
	return dataURIPrefix + base64.StdEncoding.EncodeToString(png), nil
}
