// Package qrcode renders QR codes as PNG bytes or as data URIs for JSON APIs.
//
// It wraps github.com/skip2/go-qrcode with input validation and a default size
// that suits authenticator app enrollment screens. The two-factor service uses
// GenerateBase64Image to turn otpauth:// URIs into an image clients can show
// without further processing.
//
// # Usage
//
//	png, err := qrcode.Generate(uri, 256, qrcode.WithRecoveryLevel(skipqrcode.High))
//
//	src, err := qrcode.GenerateBase64Image(uri, qrcode.DefaultSize)
//	// src == "data:image/png;base64,..."
//
// # Error Handling
//
// ErrEmptyContent is returned for blank input; ErrFailedToGenerate wraps
// encoder failures such as content too long for a QR code.
package qrcode
