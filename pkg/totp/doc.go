// Package totp provides the cryptographic building blocks of two-factor authentication:
// at-rest encryption of TOTP secrets, RFC 6238 code generation and verification,
// single-use recovery codes and a narrow replay guard.
//
// Every type in this package is free of mutable state. Persisting secrets, recovery
// code hashes and the last accepted token is the caller's job (see svc/twofactor).
//
// # Architecture
//
//   - codec: SecretCodec in codec.go derives an AES-256 key from the process key
//     with scrypt and a fixed salt, then seals secrets with AES-256-GCM. Blobs have
//     the form hex(nonce):hex(ciphertext) and a fresh nonce is used for every call.
//
//   - engine: Engine in otp.go generates Base32 secrets and otpauth:// enrollment
//     URIs and verifies codes against the current step and DefaultSkew steps on either
//     side. Malformed input makes verification fail rather than error.
//
//   - recovery: helpers in recovery.go create 8-character uppercase codes, hash them
//     with SHA-256 and consume a matching hash exactly once (VerifyAndConsume).
//
//   - replay: ReplayGuard in replay.go rejects the identical, most recently accepted
//     token for DefaultReplayCooldown.
//
// # Usage
//
//	cfg := totp.Config{EncryptionKey: os.Getenv("TOTP_SECRET_KEY")}
//	codec, err := totp.NewSecretCodec(cfg)
//	if err != nil {
//	    return err
//	}
//	engine := totp.NewEngine(totp.WithIssuer("Acme"))
//
//	enrollment, _ := engine.GenerateSecret("alice@example.com")
//	blob, _ := codec.Encrypt(enrollment.Secret)
//	// store blob, show enrollment.URI as a QR code
//
//	secret, err := codec.Decrypt(blob)
//	if errors.Is(err, totp.ErrCryptoFailure) {
//	    // wrong process key or corrupted record
//	}
//	ok := engine.Verify(secret, "123456")
//
// # Error Handling
//
// Errors are package level sentinels combined with errors.Join. Use errors.Is with
// ErrCryptoFailure, ErrInvalidSecret, ErrInvalidRecoveryCodeCount and friends.
//
// # See Also
//
//   - RFC 4226: HMAC-Based One-Time Password (HOTP) Algorithm
//   - RFC 6238: Time-Based One-Time Password (TOTP) Algorithm
package totp
