package totp

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"io"
	"strings"

	"golang.org/x/crypto/scrypt"
)

const (
	AESKeySize     = 32 // Required key size for AES-256 (256 bits / 8 = 32 bytes)
	DefaultKDFSalt = "salt"

	// scrypt cost parameters; N=2^14, r=8, p=1 are the interactive-login values from the scrypt paper.
	scryptN = 1 << 14
	scryptR = 8
	scryptP = 1

	blobSeparator = ":"
)

// SecretCodec encrypts TOTP secrets for storage at rest.
// The AES-256-GCM key is derived once from the process key; the codec is immutable
// afterwards and safe for concurrent use.
type SecretCodec struct {
	aead cipher.AEAD
}

// NewSecretCodec derives the encryption key from cfg.EncryptionKey and cfg.KDFSalt
// and returns a ready to use codec.
func NewSecretCodec(cfg Config) (*SecretCodec, error) {
	if cfg.EncryptionKey == "" {
		return nil, ErrEncryptionKeyNotSet
	}

	salt := cfg.KDFSalt
	if salt == "" {
		salt = DefaultKDFSalt
	}

	key, err := DeriveKey(cfg.EncryptionKey, salt)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Join(ErrFailedToInitCipher, err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Join(ErrFailedToInitCipher, err)
	}

	return &SecretCodec{aead: aead}, nil
}

// DeriveKey stretches a passphrase into an AES-256 key with scrypt.
// The derivation is deterministic for a given passphrase and salt.
func DeriveKey(passphrase, salt string) ([]byte, error) {
	key, err := scrypt.Key([]byte(passphrase), []byte(salt), scryptN, scryptR, scryptP, AESKeySize)
	if err != nil {
		return nil, errors.Join(ErrFailedToDeriveKey, err)
	}
	return key, nil
}

// Encrypt seals the plaintext secret with a fresh random nonce.
// The result has the form hex(nonce):hex(ciphertext), so two calls with the same
// input never produce the same blob.
func (c *SecretCodec) Encrypt(plainText string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", errors.Join(ErrFailedToEncryptSecret, err)
	}

	cipherText := c.aead.Seal(nil, nonce, []byte(plainText), nil)
	return hex.EncodeToString(nonce) + blobSeparator + hex.EncodeToString(cipherText), nil
}

// Decrypt opens a blob produced by Encrypt.
// Every failure, including a blob sealed under a different key, is reported as ErrCryptoFailure.
func (c *SecretCodec) Decrypt(blob string) (string, error) {
	nonceHex, cipherHex, ok := strings.Cut(blob, blobSeparator)
	if !ok {
		return "", errors.Join(ErrCryptoFailure, ErrMalformedSecretBlob)
	}

	nonce, err := hex.DecodeString(nonceHex)
	if err != nil || len(nonce) != c.aead.NonceSize() {
		return "", errors.Join(ErrCryptoFailure, ErrMalformedSecretBlob)
	}

	cipherText, err := hex.DecodeString(cipherHex)
	if err != nil {
		return "", errors.Join(ErrCryptoFailure, ErrMalformedSecretBlob)
	}
	if len(cipherText) < c.aead.Overhead() {
		return "", errors.Join(ErrCryptoFailure, ErrInvalidCipherTooShort)
	}

	plainText, err := c.aead.Open(nil, nonce, cipherText, nil)
	if err != nil {
		return "", errors.Join(ErrCryptoFailure, err)
	}

	return string(plainText), nil
}

// GenerateProcessKey returns a random base64 string suitable for TOTP_SECRET_KEY.
func GenerateProcessKey() (string, error) {
	key := make([]byte, AESKeySize)
	if _, err := rand.Read(key); err != nil {
		return "", errors.Join(ErrFailedToGenerateProcessKey, err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}
