package sqlite

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/ericfisherdev/clusterpanel/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Vault = (*SecretRepo)(nil)

// SecretRepo is a Vault backed by the state database, used on hosts without a
// usable OS keychain. Secrets are sealed with AES-256-GCM before write.
type SecretRepo struct {
	db  *DB
	key []byte // nil disables the repo; every call reports ErrVaultUnavailable.
}

// NewSecretRepo creates a SecretRepo keyed by the SHA-256 of passphrase. An
// empty passphrase yields a repo that is always unavailable.
func NewSecretRepo(db *DB, passphrase string) *SecretRepo {
	if passphrase == "" {
		return &SecretRepo{db: db}
	}
	sum := sha256.Sum256([]byte(passphrase))
	return &SecretRepo{db: db, key: sum[:]}
}

// GetSecret returns the decrypted secret stored for (service, account).
func (r *SecretRepo) GetSecret(service, account string) (string, error) {
	if r.key == nil {
		return "", driven.ErrVaultUnavailable
	}

	const query = `SELECT value FROM secrets WHERE service = ? AND account = ?`
	var sealed string
	err := r.db.Reader.QueryRowContext(context.Background(), query, service, account).Scan(&sealed)
	if errors.Is(err, sql.ErrNoRows) {
		return "", driven.ErrSecretNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get secret %s/%s: %w", service, account, err)
	}

	plaintext, err := r.open(sealed)
	if err != nil {
		return "", fmt.Errorf("decrypt secret %s/%s: %w", service, account, err)
	}
	return plaintext, nil
}

// SetSecret stores or replaces the secret for (service, account).
func (r *SecretRepo) SetSecret(service, account, secret string) error {
	if r.key == nil {
		return driven.ErrVaultUnavailable
	}

	sealed, err := r.seal(secret)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO secrets (service, account, value, updated_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(service, account) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`
	if _, err := r.db.Writer.ExecContext(context.Background(), query, service, account, sealed); err != nil {
		return fmt.Errorf("set secret %s/%s: %w", service, account, err)
	}
	return nil
}

// DeleteSecret removes the secret for (service, account).
func (r *SecretRepo) DeleteSecret(service, account string) error {
	if r.key == nil {
		return driven.ErrVaultUnavailable
	}

	const query = `DELETE FROM secrets WHERE service = ? AND account = ?`
	res, err := r.db.Writer.ExecContext(context.Background(), query, service, account)
	if err != nil {
		return fmt.Errorf("delete secret %s/%s: %w", service, account, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete secret %s/%s: %w", service, account, err)
	}
	if n == 0 {
		return driven.ErrSecretNotFound
	}
	return nil
}

// seal returns base64(nonce || ciphertext || tag).
func (r *SecretRepo) seal(plaintext string) (string, error) {
	gcm, err := r.aead()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}
	return base64.StdEncoding.EncodeToString(gcm.Seal(nonce, nonce, []byte(plaintext), nil)), nil
}

func (r *SecretRepo) open(encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("base64 decode: %w", err)
	}

	gcm, err := r.aead()
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", errors.New("ciphertext too short")
	}

	plaintext, err := gcm.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("gcm.Open: %w", err)
	}
	return string(plaintext), nil
}

func (r *SecretRepo) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(r.key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return gcm, nil
}
