// Package keyring adapts the OS credential vault (macOS Keychain, Windows
// Credential Manager, Secret Service on Linux) to the Vault port.
package keyring

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	gokeyring "github.com/zalando/go-keyring"

	"github.com/ericfisherdev/clusterpanel/internal/domain/port/driven"
)

// DefaultProbeTimeout bounds the startup availability probe. Secret Service
// implementations can block indefinitely when no session bus is present.
const DefaultProbeTimeout = 5 * time.Second

const (
	probeService = "clusterpanel-probe"
	probeAccount = "probe"
)

// Compile-time interface satisfaction check.
var _ driven.Vault = (*Vault)(nil)

// Vault stores secrets in the OS keychain. When the keychain is unusable the
// fallback vault serves every call; with no fallback every call reports
// driven.ErrVaultUnavailable.
type Vault struct {
	system   bool
	fallback driven.Vault
}

// NewVault probes the OS keychain and returns a Vault that uses it, or
// fallback when the probe fails or times out. fallback may be nil.
func NewVault(fallback driven.Vault, timeout time.Duration, logger *slog.Logger) *Vault {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}

	if err := Probe(timeout); err != nil {
		logger.Warn("os keychain unavailable", "error", err, "fallback", fallback != nil)
		return &Vault{fallback: fallback}
	}
	return &Vault{system: true}
}

// Probe writes and deletes a throwaway entry to confirm the keychain works.
func Probe(timeout time.Duration) error {
	done := make(chan error, 1)
	go func() {
		err := gokeyring.Set(probeService, probeAccount, "ok")
		if err == nil {
			err = gokeyring.Delete(probeService, probeAccount)
		}
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		return fmt.Errorf("keychain probe timed out after %s", timeout)
	}
}

// System reports whether the OS keychain backs this vault.
func (v *Vault) System() bool { return v.system }

func (v *Vault) GetSecret(service, account string) (string, error) {
	if !v.system {
		if v.fallback == nil {
			return "", driven.ErrVaultUnavailable
		}
		return v.fallback.GetSecret(service, account)
	}

	secret, err := gokeyring.Get(service, account)
	if err != nil {
		return "", mapError(err)
	}
	return secret, nil
}

func (v *Vault) SetSecret(service, account, secret string) error {
	if !v.system {
		if v.fallback == nil {
			return driven.ErrVaultUnavailable
		}
		return v.fallback.SetSecret(service, account, secret)
	}
	return mapError(gokeyring.Set(service, account, secret))
}

func (v *Vault) DeleteSecret(service, account string) error {
	if !v.system {
		if v.fallback == nil {
			return driven.ErrVaultUnavailable
		}
		return v.fallback.DeleteSecret(service, account)
	}
	return mapError(gokeyring.Delete(service, account))
}

func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gokeyring.ErrNotFound):
		return fmt.Errorf("%w: %w", driven.ErrSecretNotFound, err)
	case errors.Is(err, gokeyring.ErrUnsupportedPlatform):
		return fmt.Errorf("%w: %w", driven.ErrVaultUnavailable, err)
	default:
		return fmt.Errorf("keychain: %w", err)
	}
}
