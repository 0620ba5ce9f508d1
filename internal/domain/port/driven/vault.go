package driven

import "errors"

// Sentinel errors returned by Vault implementations.
var (
	// ErrSecretNotFound indicates no secret is stored under the given key.
	ErrSecretNotFound = errors.New("secret not found")

	// ErrVaultUnavailable indicates the host platform offers no usable
	// credential vault.
	ErrVaultUnavailable = errors.New("credential vault unavailable")
)

// Vault defines the driven port for the OS credential vault.
type Vault interface {
	// GetSecret returns ErrSecretNotFound when nothing is stored under
	// (service, account).
	GetSecret(service, account string) (string, error)
	SetSecret(service, account, secret string) error
	// DeleteSecret returns ErrSecretNotFound when nothing is stored under
	// (service, account).
	DeleteSecret(service, account string) error
}
