package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/ericfisherdev/clusterpanel/internal/domain/model"
	"github.com/ericfisherdev/clusterpanel/internal/domain/port/driven"
)

// DefaultCredentialService is the vault service name, also used as the
// state-store key of the credential index.
const DefaultCredentialService = "clusterpanel.passwords"

// Compile-time interface satisfaction check.
var _ driven.CredentialStore = (*CredentialService)(nil)

// CredentialService implements the CredentialStore port on top of the vault
// and the state store. Usernames live in a JSON array under one state key;
// passwords live in the vault under (service, clusterID).
//
// All index mutations go through mu, so concurrent Set/Remove calls for
// different clusters never lose each other's writes.
type CredentialService struct {
	mu      sync.Mutex
	vault   driven.Vault
	state   driven.StateStore
	service string
	logger  *slog.Logger
}

// NewCredentialService creates a CredentialService. An empty service falls
// back to DefaultCredentialService.
func NewCredentialService(vault driven.Vault, state driven.StateStore, service string, logger *slog.Logger) *CredentialService {
	if service == "" {
		service = DefaultCredentialService
	}
	return &CredentialService{
		vault:   vault,
		state:   state,
		service: service,
		logger:  logger,
	}
}

// Get returns the stored credential for clusterID, or nil when the index has
// no entry, the vault holds no password, or the vault is unavailable.
func (s *CredentialService) Get(ctx context.Context, clusterID string) (*model.Credential, error) {
	entries, err := s.readIndex(ctx)
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		if entry.ID != clusterID {
			continue
		}

		password, err := s.vault.GetSecret(s.service, clusterID)
		if errors.Is(err, driven.ErrSecretNotFound) || errors.Is(err, driven.ErrVaultUnavailable) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read password for cluster %s: %w", clusterID, err)
		}

		cred := &model.Credential{ClusterID: clusterID, Username: entry.Username, Password: password}
		if !cred.Complete() {
			return nil, nil
		}
		return cred, nil
	}

	return nil, nil
}

// Set stores or replaces the credential for cred.ClusterID. The index entry is
// written before the vault secret; if the secret cannot be stored the previous
// index is written back so the entry never disagrees with its secret.
func (s *CredentialService) Set(ctx context.Context, cred model.Credential) error {
	if cred.ClusterID == "" {
		return model.NewValidationError("cluster is required")
	}
	if !cred.Complete() {
		return model.NewValidationError("username and password are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.readIndex(ctx)
	if err != nil {
		return err
	}

	previous := slices.Clone(entries)

	replaced := false
	for i := range entries {
		if entries[i].ID == cred.ClusterID {
			entries[i].Username = cred.Username
			replaced = true
		}
	}
	if !replaced {
		entries = append(entries, model.PersistedCluster{ID: cred.ClusterID, Username: cred.Username})
	}

	if err := s.writeIndex(ctx, entries); err != nil {
		return err
	}

	if err := s.vault.SetSecret(s.service, cred.ClusterID, cred.Password); err != nil {
		if rollbackErr := s.writeIndex(ctx, previous); rollbackErr != nil {
			s.logger.Error("failed to restore credential index", "cluster", cred.ClusterID, "error", rollbackErr)
		}
		return fmt.Errorf("store password for cluster %s: %w", cred.ClusterID, err)
	}
	return nil
}

// Remove deletes the credential for clusterID. The filtered index is written
// first, then the vault secret is deleted; if the secret deletion fails the
// orphaned secret is unreachable because Get only consults the vault for
// indexed clusters. Removing an absent credential is a no-op.
func (s *CredentialService) Remove(ctx context.Context, clusterID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.readIndex(ctx)
	if err != nil {
		return err
	}

	filtered := make([]model.PersistedCluster, 0, len(entries))
	for _, entry := range entries {
		if entry.ID != clusterID {
			filtered = append(filtered, entry)
		}
	}

	if len(filtered) != len(entries) {
		if err := s.writeIndex(ctx, filtered); err != nil {
			return err
		}
	}

	err = s.vault.DeleteSecret(s.service, clusterID)
	switch {
	case err == nil, errors.Is(err, driven.ErrSecretNotFound):
		return nil
	case errors.Is(err, driven.ErrVaultUnavailable):
		s.logger.Debug("vault unavailable, skipping secret removal", "cluster", clusterID)
		return nil
	default:
		return fmt.Errorf("delete password for cluster %s: %w", clusterID, err)
	}
}

func (s *CredentialService) readIndex(ctx context.Context) ([]model.PersistedCluster, error) {
	raw, ok, err := s.state.Get(ctx, s.service)
	if err != nil {
		return nil, fmt.Errorf("read credential index: %w", err)
	}
	if !ok || raw == "" {
		return []model.PersistedCluster{}, nil
	}

	var entries []model.PersistedCluster
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("decode credential index: %w", err)
	}
	return entries, nil
}

func (s *CredentialService) writeIndex(ctx context.Context, entries []model.PersistedCluster) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode credential index: %w", err)
	}
	if err := s.state.Update(ctx, s.service, string(data)); err != nil {
		return fmt.Errorf("write credential index: %w", err)
	}
	return nil
}
