package driven

import (
	"context"

	"github.com/ericfisherdev/clusterpanel/internal/domain/model"
)

// CredentialStore defines the port the tree uses to read and write per-cluster
// credentials. Implementations serialize every mutation of the shared index.
type CredentialStore interface {
	// Get returns the stored credential for clusterID, or nil when absent.
	// A platform without a usable vault reports every credential as absent.
	Get(ctx context.Context, clusterID string) (*model.Credential, error)

	// Set stores or replaces the credential for cred.ClusterID.
	Set(ctx context.Context, cred model.Credential) error

	// Remove deletes the credential for clusterID. Removing an absent
	// credential is a no-op.
	Remove(ctx context.Context, clusterID string) error
}
