package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/clusterpanel/internal/domain/model"
)

// ErrClusterNotFound indicates the requested cluster is not known to the
// management API or to the tree.
var ErrClusterNotFound = errors.New("cluster not found")

// ErrNodeNotFound indicates a database or other tree node below a known
// cluster does not exist.
var ErrNodeNotFound = errors.New("node not found")

// ManagementClient defines the driven port for the cloud management API.
// Implementations are single-attempt: no retries happen behind this interface.
type ManagementClient interface {
	// ListClusters returns every cluster visible to the configured subscription.
	ListClusters(ctx context.Context) ([]model.Cluster, error)

	// ListDatabases returns the databases of a cluster, in the order the API
	// reports them. Reserved databases are not filtered here.
	ListDatabases(ctx context.Context, resourceGroup, cluster string) ([]model.Database, error)

	// CreateDatabase creates a database and returns the created record.
	CreateDatabase(ctx context.Context, resourceGroup, cluster, name string) (model.Database, error)

	// DeleteDatabase deletes a database from a cluster.
	DeleteDatabase(ctx context.Context, resourceGroup, cluster, name string) error

	// DeleteCluster deletes the cluster itself.
	DeleteCluster(ctx context.Context, resourceGroup, cluster string) error
}
