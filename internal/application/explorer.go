package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/ericfisherdev/clusterpanel/internal/domain/model"
	"github.com/ericfisherdev/clusterpanel/internal/domain/port/driven"
)

// Explorer is the root of the resource tree. It lists clusters through the
// management API and exposes the operations the host command surface needs,
// addressing clusters and databases by name.
type Explorer struct {
	deps  *treeDeps
	root  childCache
	creds driven.CredentialStore

	mu        sync.RWMutex
	connected string
}

// NewExplorer creates an Explorer. An empty rootCA falls back to
// BaltimoreCyberTrustRoot.
func NewExplorer(
	mgmt driven.ManagementClient,
	creds driven.CredentialStore,
	connector driven.DatabaseConnector,
	rootCA string,
	logger *slog.Logger,
) *Explorer {
	if rootCA == "" {
		rootCA = BaltimoreCyberTrustRoot
	}
	return &Explorer{
		creds: creds,
		deps: &treeDeps{
			mgmt:      mgmt,
			creds:     creds,
			connector: connector,
			validator: NewConnectionValidator(connector, logger),
			rootCA:    rootCA,
			logger:    logger,
		},
	}
}

// Session returns the per-request session for requestID, carrying the
// currently connected database.
func (e *Explorer) Session(requestID string) *Session {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return &Session{RequestID: requestID, ConnectedDatabase: e.connected}
}

// Clusters lists the cluster nodes, loading them on first use.
func (e *Explorer) Clusters(ctx context.Context, forceRefresh bool) ([]*ClusterNode, error) {
	children, err := e.root.load(ctx, forceRefresh, e.discover)
	if err != nil {
		return nil, err
	}

	clusters := make([]*ClusterNode, 0, len(children))
	for _, child := range children {
		if c, ok := child.(*ClusterNode); ok {
			clusters = append(clusters, c)
		}
	}
	return clusters, nil
}

func (e *Explorer) discover(ctx context.Context) ([]Node, error) {
	clusters, err := e.deps.mgmt.ListClusters(ctx)
	if err != nil {
		return nil, fmt.Errorf("list clusters: %w", err)
	}

	children := make([]Node, 0, len(clusters))
	for _, c := range clusters {
		children = append(children, newClusterNode(c, e.deps))
	}
	return children, nil
}

// Cluster returns the cluster node named name.
func (e *Explorer) Cluster(ctx context.Context, name string) (*ClusterNode, error) {
	clusters, err := e.Clusters(ctx, false)
	if err != nil {
		return nil, err
	}
	for _, c := range clusters {
		if c.Label() == name {
			return c, nil
		}
	}
	return nil, fmt.Errorf("cluster %s: %w", name, driven.ErrClusterNotFound)
}

// Database returns the database node dbName of cluster clusterName.
func (e *Explorer) Database(ctx context.Context, clusterName, dbName string) (*DatabaseNode, error) {
	cluster, err := e.Cluster(ctx, clusterName)
	if err != nil {
		return nil, err
	}

	children, err := cluster.LoadChildren(ctx, false)
	if err != nil {
		return nil, err
	}
	for _, child := range children {
		if db, ok := child.(*DatabaseNode); ok && db.Name() == dbName {
			return db, nil
		}
	}
	return nil, fmt.Errorf("database %s on cluster %s: %w", dbName, clusterName, driven.ErrNodeNotFound)
}

// Databases expands a cluster.
func (e *Explorer) Databases(ctx context.Context, clusterName string, forceRefresh bool) ([]Node, error) {
	cluster, err := e.Cluster(ctx, clusterName)
	if err != nil {
		return nil, err
	}
	return cluster.LoadChildren(ctx, forceRefresh)
}

// DatabaseChildren expands a database: either the table container or a
// single affordance node.
func (e *Explorer) DatabaseChildren(ctx context.Context, clusterName, dbName string, forceRefresh bool) ([]Node, error) {
	db, err := e.Database(ctx, clusterName, dbName)
	if err != nil {
		return nil, err
	}
	return db.LoadChildren(ctx, forceRefresh)
}

// Tables expands a database and then its table container. When the database
// yields an affordance node instead, that node is returned.
func (e *Explorer) Tables(ctx context.Context, clusterName, dbName string, forceRefresh bool) ([]Node, error) {
	children, err := e.DatabaseChildren(ctx, clusterName, dbName, forceRefresh)
	if err != nil {
		return nil, err
	}
	for _, child := range children {
		if tables, ok := child.(*TablesNode); ok {
			return tables.LoadChildren(ctx, forceRefresh)
		}
	}
	return children, nil
}

// CreateDatabase creates a database on the named cluster.
func (e *Explorer) CreateDatabase(ctx context.Context, clusterName, dbName string) (*DatabaseNode, error) {
	cluster, err := e.Cluster(ctx, clusterName)
	if err != nil {
		return nil, err
	}
	return cluster.CreateDatabase(ctx, dbName)
}

// DeleteCluster deletes the named cluster and drops it from the tree.
func (e *Explorer) DeleteCluster(ctx context.Context, clusterName string) error {
	cluster, err := e.Cluster(ctx, clusterName)
	if err != nil {
		return err
	}
	if err := cluster.Delete(ctx); err != nil {
		return err
	}
	e.root.remove(cluster.ID())

	e.mu.Lock()
	if isUnder(e.connected, cluster.FullID()) {
		e.connected = ""
	}
	e.mu.Unlock()
	return nil
}

// DeleteDatabase deletes a database from the named cluster.
func (e *Explorer) DeleteDatabase(ctx context.Context, clusterName, dbName string) error {
	db, err := e.Database(ctx, clusterName, dbName)
	if err != nil {
		return err
	}
	if err := db.Delete(ctx); err != nil {
		return err
	}

	e.mu.Lock()
	if e.connected == db.FullID() {
		e.connected = ""
	}
	e.mu.Unlock()
	return nil
}

// SetCredentials stores credentials for the named cluster and resets cached
// database expansions so they are validated again.
func (e *Explorer) SetCredentials(ctx context.Context, clusterName, username, password string) error {
	cluster, err := e.Cluster(ctx, clusterName)
	if err != nil {
		return err
	}

	cred := model.Credential{ClusterID: cluster.ID(), Username: username, Password: password}
	if err := e.creds.Set(ctx, cred); err != nil {
		return err
	}
	cluster.resetDatabases()
	return nil
}

// RemoveCredentials forgets the stored credentials of the named cluster.
func (e *Explorer) RemoveCredentials(ctx context.Context, clusterName string) error {
	cluster, err := e.Cluster(ctx, clusterName)
	if err != nil {
		return err
	}
	if err := e.creds.Remove(ctx, cluster.ID()); err != nil {
		return err
	}
	cluster.resetDatabases()
	return nil
}

// ConnectDatabase marks a database as the connected one.
func (e *Explorer) ConnectDatabase(ctx context.Context, clusterName, dbName string) (*DatabaseNode, error) {
	db, err := e.Database(ctx, clusterName, dbName)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.connected = db.FullID()
	e.mu.Unlock()
	return db, nil
}

// Disconnect clears the connected database.
func (e *Explorer) Disconnect() {
	e.mu.Lock()
	e.connected = ""
	e.mu.Unlock()
}

func isUnder(fullID, prefix string) bool {
	return strings.HasPrefix(fullID, prefix+"/")
}
