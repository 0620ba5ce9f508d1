package application

import (
	"context"
	"fmt"

	"github.com/ericfisherdev/clusterpanel/internal/domain/model"
)

// ClusterNode is a managed cluster. Its children are the cluster's
// user-manageable databases.
type ClusterNode struct {
	cluster  model.Cluster
	deps     *treeDeps
	children childCache
}

func newClusterNode(cluster model.Cluster, deps *treeDeps) *ClusterNode {
	if cluster.ResourceGroup == "" {
		cluster.ResourceGroup = model.ResourceGroupFromID(cluster.ID)
	}
	return &ClusterNode{cluster: cluster, deps: deps}
}

// Cluster returns the management record backing this node.
func (n *ClusterNode) Cluster() model.Cluster { return n.cluster }

func (n *ClusterNode) Kind() model.NodeKind { return model.NodeKindCluster }
func (n *ClusterNode) ID() string           { return n.cluster.ID }
func (n *ClusterNode) FullID() string       { return n.cluster.ID }
func (n *ClusterNode) Label() string        { return n.cluster.Name }

// Description shows the endpoint the wire client connects to.
func (n *ClusterNode) Description(context.Context) string { return n.cluster.EndpointHost }

func (n *ClusterNode) HasMoreChildren() bool { return n.children.hasMore() }

func (n *ClusterNode) IsAncestorOfKind(kind model.NodeKind) bool {
	switch kind {
	case model.NodeKindDatabase, model.NodeKindTableContainer, model.NodeKindTable:
		return true
	default:
		return false
	}
}

// LoadChildren lists the cluster's databases, skipping reserved ones.
func (n *ClusterNode) LoadChildren(ctx context.Context, forceRefresh bool) ([]Node, error) {
	return n.children.load(ctx, forceRefresh, n.discover)
}

func (n *ClusterNode) discover(ctx context.Context) ([]Node, error) {
	databases, err := n.deps.mgmt.ListDatabases(ctx, n.cluster.ResourceGroup, n.cluster.Name)
	if err != nil {
		return nil, fmt.Errorf("list databases for cluster %s: %w", n.cluster.Name, err)
	}

	children := make([]Node, 0, len(databases))
	for _, db := range databases {
		if db.Name == "" || model.IsReservedDatabase(db.Name) {
			continue
		}
		children = append(children, newDatabaseNode(n, db.Name))
	}
	return children, nil
}

// CreateDatabase validates name against the current children and creates the
// database remotely. A rejected name never reaches the management API.
func (n *ClusterNode) CreateDatabase(ctx context.Context, name string) (*DatabaseNode, error) {
	if name == "" {
		return nil, model.NewValidationError("Name cannot be empty.")
	}

	n.children.mu.Lock()
	defer n.children.mu.Unlock()

	current, err := n.children.ensureLocked(ctx, n.discover)
	if err != nil {
		return nil, err
	}
	for _, child := range current {
		if db, ok := child.(*DatabaseNode); ok && db.name == name {
			return nil, model.NewValidationError(fmt.Sprintf("Database %q already exists.", name))
		}
	}

	created, err := n.deps.mgmt.CreateDatabase(ctx, n.cluster.ResourceGroup, n.cluster.Name, name)
	if err != nil {
		return nil, fmt.Errorf("create database %s on cluster %s: %w", name, n.cluster.Name, err)
	}
	if created.Name == "" {
		created.Name = name
	}

	db := newDatabaseNode(n, created.Name)
	n.children.appendLocked(db)
	return db, nil
}

// Delete removes the cluster remotely, then removes its stored credential.
// A credential cleanup failure is logged and does not fail the delete.
func (n *ClusterNode) Delete(ctx context.Context) error {
	if err := n.deps.mgmt.DeleteCluster(ctx, n.cluster.ResourceGroup, n.cluster.Name); err != nil {
		return fmt.Errorf("delete cluster %s: %w", n.cluster.Name, err)
	}

	if err := n.deps.creds.Remove(ctx, n.cluster.ID); err != nil {
		n.deps.logger.Warn("failed to remove stored credentials for deleted cluster",
			"cluster", n.cluster.Name,
			"error", err,
		)
	}
	return nil
}

// DeleteDatabase deletes the named child database and drops it from the cache.
func (n *ClusterNode) DeleteDatabase(ctx context.Context, db *DatabaseNode) error {
	if err := n.deps.mgmt.DeleteDatabase(ctx, n.cluster.ResourceGroup, n.cluster.Name, db.name); err != nil {
		return fmt.Errorf("delete database %s on cluster %s: %w", db.name, n.cluster.Name, err)
	}
	n.children.remove(db.ID())
	return nil
}

// Credentials returns the stored credential for this cluster, or nil.
func (n *ClusterNode) Credentials(ctx context.Context) (*model.Credential, error) {
	return n.deps.creds.Get(ctx, n.cluster.ID)
}

// resetDatabases forgets every cached database expansion so that the next
// expansion re-runs credential validation.
func (n *ClusterNode) resetDatabases() {
	for _, child := range n.children.snapshot() {
		if db, ok := child.(*DatabaseNode); ok {
			db.children.invalidate()
		}
	}
}

func (n *ClusterNode) sealed() {}
