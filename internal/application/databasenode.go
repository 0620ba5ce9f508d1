package application

import (
	"context"
	"fmt"

	"github.com/ericfisherdev/clusterpanel/internal/domain/model"
)

// DatabaseNode is a database within a cluster. It only yields its table
// container once the cluster's stored credentials pass a validation probe;
// otherwise it yields a single affordance node.
type DatabaseNode struct {
	cluster  *ClusterNode
	name     string
	children childCache
}

func newDatabaseNode(cluster *ClusterNode, name string) *DatabaseNode {
	return &DatabaseNode{cluster: cluster, name: name}
}

// Name returns the database name.
func (n *DatabaseNode) Name() string { return n.name }

// Cluster returns the owning cluster node.
func (n *DatabaseNode) Cluster() *ClusterNode { return n.cluster }

func (n *DatabaseNode) Kind() model.NodeKind { return model.NodeKindDatabase }
func (n *DatabaseNode) ID() string           { return n.name }
func (n *DatabaseNode) FullID() string       { return n.cluster.FullID() + "/databases/" + n.name }
func (n *DatabaseNode) Label() string        { return n.name }

// Description reports "Connected" for the session's connected database.
func (n *DatabaseNode) Description(ctx context.Context) string {
	if s := SessionFromContext(ctx); s != nil && s.ConnectedDatabase == n.FullID() {
		return "Connected"
	}
	return ""
}

func (n *DatabaseNode) HasMoreChildren() bool { return n.children.hasMore() }

func (n *DatabaseNode) IsAncestorOfKind(kind model.NodeKind) bool {
	return kind == model.NodeKindTableContainer || kind == model.NodeKindTable
}

// LoadChildren resolves credentials, validates them and returns either the
// table container or one affordance node. Only unclassified failures are
// returned as errors, and they are returned unchanged.
func (n *DatabaseNode) LoadChildren(ctx context.Context, forceRefresh bool) ([]Node, error) {
	return n.children.load(ctx, forceRefresh, n.discover)
}

func (n *DatabaseNode) discover(ctx context.Context) ([]Node, error) {
	cred, err := n.cluster.Credentials(ctx)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return []Node{n.enterCredentialsNode()}, nil
	}

	cfg := n.clientConfig(*cred)
	outcome := n.cluster.deps.validator.Validate(ctx, cfg)

	switch outcome.Kind {
	case OutcomeConnected:
		return []Node{newTablesNode(n, cfg)}, nil
	case OutcomeNeedsCredentials:
		return []Node{n.reenterCredentialsNode()}, nil
	case OutcomeNeedsFirewallConfig:
		return []Node{n.configureFirewallNode()}, nil
	default:
		return nil, outcome.Err
	}
}

// clientConfig builds the wire-client configuration for this database.
func (n *DatabaseNode) clientConfig(cred model.Credential) model.ClientConfig {
	return model.ClientConfig{
		Host:     n.cluster.cluster.EndpointHost,
		Port:     model.DefaultPort,
		Database: n.name,
		Username: cred.Username,
		Password: cred.Password,
		RootCA:   n.cluster.deps.rootCA,
	}
}

// Delete removes the database through its cluster.
func (n *DatabaseNode) Delete(ctx context.Context) error {
	return n.cluster.DeleteDatabase(ctx, n)
}

func (n *DatabaseNode) enterCredentialsNode() *CommandNode {
	return newCommandNode(n, model.Command{
		Label:     fmt.Sprintf("Enter server credentials to connect to %q...", n.cluster.Label()),
		CommandID: model.CommandEnterCredentials,
		Args:      []string{n.cluster.ID()},
	})
}

func (n *DatabaseNode) reenterCredentialsNode() *CommandNode {
	return newCommandNode(n, model.Command{
		Label:     fmt.Sprintf("Could not connect to %q. Enter credentials again...", n.cluster.Label()),
		CommandID: model.CommandEnterCredentials,
		Args:      []string{n.cluster.ID()},
	})
}

func (n *DatabaseNode) configureFirewallNode() *CommandNode {
	return newCommandNode(n, model.Command{
		Label:     fmt.Sprintf("Configure firewall to connect to %q...", n.cluster.Label()),
		CommandID: model.CommandConfigureFirewall,
		Args:      []string{n.cluster.ID()},
	})
}

func (n *DatabaseNode) sealed() {}
