package application

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/ericfisherdev/clusterpanel/internal/domain/model"
	"github.com/ericfisherdev/clusterpanel/internal/domain/port/driven"
)

// Node is a lazily expanded tree node. The set of implementations is closed:
// *ClusterNode, *DatabaseNode, *TablesNode, *TableNode and *CommandNode.
type Node interface {
	Kind() model.NodeKind
	// ID identifies the node among its siblings.
	ID() string
	// FullID identifies the node across the whole tree.
	FullID() string
	Label() string
	Description(ctx context.Context) string

	// HasMoreChildren is true only until the first successful load.
	HasMoreChildren() bool

	// LoadChildren returns the cached children unless forceRefresh is set or
	// nothing has been cached yet. A failed discovery leaves the cache as it was.
	LoadChildren(ctx context.Context, forceRefresh bool) ([]Node, error)

	// IsAncestorOfKind reports whether nodes of kind can appear below this one.
	IsAncestorOfKind(kind model.NodeKind) bool

	sealed()
}

// treeDeps holds the collaborators shared by every node of one tree.
type treeDeps struct {
	mgmt      driven.ManagementClient
	creds     driven.CredentialStore
	connector driven.DatabaseConnector
	validator *ConnectionValidator
	rootCA    string
	logger    *slog.Logger
}

// childCache is the per-node children cache. Its mutex is held for the whole
// discovery call, which serializes expansion of a single node.
type childCache struct {
	mu       sync.Mutex
	children []Node
	loaded   bool
}

func (c *childCache) hasMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.loaded
}

func (c *childCache) load(ctx context.Context, forceRefresh bool, discover func(context.Context) ([]Node, error)) ([]Node, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded && !forceRefresh {
		return c.children, nil
	}
	return c.refreshLocked(ctx, discover)
}

// ensureLocked loads children if nothing is cached. c.mu must be held.
func (c *childCache) ensureLocked(ctx context.Context, discover func(context.Context) ([]Node, error)) ([]Node, error) {
	if c.loaded {
		return c.children, nil
	}
	return c.refreshLocked(ctx, discover)
}

func (c *childCache) refreshLocked(ctx context.Context, discover func(context.Context) ([]Node, error)) ([]Node, error) {
	children, err := discover(ctx)
	if err != nil {
		return nil, err
	}
	if children == nil {
		children = []Node{}
	}
	c.children = children
	c.loaded = true
	return children, nil
}

// appendLocked extends the cache with a new slice so callers holding the
// previous one never observe the change. c.mu must be held.
func (c *childCache) appendLocked(n Node) {
	next := slices.Clone(c.children)
	c.children = append(next, n)
}

// remove drops the cached child with the given ID, if present.
func (c *childCache) remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded {
		return
	}
	c.children = slices.DeleteFunc(slices.Clone(c.children), func(n Node) bool { return n.ID() == id })
}

// invalidate forgets the cached children so the next load rediscovers them.
func (c *childCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.children = nil
	c.loaded = false
}

// snapshot returns the cached children without loading.
func (c *childCache) snapshot() []Node {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.children
}

// CommandNode is a non-expandable affordance: activating it dispatches a host
// command instead of showing discovered data.
type CommandNode struct {
	parent  Node
	command model.Command
}

func newCommandNode(parent Node, command model.Command) *CommandNode {
	return &CommandNode{parent: parent, command: command}
}

// Command returns the descriptor the host dispatches.
func (n *CommandNode) Command() model.Command { return n.command }

func (n *CommandNode) Kind() model.NodeKind               { return model.NodeKindCommand }
func (n *CommandNode) ID() string                         { return n.command.CommandID }
func (n *CommandNode) FullID() string                     { return n.parent.FullID() + "/" + n.ID() }
func (n *CommandNode) Label() string                      { return n.command.Label }
func (n *CommandNode) Description(context.Context) string { return "" }
func (n *CommandNode) HasMoreChildren() bool              { return false }
func (n *CommandNode) IsAncestorOfKind(model.NodeKind) bool {
	return false
}

// LoadChildren always returns no children.
func (n *CommandNode) LoadChildren(context.Context, bool) ([]Node, error) {
	return []Node{}, nil
}

func (n *CommandNode) sealed() {}
