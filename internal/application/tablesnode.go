package application

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/ericfisherdev/clusterpanel/internal/domain/model"
)

// TablesNode groups the tables of a validated database. It holds the
// ClientConfig that passed validation; no live connection is kept.
type TablesNode struct {
	database *DatabaseNode
	config   model.ClientConfig
	index    model.SchemaIndex
	children childCache
}

func newTablesNode(database *DatabaseNode, cfg model.ClientConfig) *TablesNode {
	return &TablesNode{database: database, config: cfg, index: model.SchemaIndex{}}
}

// ClientConfig returns the configuration used for introspection.
func (n *TablesNode) ClientConfig() model.ClientConfig { return n.config }

func (n *TablesNode) Kind() model.NodeKind               { return model.NodeKindTableContainer }
func (n *TablesNode) ID() string                         { return "tables" }
func (n *TablesNode) FullID() string                     { return n.database.FullID() + "/tables" }
func (n *TablesNode) Label() string                      { return "Tables" }
func (n *TablesNode) Description(context.Context) string { return "" }
func (n *TablesNode) HasMoreChildren() bool              { return n.children.hasMore() }

func (n *TablesNode) IsAncestorOfKind(kind model.NodeKind) bool {
	return kind == model.NodeKindTable
}

// SchemaIndex returns a copy of the index built by the last successful load.
func (n *TablesNode) SchemaIndex() model.SchemaIndex {
	n.children.mu.Lock()
	defer n.children.mu.Unlock()
	out := make(model.SchemaIndex, len(n.index))
	for name, schemas := range n.index {
		out[name] = slices.Clone(schemas)
	}
	return out
}

// LoadChildren introspects the database and returns one TableNode per table.
func (n *TablesNode) LoadChildren(ctx context.Context, forceRefresh bool) ([]Node, error) {
	return n.children.load(ctx, forceRefresh, n.discover)
}

func (n *TablesNode) discover(ctx context.Context) ([]Node, error) {
	client := n.database.cluster.deps.connector.NewClient(n.config)
	defer func() {
		if closeErr := client.Close(ctx); closeErr != nil {
			n.database.cluster.deps.logger.Warn("failed to close introspection connection",
				"database", n.config.Database,
				"error", closeErr,
			)
		}
	}()

	if err := client.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect to database %s: %w", n.config.Database, err)
	}

	tables, err := client.IntrospectTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("introspect database %s: %w", n.config.Database, err)
	}

	// The duplicate flag of any table depends on every other table, so the
	// index is completed before a single node is built.
	index := model.SchemaIndex{}
	for _, t := range tables {
		index.Add(strings.TrimSpace(t.Name), t.Schema)
	}

	children := make([]Node, 0, len(tables))
	for _, t := range tables {
		name := strings.TrimSpace(t.Name)
		children = append(children, &TableNode{
			parent:    n,
			name:      name,
			schema:    t.Schema,
			duplicate: index.IsDuplicate(name),
		})
	}

	n.index = index
	return children, nil
}

func (n *TablesNode) sealed() {}

// TableNode is a single table. Tables whose name exists in more than one
// schema are labelled with their schema to tell them apart.
type TableNode struct {
	parent    *TablesNode
	name      string
	schema    string
	duplicate bool
}

// Name returns the table name.
func (n *TableNode) Name() string { return n.name }

// Schema returns the name of the schema containing the table.
func (n *TableNode) Schema() string { return n.schema }

// IsDuplicateAcrossSchemas reports whether another schema has a table with the same name.
func (n *TableNode) IsDuplicateAcrossSchemas() bool { return n.duplicate }

func (n *TableNode) Kind() model.NodeKind { return model.NodeKindTable }
func (n *TableNode) ID() string           { return n.schema + "." + n.name }
func (n *TableNode) FullID() string       { return n.parent.FullID() + "/" + n.ID() }

// Label is the bare table name, qualified by schema when the name is ambiguous.
func (n *TableNode) Label() string {
	if n.duplicate {
		return n.schema + "." + n.name
	}
	return n.name
}

func (n *TableNode) Description(context.Context) string   { return "" }
func (n *TableNode) HasMoreChildren() bool                { return false }
func (n *TableNode) IsAncestorOfKind(model.NodeKind) bool { return false }

// LoadChildren always returns no children.
func (n *TableNode) LoadChildren(context.Context, bool) ([]Node, error) {
	return []Node{}, nil
}

func (n *TableNode) sealed() {}
