package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ericfisherdev/clusterpanel/internal/application"
	"github.com/ericfisherdev/clusterpanel/internal/domain/model"
)

func newTreeCommand(open openFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree [cluster]",
		Short: "Expand the resource tree down to tables",
		Args:  cobra.MaximumNArgs(1),
	}

	refresh := cmd.Flags().Bool("refresh", false, "Bypass cached children")
	depth := cmd.Flags().Int("depth", 4, "Maximum depth to expand (1 lists clusters only)")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return withExplorer(cmd, open, func(explorer *application.Explorer) error {
			ctx := application.WithSession(cmd.Context(), explorer.Session("clusterctl"))

			clusters, err := explorer.Clusters(ctx, *refresh)
			if err != nil {
				return err
			}

			roots := make([]application.Node, 0, len(clusters))
			for _, c := range clusters {
				if len(args) == 1 && c.Label() != args[0] {
					continue
				}
				roots = append(roots, c)
			}
			if len(args) == 1 && len(roots) == 0 {
				return fmt.Errorf("cluster %q not found", args[0])
			}

			rows := walkTree(ctx, roots, *depth, *refresh)
			renderTree(cmd.OutOrStdout(), rows)
			return nil
		})
	}

	return cmd
}

// treeRow is one rendered node.
type treeRow struct {
	depth       int
	kind        model.NodeKind
	label       string
	description string
	command     string
}

// walkTree expands roots depth-first up to maxDepth levels. A node whose
// expansion fails is rendered with the error as its description.
func walkTree(ctx context.Context, roots []application.Node, maxDepth int, refresh bool) []treeRow {
	var rows []treeRow

	var visit func(n application.Node, depth int)
	visit = func(n application.Node, depth int) {
		row := treeRow{
			depth:       depth,
			kind:        n.Kind(),
			label:       n.Label(),
			description: n.Description(ctx),
		}
		if cn, ok := n.(*application.CommandNode); ok {
			row.command = cn.Command().CommandID
		}

		if depth+1 >= maxDepth || !canExpand(n) {
			rows = append(rows, row)
			return
		}

		children, err := n.LoadChildren(ctx, refresh)
		if err != nil {
			row.description = "error: " + err.Error()
		}
		rows = append(rows, row)

		for _, child := range children {
			visit(child, depth+1)
		}
	}

	for _, root := range roots {
		visit(root, 0)
	}
	return rows
}

func canExpand(n application.Node) bool {
	switch n.Kind() {
	case model.NodeKindTable, model.NodeKindCommand:
		return false
	default:
		return true
	}
}

func renderTree(w io.Writer, rows []treeRow) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Name", "Kind", "Description", "Command"})

	for _, r := range rows {
		t.AppendRow(table.Row{
			strings.Repeat("  ", r.depth) + r.label,
			r.kind,
			r.description,
			r.command,
		})
	}

	t.Render()
}
