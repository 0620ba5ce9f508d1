// Command clusterctl browses and manages the cluster resource tree from a
// terminal, sharing configuration and credential storage with clusterpanel.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/ericfisherdev/clusterpanel/internal/application"
	"github.com/ericfisherdev/clusterpanel/internal/bootstrap"
	"github.com/ericfisherdev/clusterpanel/internal/config"
)

// These should be set via `go build` during a release.
var (
	GitCommit = "undefined"
	Version   = "local"
)

// openFunc builds the explorer for one command invocation. The returned
// closer releases the state database.
type openFunc func(ctx context.Context) (*application.Explorer, io.Closer, error)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCommand(openFromEnv)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand(open openFunc) *cobra.Command {
	root := &cobra.Command{
		Use:           "clusterctl",
		Short:         "Browse clusters, databases and tables",
		Version:       fmt.Sprintf("%s (%s)", Version, GitCommit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newTreeCommand(open),
		newCredentialsCommand(open),
		newDatabaseCommand(open),
	)
	return root
}

// openFromEnv wires the explorer from CLUSTERPANEL_ environment variables.
// Logs go to stderr so command output stays parseable.
func openFromEnv(ctx context.Context) (*application.Explorer, io.Closer, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	store, err := bootstrap.OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	explorer, err := bootstrap.NewExplorer(cfg, store, logger)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return explorer, store, nil
}

// withExplorer opens the explorer, runs fn and closes the store.
func withExplorer(cmd *cobra.Command, open openFunc, fn func(*application.Explorer) error) error {
	explorer, closer, err := open(cmd.Context())
	if err != nil {
		return err
	}
	defer closer.Close() //nolint:errcheck

	return fn(explorer)
}
