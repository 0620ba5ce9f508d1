// Package bootstrap wires the driven adapters behind the application services
// shared by the clusterpanel server and the clusterctl command line.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/ericfisherdev/clusterpanel/internal/adapter/driven/arm"
	"github.com/ericfisherdev/clusterpanel/internal/adapter/driven/clickhouse"
	"github.com/ericfisherdev/clusterpanel/internal/adapter/driven/keyring"
	"github.com/ericfisherdev/clusterpanel/internal/adapter/driven/postgres"
	sqliteadapter "github.com/ericfisherdev/clusterpanel/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/clusterpanel/internal/application"
	"github.com/ericfisherdev/clusterpanel/internal/config"
	"github.com/ericfisherdev/clusterpanel/internal/domain/port/driven"
)

// ErrManagementNotConfigured is returned by NewExplorer when the subscription
// or bearer token is missing.
var ErrManagementNotConfigured = errors.New(
	"CLUSTERPANEL_SUBSCRIPTION_ID and CLUSTERPANEL_ARM_TOKEN are required")

// Store bundles the local state database and the credential store built on it.
type Store struct {
	DB          *sqliteadapter.DB
	Vault       *keyring.Vault
	Credentials *application.CredentialService
}

// OpenStore opens the state database, runs migrations and builds the
// credential store. The OS keychain is preferred; the encrypted SQLite vault
// is used when the keychain is unavailable.
func OpenStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Store, error) {
	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}

	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		_ = db.Close()
		return nil, err
	}

	fallback := sqliteadapter.NewSecretRepo(db, cfg.SecretKey)
	vault := keyring.NewVault(fallback, cfg.KeyringProbeTimeout, logger)
	state := sqliteadapter.NewStateRepo(db)

	return &Store{
		DB:          db,
		Vault:       vault,
		Credentials: application.NewCredentialService(vault, state, cfg.KeyringService, logger),
	}, nil
}

// Close releases the state database.
func (s *Store) Close() error {
	return s.DB.Close()
}

// NewExplorer builds the resource tree over the management API and the
// configured database engine.
func NewExplorer(cfg *config.Config, store *Store, logger *slog.Logger) (*application.Explorer, error) {
	if !cfg.HasManagementCredentials() {
		return nil, ErrManagementNotConfigured
	}

	mgmt, err := arm.NewClient(arm.Options{
		SubscriptionID:   cfg.SubscriptionID,
		Endpoint:         cfg.ARMEndpoint,
		ResourceProvider: cfg.ResourceProvider,
		APIVersion:       cfg.APIVersion,
		Credential:       arm.StaticToken(cfg.ARMToken),
	})
	if err != nil {
		return nil, err
	}

	connector, err := Connector(cfg.Engine)
	if err != nil {
		return nil, err
	}

	rootCA, err := loadRootCA(cfg.RootCAFile)
	if err != nil {
		return nil, err
	}

	return application.NewExplorer(mgmt, store.Credentials, connector, rootCA, logger), nil
}

// Connector returns the database wire client for engine.
func Connector(engine string) (driven.DatabaseConnector, error) {
	switch engine {
	case config.EnginePostgres:
		return postgres.Connector{}, nil
	case config.EngineClickHouse:
		return clickhouse.Connector{}, nil
	default:
		return nil, fmt.Errorf("unsupported engine %q", engine)
	}
}

// loadRootCA reads the PEM root CA override. An empty path selects the
// built-in root.
func loadRootCA(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	pem, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read root CA %s: %w", path, err)
	}
	return string(pem), nil
}
