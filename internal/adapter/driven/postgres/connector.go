// Package postgres implements the DatabaseConnector port for servers speaking
// the PostgreSQL wire protocol, using pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ericfisherdev/clusterpanel/internal/adapter/driven/tlsconf"
	"github.com/ericfisherdev/clusterpanel/internal/domain/model"
	"github.com/ericfisherdev/clusterpanel/internal/domain/port/driven"
)

// SQLSTATE codes that map onto recoverable connection failures.
const (
	codeInvalidPassword               = "28P01"
	codeInvalidAuthorizationSpecifier = "28000" // also sent when no pg_hba entry matches the client address
)

const tablesQuery = `
	SELECT table_schema, table_name
	FROM information_schema.tables
	WHERE table_type = 'BASE TABLE'
	  AND table_schema NOT IN ('pg_catalog', 'information_schema')
	ORDER BY table_schema, table_name`

// Compile-time interface satisfaction checks.
var (
	_ driven.DatabaseConnector = Connector{}
	_ driven.DatabaseClient    = (*Client)(nil)
)

// Connector builds pgx-backed clients.
type Connector struct{}

// NewClient returns an unconnected client for cfg.
func (Connector) NewClient(cfg model.ClientConfig) driven.DatabaseClient {
	return &Client{cfg: cfg}
}

// Client is a single pgx connection. It is not safe for concurrent use.
type Client struct {
	cfg  model.ClientConfig
	conn *pgx.Conn
}

// Connect opens the connection. TLS is offered with the pinned root CA; a
// server that does not support TLS is retried in plaintext.
func (c *Client) Connect(ctx context.Context) error {
	connCfg, err := buildConfig(c.cfg)
	if err != nil {
		return err
	}

	conn, err := pgx.ConnectConfig(ctx, connCfg)
	if err != nil {
		return classify(err)
	}
	c.conn = conn
	return nil
}

// IntrospectTables lists base tables outside the system schemas.
func (c *Client) IntrospectTables(ctx context.Context) ([]model.Table, error) {
	if c.conn == nil {
		return nil, errors.New("postgres: not connected")
	}

	rows, err := c.conn.Query(ctx, tablesQuery)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}

	tables, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Table, error) {
		var t model.Table
		err := row.Scan(&t.Schema, &t.Name)
		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan tables: %w", err)
	}
	return tables, nil
}

// Close closes the connection if one was opened.
func (c *Client) Close(ctx context.Context) error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close(ctx)
	c.conn = nil
	return err
}

func buildConfig(cfg model.ClientConfig) (*pgx.ConnConfig, error) {
	port := cfg.Port
	if port == 0 {
		port = model.DefaultPort
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.Username, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(port)),
		Path:     "/" + cfg.Database,
		RawQuery: "sslmode=prefer",
	}

	connCfg, err := pgx.ParseConfig(u.String())
	if err != nil {
		return nil, fmt.Errorf("parse connection config: %w", err)
	}

	tlsCfg, err := tlsconf.Config(cfg)
	if err != nil {
		return nil, err
	}

	// sslmode=prefer yields a TLS attempt without verification plus a
	// plaintext fallback; swap in the verifying configuration.
	if connCfg.TLSConfig != nil {
		connCfg.TLSConfig = tlsCfg
	}
	for _, fb := range connCfg.Fallbacks {
		if fb.TLSConfig != nil {
			fb.TLSConfig = tlsCfg.Clone()
		}
	}
	return connCfg, nil
}

// classify wraps err with the matching connection-failure sentinel.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeInvalidPassword:
			return fmt.Errorf("%w: %w", driven.ErrInvalidCredentials, err)
		case codeInvalidAuthorizationSpecifier:
			return fmt.Errorf("%w: %w", driven.ErrNetworkBlocked, err)
		}
		return err
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return fmt.Errorf("%w: %w", driven.ErrNetworkBlocked, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %w", driven.ErrNetworkBlocked, err)
	}
	return err
}
