// Package clickhouse implements the DatabaseConnector port for ClickHouse
// clusters reached over the HTTPS interface.
package clickhouse

import (
	"context"
	"errors"
	"fmt"
	"net"
	"regexp"
	"strconv"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	chdriver "github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/ericfisherdev/clusterpanel/internal/adapter/driven/tlsconf"
	"github.com/ericfisherdev/clusterpanel/internal/domain/model"
	"github.com/ericfisherdev/clusterpanel/internal/domain/port/driven"
)

// Server exception codes that map onto recoverable connection failures.
const (
	codeUnknownUser          = 192
	codeWrongPassword        = 193
	codeRequiredPassword     = 194
	codeIPAddressNotAllowed  = 195
	codeAuthenticationFailed = 516
)

const tablesQuery = `
	SELECT database, name
	FROM system.tables
	WHERE database NOT IN ('system', 'INFORMATION_SCHEMA', 'information_schema')
	  AND NOT is_temporary
	ORDER BY database, name`

const dialTimeout = 10 * time.Second

// Over HTTP the server error arrives as text, e.g. "code: 516, message: ...".
var codePattern = regexp.MustCompile(`(?i)code:\s*(\d+)`)

// Compile-time interface satisfaction checks.
var (
	_ driven.DatabaseConnector = Connector{}
	_ driven.DatabaseClient    = (*Client)(nil)
)

// Connector builds clickhouse-go clients.
type Connector struct{}

// NewClient returns an unconnected client for cfg.
func (Connector) NewClient(cfg model.ClientConfig) driven.DatabaseClient {
	return &Client{cfg: cfg}
}

// Client holds one clickhouse-go connection.
type Client struct {
	cfg  model.ClientConfig
	conn chdriver.Conn
}

// Connect opens the connection and pings the server so authentication and
// reachability failures surface here.
func (c *Client) Connect(ctx context.Context) error {
	opts, err := buildOptions(c.cfg)
	if err != nil {
		return err
	}

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return classify(err)
	}
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return classify(err)
	}
	c.conn = conn
	return nil
}

// IntrospectTables lists tables outside the system databases. The database a
// table lives in is reported as its schema.
func (c *Client) IntrospectTables(ctx context.Context) ([]model.Table, error) {
	if c.conn == nil {
		return nil, errors.New("clickhouse: not connected")
	}

	rows, err := c.conn.Query(ctx, tablesQuery)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	defer rows.Close()

	tables := []model.Table{}
	for rows.Next() {
		var t model.Table
		if err := rows.Scan(&t.Schema, &t.Name); err != nil {
			return nil, fmt.Errorf("scan table: %w", err)
		}
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}
	return tables, nil
}

// Close closes the connection if one was opened.
func (c *Client) Close(context.Context) error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

func buildOptions(cfg model.ClientConfig) (*clickhouse.Options, error) {
	port := cfg.Port
	if port == 0 {
		port = model.DefaultPort
	}

	tlsCfg, err := tlsconf.Config(cfg)
	if err != nil {
		return nil, err
	}

	return &clickhouse.Options{
		Addr:     []string{net.JoinHostPort(cfg.Host, strconv.Itoa(port))},
		Protocol: clickhouse.HTTP,
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		TLS:          tlsCfg,
		DialTimeout:  dialTimeout,
		MaxOpenConns: 1,
	}, nil
}

// classify wraps err with the matching connection-failure sentinel.
func classify(err error) error {
	code, ok := exceptionCode(err)
	if ok {
		switch code {
		case codeUnknownUser, codeWrongPassword, codeRequiredPassword, codeAuthenticationFailed:
			return fmt.Errorf("%w: %w", driven.ErrInvalidCredentials, err)
		case codeIPAddressNotAllowed:
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

func exceptionCode(err error) (int32, bool) {
	var exception *clickhouse.Exception
	if errors.As(err, &exception) {
		return exception.Code, true
	}

	m := codePattern.FindStringSubmatch(err.Error())
	if m == nil {
		return 0, false
	}
	code, convErr := strconv.ParseInt(m[1], 10, 32)
	if convErr != nil {
		return 0, false
	}
	return int32(code), true
}
