package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/clusterpanel/internal/domain/model"
)

// Connection failure classes. DatabaseClient implementations wrap native
// driver errors with one of these so callers can branch with errors.Is while
// the original error stays reachable through errors.As.
var (
	// ErrInvalidCredentials indicates the server rejected the username/password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNetworkBlocked indicates the client could not reach the server, or the
	// server refused the client's address (firewall not configured).
	ErrNetworkBlocked = errors.New("network blocked")
)

// DatabaseConnector builds database wire clients from a ClientConfig.
type DatabaseConnector interface {
	NewClient(cfg model.ClientConfig) DatabaseClient
}

// DatabaseClient defines the driven port for the database wire client.
// Close must be safe to call whether or not Connect succeeded.
type DatabaseClient interface {
	Connect(ctx context.Context) error
	// IntrospectTables returns every user table visible to the connection
	// together with the schema that contains it.
	IntrospectTables(ctx context.Context) ([]model.Table, error)
	Close(ctx context.Context) error
}
