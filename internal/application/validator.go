package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ericfisherdev/clusterpanel/internal/domain/model"
	"github.com/ericfisherdev/clusterpanel/internal/domain/port/driven"
)

// OutcomeKind enumerates the results of a validation probe.
type OutcomeKind int

const (
	// OutcomeConnected means the probe connected; the config is usable.
	OutcomeConnected OutcomeKind = iota
	// OutcomeNeedsCredentials means credentials are missing or were rejected.
	OutcomeNeedsCredentials
	// OutcomeNeedsFirewallConfig means the server could not be reached or
	// refused the client's address.
	OutcomeNeedsFirewallConfig
	// OutcomeFatal means an unclassified failure; Err must reach the host as is.
	OutcomeFatal
)

// String returns a short name for logs.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeConnected:
		return "connected"
	case OutcomeNeedsCredentials:
		return "needs_credentials"
	case OutcomeNeedsFirewallConfig:
		return "needs_firewall_config"
	case OutcomeFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Outcome is the typed result of credential validation. Err is nil for
// OutcomeConnected and for missing credentials, and carries the original
// probe error otherwise.
type Outcome struct {
	Kind OutcomeKind
	Err  error
}

// Classify maps a probe error onto an Outcome. Only ErrInvalidCredentials and
// ErrNetworkBlocked are recoverable; anything else is fatal.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return Outcome{Kind: OutcomeConnected}
	case errors.Is(err, driven.ErrInvalidCredentials):
		return Outcome{Kind: OutcomeNeedsCredentials, Err: err}
	case errors.Is(err, driven.ErrNetworkBlocked):
		return Outcome{Kind: OutcomeNeedsFirewallConfig, Err: err}
	default:
		return Outcome{Kind: OutcomeFatal, Err: err}
	}
}

// ConnectionValidator opens a throwaway connection to confirm a ClientConfig.
// The probe connection is never reused.
type ConnectionValidator struct {
	connector driven.DatabaseConnector
	logger    *slog.Logger
}

// NewConnectionValidator creates a ConnectionValidator.
func NewConnectionValidator(connector driven.DatabaseConnector, logger *slog.Logger) *ConnectionValidator {
	return &ConnectionValidator{connector: connector, logger: logger}
}

// Validate connects with cfg, closes the connection on every path, and
// classifies the result.
func (v *ConnectionValidator) Validate(ctx context.Context, cfg model.ClientConfig) Outcome {
	client := v.connector.NewClient(cfg)
	defer func() {
		if err := client.Close(ctx); err != nil {
			v.logger.Warn("failed to close validation probe", "host", cfg.Host, "database", cfg.Database, "error", err)
		}
	}()

	outcome := Classify(client.Connect(ctx))
	if outcome.Kind != OutcomeConnected {
		v.logger.Info("validation probe failed",
			"host", cfg.Host,
			"database", cfg.Database,
			"outcome", outcome.Kind.String(),
			"error", outcome.Err,
		)
	}
	return outcome
}
