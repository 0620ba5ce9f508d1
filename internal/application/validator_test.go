package application_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/clusterpanel/internal/application"
	"github.com/ericfisherdev/clusterpanel/internal/domain/model"
	"github.com/ericfisherdev/clusterpanel/internal/domain/port/driven"
)

func fmtWrap(sentinel error) error {
	return fmt.Errorf("%w: %w", sentinel, errors.New("driver detail"))
}

func TestClassify(t *testing.T) {
	fatal := errors.New("unexpected EOF")

	tests := []struct {
		name string
		err  error
		want application.OutcomeKind
	}{
		{name: "nil", err: nil, want: application.OutcomeConnected},
		{name: "invalid credentials", err: fmtWrap(driven.ErrInvalidCredentials), want: application.OutcomeNeedsCredentials},
		{name: "network blocked", err: fmtWrap(driven.ErrNetworkBlocked), want: application.OutcomeNeedsFirewallConfig},
		{name: "other", err: fatal, want: application.OutcomeFatal},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := application.Classify(tc.err)
			assert.Equal(t, tc.want, got.Kind)
			assert.Equal(t, tc.err, got.Err)
		})
	}
}

func TestOutcomeKindString(t *testing.T) {
	assert.Equal(t, "connected", application.OutcomeConnected.String())
	assert.Equal(t, "needs_credentials", application.OutcomeNeedsCredentials.String())
	assert.Equal(t, "needs_firewall_config", application.OutcomeNeedsFirewallConfig.String())
	assert.Equal(t, "fatal", application.OutcomeFatal.String())
	assert.Equal(t, "unknown", application.OutcomeKind(99).String())
}

func TestValidate_ClosesProbe(t *testing.T) {
	connector := &fakeConnector{connectErr: errors.New("reset by peer")}
	validator := application.NewConnectionValidator(connector, discardLogger())

	outcome := validator.Validate(context.Background(), model.ClientConfig{Host: "h", Database: "d"})

	require.Equal(t, application.OutcomeFatal, outcome.Kind)
	connects, closes := connector.stats()
	assert.Equal(t, 1, connects)
	assert.Equal(t, 1, closes)
}
