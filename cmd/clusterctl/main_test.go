package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/clusterpanel/internal/application"
	"github.com/ericfisherdev/clusterpanel/internal/domain/model"
	"github.com/ericfisherdev/clusterpanel/internal/domain/port/driven"
)

const clusterID = "/subscriptions/sub/resourceGroups/rg/providers/Microsoft.Kusto/clusters/alpha"

type stubManagement struct {
	mu        sync.Mutex
	databases []model.Database
}

func (m *stubManagement) ListClusters(context.Context) ([]model.Cluster, error) {
	return []model.Cluster{{ID: clusterID, Name: "alpha", ResourceGroup: "rg", EndpointHost: "alpha.example.net"}}, nil
}

func (m *stubManagement) ListDatabases(context.Context, string, string) ([]model.Database, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Database(nil), m.databases...), nil
}

func (m *stubManagement) CreateDatabase(_ context.Context, _, _, name string) (model.Database, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.databases = append(m.databases, model.Database{Name: name})
	return model.Database{Name: name}, nil
}

func (m *stubManagement) DeleteDatabase(_ context.Context, _, _, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, db := range m.databases {
		if db.Name == name {
			m.databases = append(m.databases[:i], m.databases[i+1:]...)
			return nil
		}
	}
	return driven.ErrNodeNotFound
}

func (m *stubManagement) DeleteCluster(context.Context, string, string) error { return nil }

type stubCredentials struct {
	mu    sync.Mutex
	creds map[string]model.Credential
}

func (s *stubCredentials) Get(_ context.Context, id string) (*model.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.creds[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (s *stubCredentials) Set(_ context.Context, c model.Credential) error {
	if !c.Complete() {
		return model.NewValidationError("username and password are required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[c.ClusterID] = c
	return nil
}

func (s *stubCredentials) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.creds, id)
	return nil
}

type stubConnector struct {
	tables []model.Table
}

func (c *stubConnector) NewClient(model.ClientConfig) driven.DatabaseClient { return c }
func (c *stubConnector) Connect(context.Context) error                      { return nil }
func (c *stubConnector) Close(context.Context) error                        { return nil }
func (c *stubConnector) IntrospectTables(context.Context) ([]model.Table, error) {
	return c.tables, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

type harness struct {
	mgmt  *stubManagement
	creds *stubCredentials
	open  openFunc
}

func newHarness() *harness {
	h := &harness{
		mgmt:  &stubManagement{databases: []model.Database{{Name: "sales"}, {Name: "azure_sys"}}},
		creds: &stubCredentials{creds: map[string]model.Credential{}},
	}
	connector := &stubConnector{tables: []model.Table{
		{Name: "orders", Schema: "public"},
		{Name: "orders", Schema: "archive"},
		{Name: "customers", Schema: "public"},
	}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	explorer := application.NewExplorer(h.mgmt, h.creds, connector, "", logger)
	h.open = func(context.Context) (*application.Explorer, io.Closer, error) {
		return explorer, nopCloser{}, nil
	}
	return h
}

func (h *harness) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand(h.open)
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTree_WithoutCredentialsShowsCommand(t *testing.T) {
	h := newHarness()

	out, err := h.run(t, "", "tree")
	require.NoError(t, err)

	assert.Contains(t, out, "alpha")
	assert.Contains(t, out, "sales")
	assert.NotContains(t, out, "azure_sys")
	assert.Contains(t, out, model.CommandEnterCredentials)
}

func TestTree_AfterCredentialsListsTables(t *testing.T) {
	h := newHarness()

	out, err := h.run(t, "", "credentials", "set", "alpha", "--username", "admin", "--password", "pw")
	require.NoError(t, err)
	assert.Contains(t, out, "Credentials stored for alpha")

	out, err = h.run(t, "", "tree", "alpha")
	require.NoError(t, err)

	assert.Contains(t, out, "Tables")
	assert.Contains(t, out, "public.orders")
	assert.Contains(t, out, "archive.orders")
	assert.Contains(t, out, "customers")
	assert.NotContains(t, out, "public.customers")
}

func TestTree_UnknownCluster(t *testing.T) {
	h := newHarness()

	_, err := h.run(t, "", "tree", "omega")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "omega")
}

func TestCredentialsSet_PasswordFromStdin(t *testing.T) {
	h := newHarness()

	_, err := h.run(t, "s3cret\n", "credentials", "set", "alpha", "--username", "admin", "--password-stdin")
	require.NoError(t, err)

	cred, err := h.creds.Get(context.Background(), clusterID)
	require.NoError(t, err)
	require.NotNil(t, cred)
	assert.Equal(t, "s3cret", cred.Password)
}

func TestCredentialsSet_RequiresPassword(t *testing.T) {
	h := newHarness()

	_, err := h.run(t, "", "credentials", "set", "alpha", "--username", "admin")
	require.Error(t, err)
}

func TestCredentialsRemove(t *testing.T) {
	h := newHarness()
	h.creds.creds[clusterID] = model.Credential{ClusterID: clusterID, Username: "admin", Password: "pw"}

	out, err := h.run(t, "", "credentials", "remove", "alpha")
	require.NoError(t, err)
	assert.Contains(t, out, "Credentials removed for alpha")
	assert.Empty(t, h.creds.creds)
}

func TestDatabaseCreateAndDelete(t *testing.T) {
	h := newHarness()

	out, err := h.run(t, "", "database", "create", "alpha", "reports")
	require.NoError(t, err)
	assert.Contains(t, out, clusterID+"/databases/reports")

	_, err = h.run(t, "", "db", "delete", "alpha", "reports")
	require.NoError(t, err)

	_, err = h.run(t, "", "database", "create", "alpha", "")
	require.Error(t, err)
}

func TestWalkTree_DepthLimit(t *testing.T) {
	h := newHarness()
	explorer, _, err := h.open(context.Background())
	require.NoError(t, err)

	clusters, err := explorer.Clusters(context.Background(), false)
	require.NoError(t, err)

	rows := walkTree(context.Background(), []application.Node{clusters[0]}, 1, false)
	require.Len(t, rows, 1)
	assert.Equal(t, model.NodeKindCluster, rows[0].kind)
	assert.True(t, clusters[0].HasMoreChildren())
}
