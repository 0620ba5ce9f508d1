package application_test

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/ericfisherdev/clusterpanel/internal/domain/model"
	"github.com/ericfisherdev/clusterpanel/internal/domain/port/driven"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- Management API ---

type fakeManagement struct {
	mu sync.Mutex

	clusters  []model.Cluster
	databases map[string][]model.Database

	listClustersCalls  int
	listDatabasesCalls int
	created            []string
	deletedDatabases   []string
	deletedClusters    []string

	listDatabasesErr error
	createErr        error
	deleteClusterErr error
}

func (m *fakeManagement) ListClusters(_ context.Context) ([]model.Cluster, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listClustersCalls++
	return append([]model.Cluster(nil), m.clusters...), nil
}

func (m *fakeManagement) ListDatabases(_ context.Context, _, cluster string) ([]model.Database, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listDatabasesCalls++
	if m.listDatabasesErr != nil {
		return nil, m.listDatabasesErr
	}
	return append([]model.Database(nil), m.databases[cluster]...), nil
}

func (m *fakeManagement) CreateDatabase(_ context.Context, _, cluster, name string) (model.Database, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, name)
	if m.createErr != nil {
		return model.Database{}, m.createErr
	}
	m.databases[cluster] = append(m.databases[cluster], model.Database{Name: name})
	return model.Database{Name: name}, nil
}

func (m *fakeManagement) DeleteDatabase(_ context.Context, _, cluster, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletedDatabases = append(m.deletedDatabases, cluster+"/"+name)
	return nil
}

func (m *fakeManagement) DeleteCluster(_ context.Context, _, cluster string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletedClusters = append(m.deletedClusters, cluster)
	return m.deleteClusterErr
}

// --- Database wire client ---

type fakeConnector struct {
	mu sync.Mutex

	connectErr    error
	introspectErr error
	tables        []model.Table

	configs  []model.ClientConfig
	connects int
	closes   int
}

func (c *fakeConnector) NewClient(cfg model.ClientConfig) driven.DatabaseClient {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.configs = append(c.configs, cfg)
	return &fakeClient{connector: c}
}

func (c *fakeConnector) stats() (connects, closes int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connects, c.closes
}

type fakeClient struct {
	connector *fakeConnector
}

func (c *fakeClient) Connect(_ context.Context) error {
	c.connector.mu.Lock()
	defer c.connector.mu.Unlock()
	c.connector.connects++
	return c.connector.connectErr
}

func (c *fakeClient) IntrospectTables(_ context.Context) ([]model.Table, error) {
	c.connector.mu.Lock()
	defer c.connector.mu.Unlock()
	if c.connector.introspectErr != nil {
		return nil, c.connector.introspectErr
	}
	return append([]model.Table(nil), c.connector.tables...), nil
}

func (c *fakeClient) Close(_ context.Context) error {
	c.connector.mu.Lock()
	defer c.connector.mu.Unlock()
	c.connector.closes++
	return nil
}

// --- Vault and state store ---

type fakeVault struct {
	mu          sync.Mutex
	secrets     map[string]string
	unavailable bool
	setErr      error
	deleteErr   error
}

func newFakeVault() *fakeVault {
	return &fakeVault{secrets: make(map[string]string)}
}

func (v *fakeVault) GetSecret(service, account string) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.unavailable {
		return "", driven.ErrVaultUnavailable
	}
	secret, ok := v.secrets[service+"/"+account]
	if !ok {
		return "", driven.ErrSecretNotFound
	}
	return secret, nil
}

func (v *fakeVault) SetSecret(service, account, secret string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.unavailable {
		return driven.ErrVaultUnavailable
	}
	if v.setErr != nil {
		return v.setErr
	}
	v.secrets[service+"/"+account] = secret
	return nil
}

func (v *fakeVault) DeleteSecret(service, account string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.unavailable {
		return driven.ErrVaultUnavailable
	}
	if v.deleteErr != nil {
		return v.deleteErr
	}
	key := service + "/" + account
	if _, ok := v.secrets[key]; !ok {
		return driven.ErrSecretNotFound
	}
	delete(v.secrets, key)
	return nil
}

type fakeState struct {
	mu      sync.Mutex
	values  map[string]string
	updates int
}

func newFakeState() *fakeState {
	return &fakeState{values: make(map[string]string)}
}

func (s *fakeState) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *fakeState) Update(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	s.updates++
	return nil
}

// --- Credential store ---

type fakeCredentials struct {
	mu        sync.Mutex
	creds     map[string]model.Credential
	removed   []string
	removeErr error
}

func newFakeCredentials() *fakeCredentials {
	return &fakeCredentials{creds: make(map[string]model.Credential)}
}

func (f *fakeCredentials) Get(_ context.Context, clusterID string) (*model.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cred, ok := f.creds[clusterID]
	if !ok {
		return nil, nil
	}
	return &cred, nil
}

func (f *fakeCredentials) Set(_ context.Context, cred model.Credential) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creds[cred.ClusterID] = cred
	return nil
}

func (f *fakeCredentials) Remove(_ context.Context, clusterID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, clusterID)
	if f.removeErr != nil {
		return f.removeErr
	}
	delete(f.creds, clusterID)
	return nil
}
