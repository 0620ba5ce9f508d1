package arm_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	armAdapter "github.com/ericfisherdev/clusterpanel/internal/adapter/driven/arm"
	"github.com/ericfisherdev/clusterpanel/internal/domain/port/driven"
)

const (
	clustersPath = "/subscriptions/sub1/providers/Microsoft.Kusto/clusters"
	clusterPath  = "/subscriptions/sub1/resourceGroups/rg1/providers/Microsoft.Kusto/clusters/alpha"
)

// newTestClient creates a Client backed by a TLS httptest server running handler.
func newTestClient(t *testing.T, handler http.Handler) (*armAdapter.Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewTLSServer(handler)
	t.Cleanup(server.Close)

	client, err := armAdapter.NewClient(armAdapter.Options{
		SubscriptionID: "sub1",
		Endpoint:       server.URL,
		Credential:     armAdapter.StaticToken("test-token"),
		Transport:      server.Client().Transport,
	})
	require.NoError(t, err)

	return client, server
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestNewClient_Validation(t *testing.T) {
	_, err := armAdapter.NewClient(armAdapter.Options{Credential: armAdapter.StaticToken("t")})
	assert.Error(t, err)

	_, err = armAdapter.NewClient(armAdapter.Options{SubscriptionID: "sub1"})
	assert.Error(t, err)
}

func TestListClusters_Pagination(t *testing.T) {
	var server *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+clustersPath, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "2023-08-15", r.URL.Query().Get("api-version"))

		writeJSON(t, w, http.StatusOK, map[string]any{
			"value": []map[string]any{{
				"id":         clusterPath,
				"name":       "alpha",
				"location":   "westeurope",
				"properties": map[string]any{"uri": "https://alpha.westeurope.kusto.windows.net"},
			}},
			"nextLink": server.URL + "/page2?api-version=2023-08-15",
		})
	})
	mux.HandleFunc("GET /page2", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{
			"value": []map[string]any{{
				"id":   "/subscriptions/sub1/resourceGroups/rg2/providers/Microsoft.Kusto/clusters/beta",
				"name": "beta",
				"properties": map[string]any{
					"fullyQualifiedDomainName": "beta.example.net",
				},
			}},
		})
	})

	client, srv := newTestClient(t, mux)
	server = srv

	clusters, err := client.ListClusters(context.Background())
	require.NoError(t, err)
	require.Len(t, clusters, 2)

	assert.Equal(t, "alpha", clusters[0].Name)
	assert.Equal(t, "rg1", clusters[0].ResourceGroup)
	assert.Equal(t, "alpha.westeurope.kusto.windows.net", clusters[0].EndpointHost)
	assert.Equal(t, "beta", clusters[1].Name)
	assert.Equal(t, "rg2", clusters[1].ResourceGroup)
	assert.Equal(t, "beta.example.net", clusters[1].EndpointHost)
}

func TestListDatabases_StripsClusterPrefix(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+clusterPath+"/databases", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{
			"value": []map[string]any{
				{"name": "alpha/A"},
				{"name": "alpha/azure_sys"},
				{"name": "B"},
			},
		})
	})

	client, _ := newTestClient(t, mux)

	dbs, err := client.ListDatabases(context.Background(), "rg1", "alpha")
	require.NoError(t, err)
	require.Len(t, dbs, 3)
	assert.Equal(t, "A", dbs[0].Name)
	assert.Equal(t, "azure_sys", dbs[1].Name)
	assert.Equal(t, "B", dbs[2].Name)
}

func TestListDatabases_ClusterNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+clusterPath+"/databases", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusNotFound, map[string]any{
			"error": map[string]any{"code": "ResourceNotFound", "message": "not found"},
		})
	})

	client, _ := newTestClient(t, mux)

	_, err := client.ListDatabases(context.Background(), "rg1", "alpha")
	assert.ErrorIs(t, err, driven.ErrClusterNotFound)
}

func TestListClusters_ServerErrorIsSingleAttempt(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+clustersPath, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		writeJSON(t, w, http.StatusServiceUnavailable, map[string]any{
			"error": map[string]any{"code": "ServiceUnavailable", "message": "try later"},
		})
	})

	client, _ := newTestClient(t, mux)

	_, err := client.ListClusters(context.Background())
	require.Error(t, err)

	var respErr *azcore.ResponseError
	require.True(t, errors.As(err, &respErr))
	assert.Equal(t, http.StatusServiceUnavailable, respErr.StatusCode)
	assert.Equal(t, "ServiceUnavailable", respErr.ErrorCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCreateDatabase_Synchronous(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+clusterPath, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"id": clusterPath, "name": "alpha", "location": "westeurope"})
	})
	mux.HandleFunc("PUT "+clusterPath+"/databases/C", func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var req map[string]any
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "westeurope", req["location"])
		assert.Equal(t, "ReadWrite", req["kind"])

		writeJSON(t, w, http.StatusOK, map[string]any{"name": "alpha/C", "properties": map[string]any{"provisioningState": "Succeeded"}})
	})

	client, _ := newTestClient(t, mux)

	db, err := client.CreateDatabase(context.Background(), "rg1", "alpha", "C")
	require.NoError(t, err)
	assert.Equal(t, "C", db.Name)
}

func TestCreateDatabase_CreatedTerminalState(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+clusterPath, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"id": clusterPath, "name": "alpha", "location": "westeurope"})
	})
	mux.HandleFunc("PUT "+clusterPath+"/databases/C", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusCreated, map[string]any{"name": "alpha/C", "properties": map[string]any{"provisioningState": "Succeeded"}})
	})

	client, _ := newTestClient(t, mux)

	db, err := client.CreateDatabase(context.Background(), "rg1", "alpha", "C")
	require.NoError(t, err)
	assert.Equal(t, "C", db.Name)
}

func TestCreateDatabase_NameIsSingleEscapedSegment(t *testing.T) {
	names := []string{"a/b", "x?y", "x#y", "a/../../../other"}

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			var gotPath, gotQuery string
			client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				switch r.Method {
				case http.MethodGet:
					writeJSON(t, w, http.StatusOK, map[string]any{"id": clusterPath, "name": "alpha", "location": "westeurope"})
				case http.MethodPut:
					gotPath = r.URL.EscapedPath()
					gotQuery = r.URL.RawQuery
					writeJSON(t, w, http.StatusOK, map[string]any{})
				default:
					w.WriteHeader(http.StatusMethodNotAllowed)
				}
			}))

			db, err := client.CreateDatabase(context.Background(), "rg1", "alpha", name)
			require.NoError(t, err)

			assert.Equal(t, clusterPath+"/databases/"+url.PathEscape(name), gotPath)
			assert.Equal(t, "api-version=2023-08-15", gotQuery)
			assert.Equal(t, name, db.Name)
		})
	}
}

func TestCreateDatabase_UnknownCluster(t *testing.T) {
	var puts atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+clusterPath, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusNotFound, map[string]any{"error": map[string]any{"code": "ResourceNotFound"}})
	})
	mux.HandleFunc("PUT "+clusterPath+"/databases/C", func(w http.ResponseWriter, _ *http.Request) {
		puts.Add(1)
	})

	client, _ := newTestClient(t, mux)

	_, err := client.CreateDatabase(context.Background(), "rg1", "alpha", "C")
	assert.ErrorIs(t, err, driven.ErrClusterNotFound)
	assert.Zero(t, puts.Load())
}

func TestDeleteDatabase_LongRunning(t *testing.T) {
	var server *httptest.Server
	var polled atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("DELETE "+clusterPath+"/databases/A", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Location", server.URL+"/operations/op1")
		w.WriteHeader(http.StatusAccepted)
	})
	mux.HandleFunc("GET /operations/op1", func(w http.ResponseWriter, _ *http.Request) {
		polled.Add(1)
		w.WriteHeader(http.StatusNoContent)
	})

	client, srv := newTestClient(t, mux)
	server = srv

	require.NoError(t, client.DeleteDatabase(context.Background(), "rg1", "alpha", "A"))
	assert.Equal(t, int32(1), polled.Load())
}

func TestDeleteDatabase_NotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("DELETE "+clusterPath+"/databases/A", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusNotFound, map[string]any{"error": map[string]any{"code": "ResourceNotFound"}})
	})

	client, _ := newTestClient(t, mux)

	err := client.DeleteDatabase(context.Background(), "rg1", "alpha", "A")
	assert.ErrorIs(t, err, driven.ErrNodeNotFound)
}

func TestDeleteCluster(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{name: "no content", status: http.StatusNoContent},
		{name: "ok", status: http.StatusOK},
		{name: "not found", status: http.StatusNotFound, wantErr: driven.ErrClusterNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("DELETE "+clusterPath, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
			})

			client, _ := newTestClient(t, mux)

			err := client.DeleteCluster(context.Background(), "rg1", "alpha")
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestStaticToken(t *testing.T) {
	tok, err := armAdapter.StaticToken("abc").GetToken(context.Background(), policyOptions())
	require.NoError(t, err)
	assert.Equal(t, "abc", tok.Token)
	assert.False(t, tok.ExpiresOn.IsZero())

	_, err = armAdapter.StaticToken("").GetToken(context.Background(), policyOptions())
	assert.Error(t, err)
}

func policyOptions() policy.TokenRequestOptions {
	return policy.TokenRequestOptions{Scopes: []string{"https://management.core.windows.net//.default"}}
}
