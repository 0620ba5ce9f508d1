package arm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"

	"github.com/ericfisherdev/clusterpanel/internal/domain/model"
	"github.com/ericfisherdev/clusterpanel/internal/domain/port/driven"
)

func (c *Client) databasePath(resourceGroup, cluster, name string) string {
	path := c.clusterPath(resourceGroup, cluster) + "/databases"
	if name != "" {
		path += "/" + url.PathEscape(name)
	}
	return path
}

// ListDatabases returns the databases of a cluster in API order. Names of
// nested resources come back as "cluster/database"; only the last segment is kept.
func (c *Client) ListDatabases(ctx context.Context, resourceGroup, cluster string) ([]model.Database, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.databasePath(resourceGroup, cluster, ""))
	if err != nil {
		return nil, fmt.Errorf("listing databases for %s: %w", cluster, err)
	}

	databases := []model.Database{}
	for n := 1; ; n++ {
		var result listPage[databaseResource]
		if err := c.doJSON(req, &result, http.StatusOK); err != nil {
			return nil, fmt.Errorf("listing databases for %s (page %d): %w", cluster, n, err)
		}

		for _, r := range result.Value {
			databases = append(databases, model.Database{Name: childName(r.Name)})
		}

		if result.NextLink == "" {
			break
		}
		req, err = runtime.NewRequest(ctx, http.MethodGet, result.NextLink)
		if err != nil {
			return nil, fmt.Errorf("listing databases for %s (page %d): %w", cluster, n+1, err)
		}
		req.Raw().Header["Accept"] = []string{"application/json"}
	}

	return databases, nil
}

// CreateDatabase creates a read-write database in the cluster's region and
// waits for provisioning to finish.
func (c *Client) CreateDatabase(ctx context.Context, resourceGroup, cluster, name string) (model.Database, error) {
	parent, err := c.getCluster(ctx, resourceGroup, cluster)
	if err != nil {
		return model.Database{}, fmt.Errorf("creating database %s: %w", name, err)
	}

	req, err := c.newRequest(ctx, http.MethodPut, c.databasePath(resourceGroup, cluster, name))
	if err != nil {
		return model.Database{}, fmt.Errorf("creating database %s: %w", name, err)
	}
	body := databaseResource{Location: parent.Location, Kind: "ReadWrite"}
	if err := runtime.MarshalAsJSON(req, body); err != nil {
		return model.Database{}, fmt.Errorf("creating database %s: %w", name, err)
	}

	resp, err := c.arm.Pipeline().Do(req)
	if err != nil {
		return model.Database{}, fmt.Errorf("creating database %s: %w", name, err)
	}

	var created databaseResource
	switch resp.StatusCode {
	case http.StatusOK:
		err = runtime.UnmarshalAsJSON(resp, &created)
	case http.StatusCreated, http.StatusAccepted:
		created, err = pollUntilDone[databaseResource](ctx, c, resp)
	default:
		err = runtime.NewResponseError(resp)
	}
	if err != nil {
		return model.Database{}, fmt.Errorf("creating database %s: %w", name, err)
	}

	db := model.Database{Name: childName(created.Name)}
	if db.Name == "" {
		db.Name = name
	}
	return db, nil
}

// DeleteDatabase deletes a database and waits for the operation to finish.
func (c *Client) DeleteDatabase(ctx context.Context, resourceGroup, cluster, name string) error {
	if err := c.delete(ctx, c.databasePath(resourceGroup, cluster, name), driven.ErrNodeNotFound); err != nil {
		return fmt.Errorf("deleting database %s on %s: %w", name, cluster, err)
	}
	return nil
}

// childName strips the "parent/" prefix ARM puts on nested resource names.
func childName(name string) string {
	return name[strings.LastIndexByte(name, '/')+1:]
}
