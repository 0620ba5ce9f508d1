package arm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"

	"github.com/ericfisherdev/clusterpanel/internal/domain/model"
	"github.com/ericfisherdev/clusterpanel/internal/domain/port/driven"
)

// ListClusters returns every cluster of the configured resource type in the
// subscription, following nextLink pagination.
func (c *Client) ListClusters(ctx context.Context) ([]model.Cluster, error) {
	path := fmt.Sprintf("/subscriptions/%s/providers/%s", url.PathEscape(c.subscriptionID), c.provider)
	req, err := c.newRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, fmt.Errorf("listing clusters: %w", err)
	}

	clusters := []model.Cluster{}
	for n := 1; ; n++ {
		var result listPage[clusterResource]
		if err := c.doJSON(req, &result, http.StatusOK); err != nil {
			return nil, fmt.Errorf("listing clusters (page %d): %w", n, err)
		}

		for _, r := range result.Value {
			clusters = append(clusters, r.toModel())
		}

		if result.NextLink == "" {
			break
		}
		req, err = runtime.NewRequest(ctx, http.MethodGet, result.NextLink)
		if err != nil {
			return nil, fmt.Errorf("listing clusters (page %d): %w", n+1, err)
		}
		req.Raw().Header["Accept"] = []string{"application/json"}
	}

	return clusters, nil
}

// getCluster fetches one cluster resource.
func (c *Client) getCluster(ctx context.Context, resourceGroup, cluster string) (clusterResource, error) {
	var result clusterResource

	req, err := c.newRequest(ctx, http.MethodGet, c.clusterPath(resourceGroup, cluster))
	if err != nil {
		return result, err
	}

	resp, err := c.arm.Pipeline().Do(req)
	if err != nil {
		return result, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return result, fmt.Errorf("cluster %s: %w", cluster, driven.ErrClusterNotFound)
	}
	if !runtime.HasStatusCode(resp, http.StatusOK) {
		return result, runtime.NewResponseError(resp)
	}
	if err := runtime.UnmarshalAsJSON(resp, &result); err != nil {
		return result, err
	}
	return result, nil
}

// DeleteCluster deletes the cluster and waits for the operation to finish.
func (c *Client) DeleteCluster(ctx context.Context, resourceGroup, cluster string) error {
	if err := c.delete(ctx, c.clusterPath(resourceGroup, cluster), driven.ErrClusterNotFound); err != nil {
		return fmt.Errorf("deleting cluster %s: %w", cluster, err)
	}
	return nil
}

// delete issues a DELETE and waits for any long-running operation it starts.
// A missing resource is reported as notFound.
func (c *Client) delete(ctx context.Context, path string, notFound error) error {
	req, err := c.newRequest(ctx, http.MethodDelete, path)
	if err != nil {
		return err
	}

	resp, err := c.arm.Pipeline().Do(req)
	if err != nil {
		return err
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusAccepted:
		_, err := pollUntilDone[struct{}](ctx, c, resp)
		return err
	case http.StatusNotFound:
		return fmt.Errorf("%w: %w", notFound, runtime.NewResponseError(resp))
	default:
		return runtime.NewResponseError(resp)
	}
}

// doJSON sends req and decodes the body into out when the status is one of
// the expected codes.
func (c *Client) doJSON(req *policy.Request, out any, statusCodes ...int) error {
	resp, err := c.arm.Pipeline().Do(req)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %w", driven.ErrClusterNotFound, runtime.NewResponseError(resp))
	}
	if !runtime.HasStatusCode(resp, statusCodes...) {
		return runtime.NewResponseError(resp)
	}
	return runtime.UnmarshalAsJSON(resp, out)
}
