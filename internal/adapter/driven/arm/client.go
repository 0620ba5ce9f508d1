// Package arm implements the ManagementClient port against the Azure Resource
// Manager REST API using the azcore pipeline.
package arm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	azarm "github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/cloud"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/gregjones/httpcache"

	"github.com/ericfisherdev/clusterpanel/internal/domain/port/driven"
)

const (
	moduleName    = "clusterpanel/arm"
	moduleVersion = "v1.0.0"

	defaultEndpoint      = "https://management.azure.com"
	defaultAudience      = "https://management.core.windows.net/"
	defaultProvider      = "Microsoft.Kusto/clusters"
	defaultAPIVersion    = "2023-08-15"
	defaultPollFrequency = 10 * time.Second
)

// Compile-time interface satisfaction check.
var _ driven.ManagementClient = (*Client)(nil)

// Options configures a Client. Zero values select the public cloud defaults.
type Options struct {
	SubscriptionID string
	// Endpoint is the Resource Manager base URL.
	Endpoint string
	// ResourceProvider is the "{namespace}/{type}" of the cluster resource.
	ResourceProvider string
	APIVersion       string
	Credential       azcore.TokenCredential
	// Transport sits underneath the response cache; nil uses http.DefaultTransport.
	Transport     http.RoundTripper
	PollFrequency time.Duration
}

// Client implements driven.ManagementClient. Every operation is a single
// attempt: the pipeline retry policy is disabled.
type Client struct {
	arm            *azarm.Client
	subscriptionID string
	provider       string
	apiVersion     string
	pollFrequency  time.Duration
}

// NewClient creates a management client with the following transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. azcore ARM pipeline (bearer token, telemetry, logging; no retries)
func NewClient(opts Options) (*Client, error) {
	if opts.SubscriptionID == "" {
		return nil, errors.New("subscription id is required")
	}
	if opts.Credential == nil {
		return nil, errors.New("credential is required")
	}

	endpoint := strings.TrimRight(opts.Endpoint, "/")
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	provider := strings.Trim(opts.ResourceProvider, "/")
	if provider == "" {
		provider = defaultProvider
	}
	apiVersion := opts.APIVersion
	if apiVersion == "" {
		apiVersion = defaultAPIVersion
	}
	pollFrequency := opts.PollFrequency
	if pollFrequency <= 0 {
		pollFrequency = defaultPollFrequency
	}

	cacheTransport := httpcache.NewMemoryCacheTransport()
	if opts.Transport != nil {
		cacheTransport.Transport = opts.Transport
	}

	client, err := azarm.NewClient(moduleName, moduleVersion, opts.Credential, &azarm.ClientOptions{
		ClientOptions: policy.ClientOptions{
			Cloud: cloud.Configuration{
				ActiveDirectoryAuthorityHost: cloud.AzurePublic.ActiveDirectoryAuthorityHost,
				Services: map[cloud.ServiceName]cloud.ServiceConfiguration{
					cloud.ResourceManager: {Audience: defaultAudience, Endpoint: endpoint},
				},
			},
			Retry:                           policy.RetryOptions{MaxRetries: -1},
			Transport:                       cacheTransport.Client(),
			InsecureAllowCredentialWithHTTP: strings.HasPrefix(endpoint, "http://"),
		},
		DisableRPRegistration: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create arm client: %w", err)
	}

	return &Client{
		arm:            client,
		subscriptionID: opts.SubscriptionID,
		provider:       provider,
		apiVersion:     apiVersion,
		pollFrequency:  pollFrequency,
	}, nil
}

// newRequest builds a request for the subscription-relative path with the
// api-version query parameter set.
func (c *Client) newRequest(ctx context.Context, method, path string) (*policy.Request, error) {
	req, err := runtime.NewRequest(ctx, method, runtime.JoinPaths(c.arm.Endpoint(), path))
	if err != nil {
		return nil, err
	}
	c.prepare(req)
	return req, nil
}

func (c *Client) prepare(req *policy.Request) {
	q := req.Raw().URL.Query()
	q.Set("api-version", c.apiVersion)
	req.Raw().URL.RawQuery = q.Encode()
	req.Raw().Header["Accept"] = []string{"application/json"}
}

// clusterPath returns the path of one cluster, or of the cluster collection
// within resourceGroup when name is empty. Every caller-supplied segment is
// path-escaped so names cannot add segments, queries or fragments.
func (c *Client) clusterPath(resourceGroup, name string) string {
	path := fmt.Sprintf("/subscriptions/%s/resourceGroups/%s/providers/%s",
		url.PathEscape(c.subscriptionID), url.PathEscape(resourceGroup), c.provider)
	if name != "" {
		path += "/" + url.PathEscape(name)
	}
	return path
}

// pollUntilDone waits for a long-running operation started by resp.
func pollUntilDone[T any](ctx context.Context, c *Client, resp *http.Response) (T, error) {
	var zero T
	poller, err := runtime.NewPoller[T](resp, c.arm.Pipeline(), nil)
	if err != nil {
		return zero, fmt.Errorf("create poller: %w", err)
	}
	return poller.PollUntilDone(ctx, &runtime.PollUntilDoneOptions{Frequency: c.pollFrequency})
}
