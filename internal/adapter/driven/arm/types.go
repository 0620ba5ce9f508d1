package arm

import (
	"net/url"

	"github.com/ericfisherdev/clusterpanel/internal/domain/model"
)

type listPage[T any] struct {
	Value    []T    `json:"value"`
	NextLink string `json:"nextLink"`
}

type clusterResource struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Location   string `json:"location"`
	Properties struct {
		URI                      string `json:"uri"`
		FullyQualifiedDomainName string `json:"fullyQualifiedDomainName"`
		ProvisioningState        string `json:"provisioningState"`
	} `json:"properties"`
}

func (r clusterResource) toModel() model.Cluster {
	return model.Cluster{
		ID:            r.ID,
		Name:          r.Name,
		ResourceGroup: model.ResourceGroupFromID(r.ID),
		EndpointHost:  r.endpointHost(),
	}
}

// endpointHost prefers the explicit FQDN and falls back to the host of the
// cluster URI.
func (r clusterResource) endpointHost() string {
	if r.Properties.FullyQualifiedDomainName != "" {
		return r.Properties.FullyQualifiedDomainName
	}
	if r.Properties.URI == "" {
		return ""
	}
	u, err := url.Parse(r.Properties.URI)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

type databaseResource struct {
	ID         string             `json:"id,omitempty"`
	Name       string             `json:"name,omitempty"`
	Location   string             `json:"location,omitempty"`
	Kind       string             `json:"kind,omitempty"`
	Properties databaseProperties `json:"properties"`
}

type databaseProperties struct {
	ProvisioningState string `json:"provisioningState,omitempty"`
}
