package model

import "strings"

// ReservedDatabaseNames lists the service-internal databases that the
// management API reports for every cluster but which are never user-managed.
var ReservedDatabaseNames = []string{"azure_maintenance", "azure_sys"}

// Cluster represents a managed analytical-database cluster as reported by the
// cloud management API.
type Cluster struct {
	ID            string
	Name          string
	ResourceGroup string
	EndpointHost  string // Fully-qualified domain name used by the wire client.
}

// Database represents a database hosted by a cluster.
type Database struct {
	Name string
}

// IsReservedDatabase reports whether name is one of ReservedDatabaseNames.
func IsReservedDatabase(name string) bool {
	for _, reserved := range ReservedDatabaseNames {
		if name == reserved {
			return true
		}
	}
	return false
}

// ResourceGroupFromID extracts the resource group segment from a management
// resource ID such as
// "/subscriptions/{sub}/resourceGroups/{rg}/providers/{ns}/{type}/{name}".
// Returns "" when the ID carries no resource group.
func ResourceGroupFromID(id string) string {
	parts := strings.Split(strings.Trim(id, "/"), "/")
	for i := 0; i+1 < len(parts); i++ {
		if strings.EqualFold(parts[i], "resourceGroups") {
			return parts[i+1]
		}
	}
	return ""
}
