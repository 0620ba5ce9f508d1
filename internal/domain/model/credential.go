package model

// Credential holds the username/password pair stored for a cluster.
// Username is persisted in the credential index; Password lives in the vault.
type Credential struct {
	ClusterID string
	Username  string
	Password  string
}

// Complete reports whether both halves of the pair are present.
func (c Credential) Complete() bool {
	return c.Username != "" && c.Password != ""
}

// PersistedCluster is one entry of the JSON-encoded credential index. The index
// holds at most one entry per cluster ID.
type PersistedCluster struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}
