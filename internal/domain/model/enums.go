package model

// NodeKind identifies a tree node variant.
type NodeKind string

const (
	NodeKindCluster        NodeKind = "cluster"
	NodeKindDatabase       NodeKind = "database"
	NodeKindTableContainer NodeKind = "tables"
	NodeKindTable          NodeKind = "table"
	NodeKindCommand        NodeKind = "command"
)

// Command IDs dispatched by the host when an affordance node is activated.
const (
	CommandEnterCredentials  = "clusterpanel.enterCredentials"
	CommandConfigureFirewall = "clusterpanel.configureFirewall"
)
