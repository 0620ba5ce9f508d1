package model

// DefaultPort is the port every wire-client connection targets.
const DefaultPort = 443

// ClientConfig carries everything the database wire client needs to open a
// connection. It is built once, after credential validation succeeds, and is
// never mutated afterwards.
type ClientConfig struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string

	// RootCA is the PEM-encoded trust anchor offered on every connection,
	// whether or not the server requires TLS.
	RootCA string
}
