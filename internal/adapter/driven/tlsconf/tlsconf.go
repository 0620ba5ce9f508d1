// Package tlsconf builds the client TLS configuration shared by the database
// wire clients.
package tlsconf

import (
	"crypto/tls"
	"crypto/x509"
	"errors"

	"github.com/ericfisherdev/clusterpanel/internal/domain/model"
)

// ErrInvalidRootCA is returned when the configured root CA holds no usable
// PEM certificate.
var ErrInvalidRootCA = errors.New("root CA contains no PEM certificate")

// systemCertPool returns a mutable copy of the host roots.
var systemCertPool = x509.SystemCertPool

// Config returns a TLS configuration that verifies the server against
// cfg.Host. cfg.RootCA is added to the system roots; an empty RootCA uses the
// system roots alone.
func Config(cfg model.ClientConfig) (*tls.Config, error) {
	tlsCfg := &tls.Config{
		ServerName: cfg.Host,
		MinVersion: tls.VersionTLS12,
	}

	if cfg.RootCA != "" {
		pool, err := systemCertPool()
		if err != nil || pool == nil {
			pool = x509.NewCertPool()
		}
		if !pool.AppendCertsFromPEM([]byte(cfg.RootCA)) {
			return nil, ErrInvalidRootCA
		}
		tlsCfg.RootCAs = pool
	}
	return tlsCfg, nil
}
