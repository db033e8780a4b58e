package security

import (
	"cmp"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
)

// TLSConfig describes how a client authenticates brokers and, for mutual
// TLS, itself.
type TLSConfig struct {
	// SkipVerify disables broker certificate verification.
	SkipVerify bool `yaml:"skip_verify" mapstructure:"skip_verify"`
	// CAFile is a PEM bundle used instead of the system roots.
	CAFile string `yaml:"ca_file" mapstructure:"ca_file"`
	// CertFile and KeyFile are the client key pair for mutual TLS.
	CertFile string `yaml:"cert_file" mapstructure:"cert_file"`
	KeyFile  string `yaml:"key_file" mapstructure:"key_file"`
	// ServerName overrides the name checked against broker certificates.
	ServerName string `yaml:"server_name" mapstructure:"server_name"`
	MinVersion uint16 `yaml:"min_version" mapstructure:"min_version"`
}

// Build returns the *tls.Config for c, or nil when nothing is configured.
// The minimum version defaults to TLS 1.2.
func (c *TLSConfig) Build() (*tls.Config, error) {
	if !c.IsEnabled() {
		return nil, nil
	}
	tc := &tls.Config{
		InsecureSkipVerify: c.SkipVerify, //nolint:gosec // opt-in for throwaway clusters
		ServerName:         c.ServerName,
		MinVersion:         cmp.Or(c.MinVersion, tls.VersionTLS12),
	}
	var err error
	if tc.RootCAs, err = loadRoots(c.CAFile); err != nil {
		return nil, err
	}
	if c.CertFile != "" && c.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("security/tls: load client key pair: %w", err)
		}
		tc.Certificates = []tls.Certificate{cert}
	}
	return tc, nil
}

// loadRoots reads a PEM bundle. An empty path keeps the system roots.
func loadRoots(path string) (*x509.CertPool, error) {
	if path == "" {
		return nil, nil
	}
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("security/tls: read CA file: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("security/tls: no certificates in %s", path)
	}
	return pool, nil
}

// Validate reports a client certificate configured without its key or the
// other way round.
func (c *TLSConfig) Validate() error {
	if c == nil {
		return nil
	}
	if (c.CertFile == "") != (c.KeyFile == "") {
		return errors.New("security/tls: cert_file and key_file must be set together")
	}
	return nil
}

// IsEnabled reports whether any TLS field is set.
func (c *TLSConfig) IsEnabled() bool {
	if c == nil {
		return false
	}
	return c.SkipVerify || c.CAFile != "" || c.CertFile != "" || c.ServerName != ""
}
