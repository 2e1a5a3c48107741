package tlsconfig

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"time"

	"granite/pkg/config"
)

// Build constructs the *tls.Config for the admin ConfigApi listener from
// cfg. It returns (nil, nil) when cfg.TLS is false. The certificate/key pair
// is loaded and its leaf parsed as pkg/certstore does for per-SNI bindings,
// and additionally rejected outside its validity period. When cfg.MutualTLS
// is set, client certificates are required but verified at the application
// layer (DER-byte comparison against cfg.ClientCert, per SPEC_FULL.md §4.7)
// rather than via a CA pool, so ClientAuth is set to RequireAnyClientCert
// here and enforcement happens in pkg/configapi's auth middleware.
func Build(cfg config.APIConfig) (*tls.Config, error) {
	if !cfg.TLS {
		return nil, nil
	}
	if cfg.Cert == "" || cfg.Key == "" {
		return nil, fmt.Errorf("api.cert and api.key are required when api.tls is true")
	}

	cert, err := loadAndValidate(cfg.Cert, cfg.Key)
	if err != nil {
		return nil, err
	}

	tlsCfg := &tls.Config{
		Certificates: []tls.Certificate{*cert},
		MinVersion:   tls.VersionTLS13,
	}
	if cfg.MutualTLS {
		tlsCfg.ClientAuth = tls.RequireAnyClientCert
	}
	return tlsCfg, nil
}

// loadAndValidate loads a PEM certificate/key pair and rejects it if the
// leaf has expired or is not yet valid.
func loadAndValidate(certFile, keyFile string) (*tls.Certificate, error) {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("load admin api certificate: %w", err)
	}
	if len(cert.Certificate) == 0 {
		return nil, fmt.Errorf("admin api certificate chain is empty")
	}
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return nil, fmt.Errorf("parse admin api certificate: %w", err)
	}
	now := time.Now()
	if now.Before(leaf.NotBefore) || now.After(leaf.NotAfter) {
		return nil, fmt.Errorf("admin api certificate is not valid at %s (valid from %s to %s)",
			now.Format(time.RFC3339), leaf.NotBefore.Format(time.RFC3339), leaf.NotAfter.Format(time.RFC3339))
	}
	cert.Leaf = leaf
	return &cert, nil
}

// LoadClientCertDER reads the PEM file at path and returns the DER bytes of
// its first certificate, for comparison against a presented client
// certificate's raw bytes.
func LoadClientCertDER(path string) ([]byte, error) {
	pemBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read client_cert: %w", err)
	}
	block, _ := pem.Decode(pemBytes)
	if block == nil || block.Type != "CERTIFICATE" {
		return nil, fmt.Errorf("client_cert %q contains no PEM certificate block", path)
	}
	return block.Bytes, nil
}
