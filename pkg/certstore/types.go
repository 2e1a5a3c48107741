// Package certstore holds the SNI-keyed certificate table used by the
// proxy's TLS listener, and the CertProvider callback that resolves a
// handshake's SNI to a certificate in constant time without blocking on
// storage I/O.
package certstore

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"strings"
)

// CertBinding pairs a SNI host with the certificate chain and private key
// to present for it. Host "*" is the fallback used when no exact SNI
// match exists. Cert and Key are PEM text, matching the admin API's wire
// contract.
type CertBinding struct {
	Host string `json:"host"`
	Cert string `json:"cert"` // PEM-encoded chain, leaf first
	Key  string `json:"key"`  // PEM-encoded private key
}

// normalizedHost lowercases Host the same way RouteStore normalizes its
// host keys, so lookups stay consistent across both stores.
func (b *CertBinding) normalizedHost() string {
	return strings.ToLower(b.Host)
}

// parse validates that Cert and Key form a usable pair and returns the
// tls.Certificate installed into the store on success.
func (b *CertBinding) parse() (*tls.Certificate, error) {
	if b.Host == "" {
		return nil, fmt.Errorf("host must not be empty")
	}
	cert, err := tls.X509KeyPair([]byte(b.Cert), []byte(b.Key))
	if err != nil {
		return nil, fmt.Errorf("key does not match certificate: %w", err)
	}
	if len(cert.Certificate) == 0 {
		return nil, fmt.Errorf("certificate chain is empty")
	}
	if _, err := x509.ParseCertificate(cert.Certificate[0]); err != nil {
		return nil, fmt.Errorf("failed to parse leaf certificate: %w", err)
	}
	return &cert, nil
}
