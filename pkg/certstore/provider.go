package certstore

import "crypto/tls"

// Provider implements the tls.Config.GetCertificate callback, resolving
// the handshake's SNI against a Store. It performs no I/O: Store.Lookup
// is an atomic snapshot read, so Provider never blocks the handshake.
type Provider struct {
	store *Store
}

// NewProvider wraps store for use as a tls.Config.GetCertificate source.
func NewProvider(store *Store) *Provider {
	return &Provider{store: store}
}

// GetCertificate resolves hello.ServerName to a certificate. Per
// SPEC_FULL.md §4.5, an empty or unmatched SNI with no "*" binding
// returns a nil certificate and nil error, which causes the standard
// library's TLS handshake to fail with unrecognized_name.
func (p *Provider) GetCertificate(hello *tls.ClientHelloInfo) (*tls.Certificate, error) {
	cert, ok := p.store.Lookup(hello.ServerName)
	if !ok {
		return nil, nil
	}
	return cert, nil
}
