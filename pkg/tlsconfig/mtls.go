package tlsconfig

import (
	"bytes"
	"crypto/x509"
	"net/http"
)

// VerifyPeerCert reports whether r presented a client certificate whose DER
// bytes exactly match expectedDER, per SPEC_FULL.md §4.7's "client cert
// whose DER bytes match the configured client_cert". This is a literal
// byte-identity check, not CA-chain verification: the admin API treats
// client_cert as a single pinned identity rather than a trust root.
func VerifyPeerCert(r *http.Request, expectedDER []byte) bool {
	cert := PeerCertificate(r)
	if cert == nil {
		return false
	}
	return bytes.Equal(cert.Raw, expectedDER)
}

// PeerCertificate returns the leaf client certificate presented on r's TLS
// connection, or nil if the request is plaintext or no certificate was
// presented.
func PeerCertificate(r *http.Request) *x509.Certificate {
	if r.TLS == nil || len(r.TLS.PeerCertificates) == 0 {
		return nil
	}
	return r.TLS.PeerCertificates[0]
}
