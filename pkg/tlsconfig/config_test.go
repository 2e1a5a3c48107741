package tlsconfig

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"granite/pkg/config"
)

func writeSelfSignedPair(t *testing.T, dir, name, commonName string) (certPath, keyPath string, der []byte) {
	t.Helper()
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: commonName},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}
	certDER, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &priv.PublicKey, priv)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}
	keyDER, err := x509.MarshalECPrivateKey(priv)
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}

	certPath = filepath.Join(dir, name+".crt")
	keyPath = filepath.Join(dir, name+".key")
	if err := os.WriteFile(certPath, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER}), 0o600); err != nil {
		t.Fatalf("write cert: %v", err)
	}
	if err := os.WriteFile(keyPath, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0o600); err != nil {
		t.Fatalf("write key: %v", err)
	}
	return certPath, keyPath, certDER
}

func TestBuildReturnsNilWhenTLSDisabled(t *testing.T) {
	tlsCfg, err := Build(config.APIConfig{TLS: false})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if tlsCfg != nil {
		t.Error("expected nil tls.Config when api.tls is false")
	}
}

func TestBuildLoadsCertificate(t *testing.T) {
	dir := t.TempDir()
	certPath, keyPath, _ := writeSelfSignedPair(t, dir, "admin", "config-api")

	tlsCfg, err := Build(config.APIConfig{TLS: true, Cert: certPath, Key: keyPath})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(tlsCfg.Certificates) != 1 {
		t.Fatalf("expected 1 certificate, got %d", len(tlsCfg.Certificates))
	}
}

func TestBuildMutualTLSRequestsClientCert(t *testing.T) {
	dir := t.TempDir()
	certPath, keyPath, _ := writeSelfSignedPair(t, dir, "admin", "config-api")

	tlsCfg, err := Build(config.APIConfig{TLS: true, Cert: certPath, Key: keyPath, MutualTLS: true})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if tlsCfg.ClientAuth == 0 {
		t.Error("expected ClientAuth to request a client certificate when mutual_tls is set")
	}
}

func TestVerifyPeerCertMatchesExactDER(t *testing.T) {
	dir := t.TempDir()
	_, _, clientDER := writeSelfSignedPair(t, dir, "client", "admin-client")

	clientCert, err := x509.ParseCertificate(clientDER)
	if err != nil {
		t.Fatalf("parse client cert: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/route/add", nil)
	req.TLS = &tls.ConnectionState{PeerCertificates: []*x509.Certificate{clientCert}}

	if !VerifyPeerCert(req, clientDER) {
		t.Error("expected matching DER bytes to verify")
	}

	_, _, otherDER := writeSelfSignedPair(t, dir, "other", "someone-else")
	if VerifyPeerCert(req, otherDER) {
		t.Error("expected mismatched DER bytes to fail verification")
	}
}
