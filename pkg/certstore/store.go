package certstore

import (
	"crypto/tls"
	"strings"
	"sync"
	"sync/atomic"

	"granite/pkg/graniteerr"
)

// snapshot is an immutable view of the certificate table, keyed by
// lowercased SNI host ("*" for the fallback binding).
type snapshot struct {
	certs map[string]*tls.Certificate
}

func emptySnapshot() *snapshot {
	return &snapshot{certs: make(map[string]*tls.Certificate)}
}

func (s *snapshot) clone() *snapshot {
	n := &snapshot{certs: make(map[string]*tls.Certificate, len(s.certs))}
	for k, v := range s.certs {
		n.certs[k] = v
	}
	return n
}

// Store is the SNI-keyed certificate table. Writers are serialized by mu;
// readers load an atomic snapshot pointer and never block.
type Store struct {
	mu  sync.Mutex
	cur atomic.Pointer[snapshot]
}

// New constructs an empty Store.
func New() *Store {
	s := &Store{}
	s.cur.Store(emptySnapshot())
	return s
}

// Insert validates binding (the private key must match the leaf
// certificate) and installs it, replacing any existing binding for the
// same host. On validation failure the store is left unchanged.
func (s *Store) Insert(binding *CertBinding) error {
	cert, err := binding.parse()
	if err != nil {
		return &graniteerr.InvalidCertError{Host: binding.Host, Reason: err.Error()}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cur.Load().clone()
	next.certs[binding.normalizedHost()] = cert
	s.cur.Store(next)
	return nil
}

// Delete removes the binding for host, if any, and reports whether one
// existed.
func (s *Store) Delete(host string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(host)
	cur := s.cur.Load()
	if _, ok := cur.certs[key]; !ok {
		return false
	}

	next := cur.clone()
	delete(next.certs, key)
	s.cur.Store(next)
	return true
}

// Lookup resolves sni to a certificate: exact match on the lowercased
// SNI, falling back to the "*" binding if present. Returns nil, false if
// neither exists.
func (s *Store) Lookup(sni string) (*tls.Certificate, bool) {
	cur := s.cur.Load()
	if cert, ok := cur.certs[strings.ToLower(sni)]; ok {
		return cert, true
	}
	if cert, ok := cur.certs["*"]; ok {
		return cert, true
	}
	return nil, false
}
