package routestore

import (
	"testing"

	"granite/pkg/origingroup"
)

func testRoute(name string, hosts, prefixes []string) *Route {
	return &Route{
		Name:            name,
		IncomingSchemes: []Scheme{SchemeHTTP},
		Hosts:           hosts,
		PathPrefixes:    prefixes,
		OutgoingScheme:  OutgoingMatchIncoming,
		OriginGroup: origingroup.New([]origingroup.Origin{
			{Host: "10.0.0.1", Weight: 10},
		}, 0, 1),
	}
}

func TestStoreInsertAndLookup(t *testing.T) {
	s := New()
	r := testRoute("api", []string{"Example.com"}, []string{"/api/"})

	if err := s.InsertOrReplace(r); err != nil {
		t.Fatalf("InsertOrReplace: %v", err)
	}

	got, ok := s.Lookup(SchemeHTTP, "example.com", "/api/widgets")
	if !ok {
		t.Fatal("expected lookup to find route")
	}
	if got.Name != "api" {
		t.Errorf("got route %q, want %q", got.Name, "api")
	}
}

func TestStoreLookupMissNoRoute(t *testing.T) {
	s := New()
	if _, ok := s.Lookup(SchemeHTTP, "example.com", "/"); ok {
		t.Fatal("expected no route in empty store")
	}
}

func TestStoreLongestPrefixWins(t *testing.T) {
	s := New()
	if err := s.InsertOrReplace(testRoute("general", []string{"example.com"}, []string{"/"})); err != nil {
		t.Fatalf("InsertOrReplace general: %v", err)
	}
	if err := s.InsertOrReplace(testRoute("api", []string{"example.com"}, []string{"/api/"})); err != nil {
		t.Fatalf("InsertOrReplace api: %v", err)
	}

	got, ok := s.Lookup(SchemeHTTP, "example.com", "/api/widgets")
	if !ok || got.Name != "api" {
		t.Errorf("got %v, ok=%v, want route %q", got, ok, "api")
	}

	got, ok = s.Lookup(SchemeHTTP, "example.com", "/other")
	if !ok || got.Name != "general" {
		t.Errorf("got %v, ok=%v, want route %q", got, ok, "general")
	}
}

func TestStoreInsertEvictsCollidingTriple(t *testing.T) {
	s := New()
	if err := s.InsertOrReplace(testRoute("first", []string{"example.com"}, []string{"/shared/"})); err != nil {
		t.Fatalf("InsertOrReplace first: %v", err)
	}
	if err := s.InsertOrReplace(testRoute("second", []string{"example.com"}, []string{"/shared/"})); err != nil {
		t.Fatalf("InsertOrReplace second: %v", err)
	}

	// second now owns the triple; first should have been removed entirely
	// since it had no other triples.
	if _, ok := s.Get("first"); ok {
		t.Error("expected first to be evicted after losing its only triple")
	}
	got, ok := s.Lookup(SchemeHTTP, "example.com", "/shared/x")
	if !ok || got.Name != "second" {
		t.Errorf("got %v, ok=%v, want route %q", got, ok, "second")
	}
}

func TestStoreInsertEvictsOnlyCollidingTriple(t *testing.T) {
	s := New()
	multi := testRoute("multi", []string{"example.com"}, []string{"/shared/", "/only-mine/"})
	if err := s.InsertOrReplace(multi); err != nil {
		t.Fatalf("InsertOrReplace multi: %v", err)
	}
	if err := s.InsertOrReplace(testRoute("claimer", []string{"example.com"}, []string{"/shared/"})); err != nil {
		t.Fatalf("InsertOrReplace claimer: %v", err)
	}

	// multi keeps /only-mine/ even though /shared/ was taken.
	got, ok := s.Lookup(SchemeHTTP, "example.com", "/only-mine/x")
	if !ok || got.Name != "multi" {
		t.Errorf("got %v, ok=%v, want route %q", got, ok, "multi")
	}
	got, ok = s.Lookup(SchemeHTTP, "example.com", "/shared/x")
	if !ok || got.Name != "claimer" {
		t.Errorf("got %v, ok=%v, want route %q", got, ok, "claimer")
	}
	if _, ok := s.Get("multi"); !ok {
		t.Error("expected multi to survive with its remaining triple")
	}
}

func TestStoreDeleteRemovesOwnedTriples(t *testing.T) {
	s := New()
	if err := s.InsertOrReplace(testRoute("api", []string{"example.com"}, []string{"/api/"})); err != nil {
		t.Fatalf("InsertOrReplace: %v", err)
	}
	if !s.Delete("api") {
		t.Fatal("expected Delete to report existing route")
	}
	if s.Delete("api") {
		t.Error("expected second Delete to report false")
	}
	if _, ok := s.Lookup(SchemeHTTP, "example.com", "/api/x"); ok {
		t.Error("expected lookup to miss after delete")
	}
}

func TestStoreInsertRejectsInvalidRoute(t *testing.T) {
	s := New()
	bad := &Route{Name: "broken"}
	if err := s.InsertOrReplace(bad); err == nil {
		t.Fatal("expected validation error for route with no hosts/prefixes/origin group")
	}
}

func TestStoreHostMatchIsCaseInsensitive(t *testing.T) {
	s := New()
	if err := s.InsertOrReplace(testRoute("api", []string{"Example.COM"}, []string{"/"})); err != nil {
		t.Fatalf("InsertOrReplace: %v", err)
	}
	if _, ok := s.Lookup(SchemeHTTP, "eXAMPLE.com", "/x"); !ok {
		t.Error("expected case-insensitive host match")
	}
}
