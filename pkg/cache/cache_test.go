package cache

import (
	"net/http"
	"testing"
	"time"
)

func TestGetMissThenHit(t *testing.T) {
	c := New(1024)
	key := "k1"

	res := c.Get(key)
	if !res.Miss() {
		t.Fatal("expected Miss on empty cache")
	}

	entry := &Entry{StatusCode: 200, Body: []byte("hello")}
	if err := c.Put(res.Lease, entry); err != nil {
		t.Fatalf("Put: %v", err)
	}

	res2 := c.Get(key)
	if !res2.Hit() {
		t.Fatal("expected Hit after Put")
	}
	if string(res2.Entry.Body) != "hello" {
		t.Errorf("body = %q, want %q", res2.Entry.Body, "hello")
	}
}

func TestGetSingleFlightWaiterReceivesHit(t *testing.T) {
	c := New(1024)
	key := "k1"

	first := c.Get(key)
	if !first.Miss() {
		t.Fatal("expected Miss for first caller")
	}

	second := c.Get(key)
	if second.Wait == nil {
		t.Fatal("expected Wait for concurrent second caller")
	}

	entry := &Entry{StatusCode: 200, Body: []byte("shared")}
	if err := c.Put(first.Lease, entry); err != nil {
		t.Fatalf("Put: %v", err)
	}

	select {
	case outcome := <-second.Wait:
		if outcome.Entry == nil {
			t.Fatal("expected waiter to receive Entry after Put")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for single-flight resolution")
	}
}

func TestCancelPromotesWaiter(t *testing.T) {
	c := New(1024)
	key := "k1"

	first := c.Get(key)
	second := c.Get(key)

	c.Cancel(first.Lease)

	select {
	case outcome := <-second.Wait:
		if outcome.Lease == nil {
			t.Fatal("expected waiter to be promoted to lease holder")
		}
		if err := c.Put(outcome.Lease, &Entry{StatusCode: 200, Body: []byte("x")}); err != nil {
			t.Fatalf("Put by promoted holder: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for promotion")
	}

	if res := c.Get(key); !res.Hit() {
		t.Error("expected entry filled by promoted holder to be cached")
	}
}

func TestPutRefusesOversizedEntry(t *testing.T) {
	c := New(4)
	res := c.Get("k1")

	err := c.Put(res.Lease, &Entry{StatusCode: 200, Body: []byte("too big to fit")})
	if err == nil {
		t.Fatal("expected admission refusal for oversized entry")
	}
	if c.Len() != 0 {
		t.Error("expected cache to remain empty after refused admission")
	}
}

func TestEvictsLRUUnderPressure(t *testing.T) {
	c := New(10)

	for _, k := range []string{"a", "b"} {
		res := c.Get(k)
		if err := c.Put(res.Lease, &Entry{StatusCode: 200, Body: []byte("12345")}); err != nil {
			t.Fatalf("Put %s: %v", k, err)
		}
	}
	// Touch "a" so "b" becomes the LRU victim.
	c.Get("a")

	res := c.Get("c")
	if err := c.Put(res.Lease, &Entry{StatusCode: 200, Body: []byte("12345")}); err != nil {
		t.Fatalf("Put c: %v", err)
	}

	if _, ok := c.items["b"]; ok {
		t.Error("expected b to be evicted as least recently used")
	}
	if _, ok := c.items["a"]; !ok {
		t.Error("expected a to survive since it was touched")
	}
}

func TestCacheableRejectsNonGetHead(t *testing.T) {
	if Cacheable(http.MethodPost, http.Header{}) {
		t.Error("POST should not be cacheable")
	}
}

func TestCacheableRejectsAuthorizationAndCookie(t *testing.T) {
	h := http.Header{"Authorization": []string{"Bearer x"}}
	if Cacheable(http.MethodGet, h) {
		t.Error("request with Authorization should not be cacheable")
	}
	h2 := http.Header{"Cookie": []string{"session=1"}}
	if Cacheable(http.MethodGet, h2) {
		t.Error("request with Cookie should not be cacheable")
	}
}

func TestCacheableRejectsNoStore(t *testing.T) {
	h := http.Header{"Cache-Control": []string{"no-store"}}
	if Cacheable(http.MethodGet, h) {
		t.Error("request with Cache-Control: no-store should not be cacheable")
	}
}

func TestCacheableAcceptsPlainGet(t *testing.T) {
	if !Cacheable(http.MethodGet, http.Header{}) {
		t.Error("plain GET should be cacheable")
	}
}

func TestKeyIgnoresVaryHeaders(t *testing.T) {
	a := Key(http.MethodGet, "https", "example.com", "/x?y=1")
	b := Key(http.MethodGet, "https", "example.com", "/x?y=1")
	if a != b {
		t.Error("expected identical keys for identical (method, scheme, host, path+query)")
	}
}
