package routestore

import (
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"granite/pkg/graniteerr"
)

// tripleKey identifies a single (scheme, host, path_prefix) claim. Exactly
// one Route may own a given triple at a time.
type tripleKey struct {
	scheme Scheme
	host   string
	prefix string
}

// schemeHostKey groups the index by the two dimensions a lookup always
// knows up front.
type schemeHostKey struct {
	scheme Scheme
	host   string
}

// indexEntry is one candidate in a (scheme, host) bucket, sorted so that
// Lookup can take the first prefix match.
type indexEntry struct {
	prefix string
	name   string
}

// snapshot is an immutable view of the route table. Store never mutates a
// snapshot in place; every write builds a new one and swaps the pointer.
type snapshot struct {
	routes map[string]*Route
	owned  map[string]map[tripleKey]struct{}
	index  map[schemeHostKey][]indexEntry
}

func emptySnapshot() *snapshot {
	return &snapshot{
		routes: make(map[string]*Route),
		owned:  make(map[string]map[tripleKey]struct{}),
		index:  make(map[schemeHostKey][]indexEntry),
	}
}

// clone makes a shallow-per-bucket copy suitable for one write: the maps
// are fresh, but unmodified Route pointers are shared with the prior
// snapshot since Route values are never mutated after validate().
func (s *snapshot) clone() *snapshot {
	n := &snapshot{
		routes: make(map[string]*Route, len(s.routes)),
		owned:  make(map[string]map[tripleKey]struct{}, len(s.owned)),
		index:  make(map[schemeHostKey][]indexEntry, len(s.index)),
	}
	for k, v := range s.routes {
		n.routes[k] = v
	}
	for k, v := range s.owned {
		set := make(map[tripleKey]struct{}, len(v))
		for t := range v {
			set[t] = struct{}{}
		}
		n.owned[k] = set
	}
	for k, v := range s.index {
		n.index[k] = append([]indexEntry(nil), v...)
	}
	return n
}

// triplesOf enumerates every (scheme, host, prefix) triple a Route claims.
func triplesOf(r *Route) map[tripleKey]struct{} {
	set := make(map[tripleKey]struct{}, len(r.IncomingSchemes)*len(r.Hosts)*len(r.PathPrefixes))
	for _, sc := range r.IncomingSchemes {
		for _, h := range r.Hosts {
			for _, p := range r.PathPrefixes {
				set[tripleKey{scheme: sc, host: h, prefix: p}] = struct{}{}
			}
		}
	}
	return set
}

// removeTriple drops t from the index bucket and from its owner's owned
// set. It does not remove the owner from routes even if its owned set
// becomes empty; callers that care check that separately.
func (s *snapshot) removeTriple(t tripleKey, owner string) {
	if set, ok := s.owned[owner]; ok {
		delete(set, t)
	}
	key := schemeHostKey{scheme: t.scheme, host: t.host}
	entries := s.index[key]
	for i, e := range entries {
		if e.prefix == t.prefix && e.name == owner {
			s.index[key] = append(entries[:i], entries[i+1:]...)
			break
		}
	}
}

// addTriple records t as owned by name and inserts it into the index
// bucket, keeping the bucket sorted by descending prefix length, then
// ascending prefix, then ascending route name (SPEC_FULL.md §4.1
// longest-prefix-match tie-break).
func (s *snapshot) addTriple(t tripleKey, name string) {
	if s.owned[name] == nil {
		s.owned[name] = make(map[tripleKey]struct{})
	}
	s.owned[name][t] = struct{}{}

	key := schemeHostKey{scheme: t.scheme, host: t.host}
	s.index[key] = append(s.index[key], indexEntry{prefix: t.prefix, name: name})
	sort.SliceStable(s.index[key], func(i, j int) bool {
		a, b := s.index[key][i], s.index[key][j]
		if len(a.prefix) != len(b.prefix) {
			return len(a.prefix) > len(b.prefix)
		}
		if a.prefix != b.prefix {
			return a.prefix < b.prefix
		}
		return a.name < b.name
	})
}

// evictName removes a route and every triple it owns. It is the shared
// tail of replace-by-name and Delete.
func (s *snapshot) evictName(name string) {
	for t := range s.owned[name] {
		key := schemeHostKey{scheme: t.scheme, host: t.host}
		entries := s.index[key]
		for i, e := range entries {
			if e.prefix == t.prefix && e.name == name {
				s.index[key] = append(entries[:i], entries[i+1:]...)
				break
			}
		}
	}
	delete(s.owned, name)
	delete(s.routes, name)
}

// Store is the dynamic route table. Reads (Lookup) never block on writers:
// they load an immutable snapshot via an atomic pointer. Writes
// (InsertOrReplace, Delete) are serialized by mu and build a new snapshot
// before publishing it.
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

// InsertOrReplace validates r and installs it, replacing any prior Route
// with the same name. Per SPEC_FULL.md §4.1, any triple r now claims that
// was previously owned by a different Route is evicted from that Route;
// if the other Route is left owning no triples, it is removed entirely.
func (s *Store) InsertOrReplace(r *Route) error {
	if err := r.validate(); err != nil {
		return &graniteerr.InvalidRouteError{Name: r.Name, Reason: err.Error()}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cur.Load().clone()

	if _, exists := next.routes[r.Name]; exists {
		next.evictName(r.Name)
	}

	newTriples := triplesOf(r)
	for t := range newTriples {
		key := schemeHostKey{scheme: t.scheme, host: t.host}
		for _, e := range next.index[key] {
			if e.prefix == t.prefix && e.name != r.Name {
				prevOwner := e.name
				next.removeTriple(t, prevOwner)
				if len(next.owned[prevOwner]) == 0 {
					delete(next.owned, prevOwner)
					delete(next.routes, prevOwner)
				}
				break
			}
		}
	}

	for t := range newTriples {
		next.addTriple(t, r.Name)
	}
	next.routes[r.Name] = r

	s.cur.Store(next)
	return nil
}

// Delete removes the Route named name and every triple it owns. It
// reports whether a Route with that name existed.
func (s *Store) Delete(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.cur.Load()
	if _, ok := cur.routes[name]; !ok {
		return false
	}

	next := cur.clone()
	next.evictName(name)
	s.cur.Store(next)
	return true
}

// Lookup finds the Route matching (scheme, host, path) by longest
// path-prefix match, ties broken by lexicographically smallest prefix
// then smallest route name. Host matching is case-insensitive.
func (s *Store) Lookup(scheme Scheme, host, path string) (*Route, bool) {
	cur := s.cur.Load()
	key := schemeHostKey{scheme: scheme, host: strings.ToLower(host)}
	for _, e := range cur.index[key] {
		if strings.HasPrefix(path, e.prefix) {
			return cur.routes[e.name], true
		}
	}
	return nil, false
}

// Get returns the Route with the given name, if any.
func (s *Store) Get(name string) (*Route, bool) {
	cur := s.cur.Load()
	r, ok := cur.routes[name]
	return r, ok
}

// List returns every Route currently installed, in no particular order.
func (s *Store) List() []*Route {
	cur := s.cur.Load()
	out := make([]*Route, 0, len(cur.routes))
	for _, r := range cur.routes {
		out = append(out, r)
	}
	return out
}
