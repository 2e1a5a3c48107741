// Package routestore holds the dynamic route table: an indexed collection
// of Routes supporting lookup by (scheme, host, path) and mutation through
// ConfigApi, with lock-free reads via copy-on-write snapshots.
package routestore

import (
	"encoding/json"
	"fmt"
	"strings"

	"granite/pkg/origingroup"
)

// Scheme is an incoming or resolved outgoing request scheme.
type Scheme string

const (
	SchemeHTTP  Scheme = "Http"
	SchemeHTTPS Scheme = "Https"
)

// OutgoingScheme selects the scheme granite uses when connecting to an
// Origin. MatchIncoming mirrors the downstream request's scheme.
type OutgoingScheme string

const (
	OutgoingHTTP          OutgoingScheme = "Http"
	OutgoingHTTPS         OutgoingScheme = "Https"
	OutgoingMatchIncoming OutgoingScheme = "MatchIncoming"
)

// Resolve returns the concrete scheme to dial, given the downstream
// request's scheme.
func (s OutgoingScheme) Resolve(incoming Scheme) Scheme {
	switch s {
	case OutgoingHTTP:
		return SchemeHTTP
	case OutgoingHTTPS:
		return SchemeHTTPS
	default:
		return incoming
	}
}

// outgoingSchemeWire captures both spellings of the outgoing scheme field
// on unmarshal: "outgoing_scheme" and the misspelled "outgoing_schcme" that
// appears in the original implementation (SPEC_FULL.md §4 open question).
// outgoing_scheme wins when both are present; marshal always emits the
// correctly spelled field.
type outgoingSchemeWire struct {
	OutgoingScheme *OutgoingScheme `json:"outgoing_scheme,omitempty"`
	OutgoingSchcme *OutgoingScheme `json:"outgoing_schcme,omitempty"`
}

// Route is a rule selecting an origin group and policy for a family of
// incoming requests.
type Route struct {
	Name            string             `json:"name"`
	Customer        string             `json:"customer,omitempty"`
	IncomingSchemes []Scheme           `json:"incoming_schemes"`
	Hosts           []string           `json:"hosts"`
	PathPrefixes    []string           `json:"path_prefixes"`
	CacheEnabled    bool               `json:"cache_enabled"`
	OutgoingScheme  OutgoingScheme     `json:"outgoing_scheme"`
	OriginGroup     *origingroup.Group `json:"origin_group"`
}

// UnmarshalJSON implements the outgoing_scheme/outgoing_schcme acceptance
// described above, preferring outgoing_scheme when both are set.
func (r *Route) UnmarshalJSON(data []byte) error {
	type plain struct {
		Name            string             `json:"name"`
		Customer        string             `json:"customer,omitempty"`
		IncomingSchemes []Scheme           `json:"incoming_schemes"`
		Hosts           []string           `json:"hosts"`
		PathPrefixes    []string           `json:"path_prefixes"`
		CacheEnabled    bool               `json:"cache_enabled"`
		OriginGroup     *origingroup.Group `json:"origin_group"`
	}
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var wire outgoingSchemeWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	*r = Route{
		Name:            p.Name,
		Customer:        p.Customer,
		IncomingSchemes: p.IncomingSchemes,
		Hosts:           p.Hosts,
		PathPrefixes:    p.PathPrefixes,
		CacheEnabled:    p.CacheEnabled,
		OriginGroup:     p.OriginGroup,
		OutgoingScheme:  OutgoingMatchIncoming,
	}
	switch {
	case wire.OutgoingScheme != nil:
		r.OutgoingScheme = *wire.OutgoingScheme
	case wire.OutgoingSchcme != nil:
		r.OutgoingScheme = *wire.OutgoingSchcme
	}
	return nil
}

// MarshalJSON always emits the correctly spelled outgoing_scheme field.
func (r Route) MarshalJSON() ([]byte, error) {
	type plain struct {
		Name            string             `json:"name"`
		Customer        string             `json:"customer,omitempty"`
		IncomingSchemes []Scheme           `json:"incoming_schemes"`
		Hosts           []string           `json:"hosts"`
		PathPrefixes    []string           `json:"path_prefixes"`
		CacheEnabled    bool               `json:"cache_enabled"`
		OutgoingScheme  OutgoingScheme     `json:"outgoing_scheme"`
		OriginGroup     *origingroup.Group `json:"origin_group"`
	}
	return json.Marshal(plain{
		Name:            r.Name,
		Customer:        r.Customer,
		IncomingSchemes: r.IncomingSchemes,
		Hosts:           r.Hosts,
		PathPrefixes:    r.PathPrefixes,
		CacheEnabled:    r.CacheEnabled,
		OutgoingScheme:  r.OutgoingScheme,
		OriginGroup:     r.OriginGroup,
	})
}

// validate checks the invariants in SPEC_FULL.md §3: non-empty hosts, path
// prefixes, incoming schemes, and a non-nil origin group with positive
// total weight. Hosts are lowercased in place so later lookups can assume
// normalized case.
func (r *Route) validate() error {
	if r.Name == "" {
		return fmt.Errorf("name must not be empty")
	}
	if len(r.Hosts) == 0 {
		return fmt.Errorf("hosts must not be empty")
	}
	if len(r.PathPrefixes) == 0 {
		return fmt.Errorf("path_prefixes must not be empty")
	}
	if len(r.IncomingSchemes) == 0 {
		return fmt.Errorf("incoming_schemes must not be empty")
	}
	if r.OriginGroup == nil {
		return fmt.Errorf("origin_group must not be empty")
	}
	if err := r.OriginGroup.Validate(); err != nil {
		return err
	}
	for i, h := range r.Hosts {
		r.Hosts[i] = strings.ToLower(h)
	}
	return nil
}
