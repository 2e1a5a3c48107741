// Package origingroup implements weighted random origin selection with
// health-aware exclusion, per SPEC_FULL.md §4.3. An OriginGroup is a
// non-empty ordered list of Origins plus the group-wide retry policy
// (origin_down_time, connection_retry_limit).
package origingroup

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"
)

// Origin is a single upstream server instance reachable by host and port.
// It is a plain, JSON-serializable value; transient down-state is tracked
// separately by the enclosing Group, not on Origin itself.
type Origin struct {
	Host               string `json:"host"`
	HTTPPort           int    `json:"http_port"`
	HTTPSPort          int    `json:"https_port"`
	HostHeaderOverride string `json:"host_header_override,omitempty"`
	SNI                string `json:"sni,omitempty"`
	Weight             int    `json:"weight"`
}

func (o *Origin) normalize() {
	if o.HTTPPort == 0 {
		o.HTTPPort = 80
	}
	if o.HTTPSPort == 0 {
		o.HTTPSPort = 443
	}
	if o.Weight == 0 {
		o.Weight = 10
	}
}

// state is the runtime companion to an Origin: its down-state, tracked as a
// UnixNano deadline written under atomic acquire/release semantics. Zero
// means healthy.
type state struct {
	downUntil atomic.Int64
}

// Group is a non-empty ordered list of Origins plus the group-wide policy
// parameters origin_down_time and connection_retry_limit.
type Group struct {
	Origins               []Origin      `json:"origins"`
	OriginDownTime        time.Duration `json:"-"`
	OriginDownTimeSeconds int           `json:"origin_down_time"`
	ConnectionRetryLimit  int           `json:"connection_retry_limit"`

	states []state
}

// UnmarshalJSON normalizes Origin defaults and initializes per-origin
// runtime state immediately after decoding.
func (g *Group) UnmarshalJSON(data []byte) error {
	type plain struct {
		Origins               []Origin `json:"origins"`
		OriginDownTimeSeconds int      `json:"origin_down_time"`
		ConnectionRetryLimit  int      `json:"connection_retry_limit"`
	}
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*g = Group{
		Origins:               p.Origins,
		OriginDownTimeSeconds: p.OriginDownTimeSeconds,
		ConnectionRetryLimit:  p.ConnectionRetryLimit,
	}
	g.init()
	return nil
}

// init applies defaults, normalizes origins, and allocates per-origin
// health state. It must be called once before PickNext/MarkDown are used —
// New and UnmarshalJSON both call it.
func (g *Group) init() {
	if g.OriginDownTimeSeconds == 0 {
		g.OriginDownTimeSeconds = 10
	}
	g.OriginDownTime = time.Duration(g.OriginDownTimeSeconds) * time.Second
	for i := range g.Origins {
		g.Origins[i].normalize()
	}
	g.states = make([]state, len(g.Origins))
}

// New constructs a Group with defaults and runtime state applied. It is the
// constructor to use when building a Group outside of JSON decoding (e.g.
// from process config defaults at route-install time).
func New(origins []Origin, originDownTime time.Duration, connectionRetryLimit int) *Group {
	g := &Group{
		Origins:              origins,
		ConnectionRetryLimit: connectionRetryLimit,
	}
	if originDownTime > 0 {
		g.OriginDownTimeSeconds = int(originDownTime.Seconds())
	}
	g.init()
	return g
}

// validate checks that the group is non-empty and carries positive total
// weight, per SPEC_FULL.md §3.
func (g *Group) validate() error {
	if len(g.Origins) == 0 {
		return fmt.Errorf("origin_group must contain at least one origin")
	}
	total := 0
	for _, o := range g.Origins {
		total += o.Weight
	}
	if total <= 0 {
		return fmt.Errorf("origin_group total weight must be positive")
	}
	return nil
}

// Validate is the exported form of validate, used by routestore when
// installing a Route.
func (g *Group) Validate() error { return g.validate() }

// RetryLimit returns the group's configured connection retry limit.
func (g *Group) RetryLimit() int { return g.ConnectionRetryLimit }

// isExcluded reports whether index i is a member of excluded.
func isExcluded(excluded map[int]struct{}, i int) bool {
	if excluded == nil {
		return false
	}
	_, ok := excluded[i]
	return ok
}

// isDown reports whether origin i is currently excluded by down-state.
func (g *Group) isDown(i int, now int64) bool {
	return g.states[i].downUntil.Load() > now
}

// PickNext returns a healthy origin not in excluded, selected by weighted
// random choice. If no origin is both healthy and un-excluded, it falls
// back to ignoring down-state (SPEC_FULL.md §9 open question, resolved in
// favor of giving a down origin one more chance rather than fast-failing).
// It returns (Origin{}, -1, false) if every origin is excluded.
func (g *Group) PickNext(excluded map[int]struct{}) (Origin, int, bool) {
	now := time.Now().UnixNano()

	if o, i, ok := g.pickFrom(excluded, func(i int) bool { return !g.isDown(i, now) }); ok {
		return o, i, true
	}
	// Nothing healthy and un-excluded: fall back to ignoring down-state.
	return g.pickFrom(excluded, func(int) bool { return true })
}

func (g *Group) pickFrom(excluded map[int]struct{}, eligible func(int) bool) (Origin, int, bool) {
	total := 0
	for i, o := range g.Origins {
		if isExcluded(excluded, i) || !eligible(i) {
			continue
		}
		total += o.Weight
	}
	if total <= 0 {
		return Origin{}, -1, false
	}

	draw := rand.Intn(total)
	for i, o := range g.Origins {
		if isExcluded(excluded, i) || !eligible(i) {
			continue
		}
		draw -= o.Weight
		if draw < 0 {
			return o, i, true
		}
	}
	// Unreachable given total > 0, but keep the function total.
	return Origin{}, -1, false
}

// MarkDown records a connect failure against origin index i, excluding it
// from selection until now + OriginDownTime.
func (g *Group) MarkDown(i int) {
	if i < 0 || i >= len(g.states) {
		return
	}
	deadline := time.Now().Add(g.OriginDownTime).UnixNano()
	g.states[i].downUntil.Store(deadline)
}

// DownUntil returns the current down deadline for origin i, or the zero
// time if it is healthy. Exposed for tests and observability.
func (g *Group) DownUntil(i int) time.Time {
	if i < 0 || i >= len(g.states) {
		return time.Time{}
	}
	ns := g.states[i].downUntil.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}
