// Package proxy implements the per-request state machine described in
// SPEC_FULL.md §4.6: Accept → Routed → CacheChecked → OriginAttempt(n) →
// Forwarding → Finalizing → Done. A Proxy is an http.Handler; Go's
// goroutine-per-request model supplies the cooperative task scheduling
// the spec describes, so no explicit state enum is needed — the states
// are the stages of ServeHTTP and its helpers.
package proxy

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptrace"
	"strconv"
	"strings"
	"sync"
	"time"

	"granite/pkg/cache"
	"granite/pkg/certstore"
	"granite/pkg/graniteerr"
	"granite/pkg/origingroup"
	"granite/pkg/routestore"
	"granite/pkg/telemetry/metrics"
)

// sniContextKey carries the per-attempt origin SNI through to the
// transport's DialTLSContext, since http.Transport has no per-request
// TLS ServerName hook.
type sniContextKey struct{}

func withSNI(ctx context.Context, sni string) context.Context {
	return context.WithValue(ctx, sniContextKey{}, sni)
}

// CacheStatus header values, per SPEC_FULL.md §6.4.
const (
	CacheStatusHit    = "hit"
	CacheStatusMiss   = "miss"
	CacheStatusBypass = "bypass"

	cacheStatusHeader = "x-cache-status"

	// connectTimeout bounds a single origin connect attempt
	// (SPEC_FULL.md §5's recommended 5s default).
	connectTimeout = 5 * time.Second
)

// Proxy dispatches downstream requests to routed origins, consulting
// ResponseCache for cacheable GET/HEAD traffic. It is safe for
// concurrent use by many goroutines.
type Proxy struct {
	Routes  *routestore.Store
	Certs   *certstore.Store // not read directly here; shared with the TLS listener's CertProvider
	Cache   *cache.Cache
	Logger  *slog.Logger
	Metrics *metrics.Collector

	transport http.RoundTripper
}

// New constructs a Proxy. transport, if nil, defaults to a pooled
// http.Transport with HTTP/2 enabled, matching the teacher's provider
// client configuration. m, if nil, defaults to a fresh, unshared
// Collector — the proxy always has somewhere to record to, even when
// Server didn't hand it one for scraping.
func New(routes *routestore.Store, certs *certstore.Store, c *cache.Cache, logger *slog.Logger, transport http.RoundTripper, m *metrics.Collector) *Proxy {
	if transport == nil {
		transport = &http.Transport{
			MaxIdleConns:        256,
			MaxIdleConnsPerHost: 64,
			IdleConnTimeout:     90 * time.Second,
			ForceAttemptHTTP2:   true,
			DialTLSContext:      dialTLSWithSNI,
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = metrics.NewCollector("granite", nil)
	}
	return &Proxy{Routes: routes, Certs: certs, Cache: c, Logger: logger, Metrics: m, transport: transport}
}

// statusRecorder wraps http.ResponseWriter to capture the status code and
// body size written, so ServeHTTP's deferred metrics recording can see
// them without every helper threading them back up explicitly.
type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	n, err := s.ResponseWriter.Write(b)
	s.size += n
	return n, err
}

// ServeHTTP implements the full Accept..Done pipeline for one downstream
// request.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	routeName := "unknown"
	defer func() {
		p.Metrics.RecordRequest(routeName, r.Method, strconv.Itoa(rec.status), time.Since(start))
		p.Metrics.RecordResponseSize(routeName, rec.size)
	}()

	// 1. Accept.
	host := stripPort(r.Host)
	if host == "" {
		http.Error(rec, "missing host", http.StatusBadRequest)
		return
	}
	scheme := routestore.SchemeHTTP
	if r.TLS != nil {
		scheme = routestore.SchemeHTTPS
	}

	// 2. Routed.
	route, ok := p.Routes.Lookup(scheme, host, r.URL.Path)
	if !ok {
		p.logRequest(r, http.StatusNotFound, CacheStatusBypass)
		http.Error(rec, "no route", http.StatusNotFound)
		return
	}
	routeName = route.Name

	// 3. CacheChecked.
	if route.CacheEnabled && cache.Cacheable(r.Method, r.Header) {
		p.serveCacheable(rec, r, route, scheme, host)
		return
	}

	p.serveViaOrigin(rec, r, route, nil)
}

// serveCacheable implements CacheChecked for a request eligible to
// participate in the cache, looping to handle a Wait that resolves into
// either a Hit or a promoted lease.
func (p *Proxy) serveCacheable(w http.ResponseWriter, r *http.Request, route *routestore.Route, scheme routestore.Scheme, host string) {
	key := cache.Key(r.Method, string(scheme), strings.ToLower(host), r.URL.RequestURI())

	res := p.Cache.Get(key)
	switch {
	case res.Hit():
		p.Metrics.RecordCacheHit()
		p.writeCachedEntry(w, res.Entry, CacheStatusHit)
		p.logRequest(r, res.Entry.StatusCode, CacheStatusHit)

	case res.Miss():
		p.Metrics.RecordCacheMiss()
		p.serveViaOrigin(w, r, route, res.Lease)

	default: // Wait
		outcome := <-res.Wait
		if outcome.Entry != nil {
			p.Metrics.RecordCacheHit()
			p.writeCachedEntry(w, outcome.Entry, CacheStatusHit)
			p.logRequest(r, outcome.Entry.StatusCode, CacheStatusHit)
			return
		}
		// Promoted to lease holder: outcome.Lease behaves like a fresh Miss.
		p.Metrics.RecordCacheMiss()
		p.serveViaOrigin(w, r, route, outcome.Lease)
	}
}

// serveViaOrigin runs OriginAttempt(n) through Finalizing. lease is
// non-nil when this request is the cache lease holder; it is always
// resolved (Put or Cancel) before returning.
func (p *Proxy) serveViaOrigin(w http.ResponseWriter, r *http.Request, route *routestore.Route, lease *cache.Lease) {
	tried := make(map[int]struct{})
	group := route.OriginGroup
	retryLimit := group.RetryLimit()

	var lastErr error
	for attempt := 0; attempt <= retryLimit; attempt++ {
		origin, idx, ok := group.PickNext(tried)
		if !ok {
			p.cancelLease(lease)
			p.respondError(w, r, &graniteerr.NoOriginError{RouteName: route.Name, Tried: len(tried)})
			return
		}
		p.Metrics.RecordOriginSelected(route.Name, origin.Host)

		resp, err := p.attemptOrigin(r, route, origin)
		if err != nil {
			var connectErr *graniteerr.UpstreamConnectError
			if errors.As(err, &connectErr) {
				group.MarkDown(idx)
				tried[idx] = struct{}{}
				lastErr = err
				p.Metrics.RecordOriginConnectError(route.Name, origin.Host)
				p.Metrics.UpdateOriginHealth(route.Name, origin.Host, false)
				continue
			}
			p.cancelLease(lease)
			p.Metrics.RecordOriginConnectError(route.Name, origin.Host)
			p.respondError(w, r, err)
			return
		}
		p.Metrics.UpdateOriginHealth(route.Name, origin.Host, true)

		// 5. Forwarding.
		p.forward(w, r, resp, lease, origin.Host)
		return
	}

	p.cancelLease(lease)
	if lastErr == nil {
		lastErr = &graniteerr.NoOriginError{RouteName: route.Name, Tried: len(tried)}
	}
	p.respondError(w, r, lastErr)
}

// connTracker records, via httptrace, whether RoundTrip obtained a
// connection (new or reused, TLS handshake included) before it returned.
// It is the signal attemptOrigin uses to tell a pre-connect failure
// (dial/handshake) from a post-connect transport or application failure,
// per SPEC_FULL.md §4.3: only the former marks the origin down.
type connTracker struct {
	mu        sync.Mutex
	connected bool
}

func (c *connTracker) gotConn(httptrace.GotConnInfo) {
	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()
}

func (c *connTracker) wasConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// attemptOrigin computes the upstream target per SPEC_FULL.md §4.6 step 4
// and performs the request. A failure to obtain a connection is reported
// as UpstreamConnectError (marks the origin down, retried); a failure
// after a connection was obtained is reported as UpstreamProtocolError
// (origin stays up, not retried).
func (p *Proxy) attemptOrigin(r *http.Request, route *routestore.Route, origin origingroup.Origin) (*http.Response, error) {
	outgoing := route.OutgoingScheme.Resolve(schemeOf(r))

	port := origin.HTTPPort
	if outgoing == routestore.SchemeHTTPS {
		port = origin.HTTPSPort
	}

	hostHeader := stripPort(r.Host)
	if origin.HostHeaderOverride != "" {
		hostHeader = origin.HostHeaderOverride
	}

	url := fmt.Sprintf("%s://%s:%d%s", strings.ToLower(string(outgoing)), origin.Host, port, r.URL.RequestURI())

	// connectTimeout aborts the attempt only while no connection has been
	// obtained; once connected, the exchange and the body forward streams
	// are bounded by the downstream request's context.
	tracker := &connTracker{}
	ctx, cancel := context.WithCancel(r.Context())
	timer := time.AfterFunc(connectTimeout, func() {
		if !tracker.wasConnected() {
			cancel()
		}
	})
	defer timer.Stop()
	if outgoing == routestore.SchemeHTTPS {
		sni := origin.SNI
		if sni == "" {
			sni = origin.Host
		}
		ctx = withSNI(ctx, sni)
	}

	ctx = httptrace.WithClientTrace(ctx, &httptrace.ClientTrace{GotConn: tracker.gotConn})

	outReq, err := http.NewRequestWithContext(ctx, r.Method, url, r.Body)
	if err != nil {
		return nil, &graniteerr.UpstreamConnectError{Origin: origin.Host, Err: err}
	}
	outReq.Header = r.Header.Clone()
	outReq.Host = hostHeader
	stripHopByHop(outReq.Header)

	resp, err := p.transport.RoundTrip(outReq)
	if err != nil {
		if tracker.wasConnected() {
			return nil, &graniteerr.UpstreamProtocolError{Origin: origin.Host, HeadersFlushed: false, Err: err}
		}
		return nil, &graniteerr.UpstreamConnectError{Origin: origin.Host, Err: err}
	}
	return resp, nil
}

// admissibleStatusCodes is the set of origin response statuses eligible
// for cache admission, per SPEC_FULL.md §4.4's response filtering.
var admissibleStatusCodes = map[int]bool{
	http.StatusOK:                   true,
	http.StatusNonAuthoritativeInfo: true,
	http.StatusNoContent:            true,
	http.StatusMultipleChoices:      true,
	http.StatusMovedPermanently:     true,
	http.StatusNotFound:             true,
	http.StatusGone:                 true,
}

// admissible reports whether resp is eligible for cache admission: its
// status is in admissibleStatusCodes and it carries no response
// Cache-Control: no-store or private directive. Grounded on the
// original's resp_cacheable response filter.
func admissible(resp *http.Response) bool {
	if !admissibleStatusCodes[resp.StatusCode] {
		return false
	}
	for _, cc := range resp.Header.Values("Cache-Control") {
		for _, directive := range strings.Split(cc, ",") {
			switch strings.ToLower(strings.TrimSpace(directive)) {
			case "no-store", "private":
				return false
			}
		}
	}
	return true
}

// forward streams the origin response to the client (Forwarding state),
// buffering the body for cache admission when a lease is held, and
// performs Finalizing (header/body flush) before returning.
func (p *Proxy) forward(w http.ResponseWriter, r *http.Request, resp *http.Response, lease *cache.Lease, originHost string) {
	defer resp.Body.Close()

	stripHopByHop(resp.Header)

	if lease == nil {
		copyHeaders(w.Header(), resp.Header)
		w.Header().Set(cacheStatusHeader, CacheStatusBypass)
		w.WriteHeader(resp.StatusCode)
		_, err := io.Copy(w, resp.Body)
		p.logRequest(r, resp.StatusCode, CacheStatusBypass)
		p.finalizeStream(r, originHost, err)
		return
	}

	maxSize := p.Cache.MaxSize()
	if !admissible(resp) || (resp.ContentLength >= 0 && resp.ContentLength > maxSize) {
		p.cancelLease(lease)
		copyHeaders(w.Header(), resp.Header)
		w.Header().Set(cacheStatusHeader, CacheStatusBypass)
		w.WriteHeader(resp.StatusCode)
		_, err := io.Copy(w, resp.Body)
		p.logRequest(r, resp.StatusCode, CacheStatusBypass)
		p.finalizeStream(r, originHost, err)
		return
	}

	body, truncated, err := readUpTo(resp.Body, maxSize)
	if err != nil {
		p.cancelLease(lease)
		copyHeaders(w.Header(), resp.Header)
		w.Header().Set(cacheStatusHeader, CacheStatusBypass)
		w.WriteHeader(resp.StatusCode)
		_, _ = w.Write(body)
		p.logRequest(r, resp.StatusCode, CacheStatusBypass)
		return
	}

	if truncated {
		p.cancelLease(lease)
		copyHeaders(w.Header(), resp.Header)
		w.Header().Set(cacheStatusHeader, CacheStatusBypass)
		w.WriteHeader(resp.StatusCode)
		_, _ = w.Write(body)
		_, copyErr := io.Copy(w, resp.Body)
		p.logRequest(r, resp.StatusCode, CacheStatusBypass)
		p.finalizeStream(r, originHost, copyErr)
		return
	}

	entry := &cache.Entry{
		StatusCode: resp.StatusCode,
		Header:     cloneHeader(resp.Header),
		Body:       body,
	}
	lenBefore := p.Cache.Len()
	if err := p.Cache.Put(lease, entry); err != nil {
		copyHeaders(w.Header(), resp.Header)
		w.Header().Set(cacheStatusHeader, CacheStatusBypass)
	} else {
		copyHeaders(w.Header(), resp.Header)
		w.Header().Set(cacheStatusHeader, CacheStatusMiss)
		// Len grows by one unless Put's eviction pass had to reclaim room
		// for it; the shortfall approximates evictions this Put caused.
		if evicted := lenBefore + 1 - p.Cache.Len(); evicted > 0 {
			for i := 0; i < evicted; i++ {
				p.Metrics.RecordCacheEviction()
			}
		}
		p.Metrics.SetCacheEntries(p.Cache.Len())
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(body)
	p.logRequest(r, resp.StatusCode, w.Header().Get(cacheStatusHeader))
}

// finalizeStream records a body-copy failure that occurred after headers
// were already written downstream. Per SPEC_FULL.md §7, headers on the
// wire rule out a 502 at this point; the only remaining action is to let
// the handler return and the connection close.
func (p *Proxy) finalizeStream(r *http.Request, originHost string, err error) {
	if err == nil {
		return
	}
	protoErr := &graniteerr.UpstreamProtocolError{Origin: originHost, HeadersFlushed: true, Err: err}
	p.Logger.Error("upstream protocol error mid-stream", "error", protoErr, "host", r.Host, "path", r.URL.Path)
}

// writeCachedEntry serves a Hit directly from the cache.
func (p *Proxy) writeCachedEntry(w http.ResponseWriter, entry *cache.Entry, status string) {
	copyHeaders(w.Header(), entry.Header)
	w.Header().Set(cacheStatusHeader, status)
	w.WriteHeader(entry.StatusCode)
	_, _ = w.Write(entry.Body)
}

// cancelLease cancels lease if non-nil; safe to call unconditionally.
func (p *Proxy) cancelLease(lease *cache.Lease) {
	if lease != nil {
		p.Cache.Cancel(lease)
	}
}

// respondError maps a graniteerr error kind to the status codes in
// SPEC_FULL.md §7.
func (p *Proxy) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"

	switch {
	case errors.Is(err, graniteerr.ErrNoRoute):
		status, msg = http.StatusNotFound, "no route"
	case errors.Is(err, graniteerr.ErrNoOrigin):
		status, msg = http.StatusBadGateway, "no origin"
	case errors.Is(err, graniteerr.ErrUpstreamConnect):
		status, msg = http.StatusBadGateway, "upstream connect failed"
	case errors.Is(err, graniteerr.ErrUpstreamProtocol):
		status, msg = http.StatusBadGateway, "upstream protocol error"
	}

	p.logRequest(r, status, CacheStatusBypass)
	w.Header().Set(cacheStatusHeader, CacheStatusBypass)
	http.Error(w, msg, status)
}

func (p *Proxy) logRequest(r *http.Request, status int, cacheStatus string) {
	p.Logger.Info("request",
		"method", r.Method,
		"host", r.Host,
		"path", r.URL.Path,
		"status", status,
		"cache_status", cacheStatus,
	)
}

// dialTLSWithSNI dials addr and performs a TLS handshake using the SNI
// stashed in ctx by withSNI, falling back to the dialed hostname if none
// was set.
func dialTLSWithSNI(ctx context.Context, network, addr string) (net.Conn, error) {
	conn, err := (&net.Dialer{}).DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	sni, _ := ctx.Value(sniContextKey{}).(string)
	if sni == "" {
		sni, _, _ = net.SplitHostPort(addr)
	}

	tlsConn := tls.Client(conn, &tls.Config{ServerName: sni, NextProtos: []string{"h2", "http/1.1"}})
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return tlsConn, nil
}

// schemeOf reports the downstream scheme of r.
func schemeOf(r *http.Request) routestore.Scheme {
	if r.TLS != nil {
		return routestore.SchemeHTTPS
	}
	return routestore.SchemeHTTP
}

// stripPort removes a trailing ":port" from a host header value.
func stripPort(hostport string) string {
	host, _, err := net.SplitHostPort(hostport)
	if err != nil {
		return hostport
	}
	return host
}

// copyHeaders copies every header from src into dst.
func copyHeaders(dst, src http.Header) {
	for k, vs := range src {
		for _, v := range vs {
			dst.Add(k, v)
		}
	}
}

// readUpTo reads from r until limit+1 bytes have been read or EOF.
// truncated reports whether the body exceeded limit.
func readUpTo(r io.Reader, limit int64) (data []byte, truncated bool, err error) {
	lr := io.LimitReader(r, limit+1)
	data, err = io.ReadAll(lr)
	if err != nil {
		return data, false, err
	}
	if int64(len(data)) > limit {
		return data[:limit], true, nil
	}
	return data, false, nil
}
