// Package proxy implements the reverse HTTP proxy request pipeline: route
// lookup, SNI-aware TLS termination, response cache lookup, weighted
// health-aware origin selection with retry, and response forwarding.
//
// # Architecture
//
//   - Proxy: ServeHTTP entry point and per-request state machine
//   - headers.go: hop-by-hop header stripping per RFC 7230 §6.1
//   - middleware: cross-cutting concerns for the admin ConfigApi listener
//
// # Request Flow
//
// Each inbound request moves through a fixed sequence of stages:
//
//  1. Accept: request arrives on the listener
//  2. Routed: routestore.Store.Lookup resolves scheme+host+path to a Route
//  3. CacheChecked: cache.Cache.Get resolves to Hit, Miss (lease), or Wait
//  4. OriginAttempt(n): origingroup.Group.PickNext selects an origin, up to
//     the route's retry limit, skipping origins marked down
//  5. Forwarding: the origin's response streams back to the client
//  6. Finalizing: a cacheable response is admitted via cache.Cache.Put
//
// Every routed response, error responses included, carries an
// x-cache-status header of hit, miss, or bypass.
//
// # Typical Wiring
//
//	routes := routestore.New()
//	certs := certstore.New()
//	c := cache.New(cfg.Cache.MaxSize)
//	p := proxy.New(routes, certs, c, logger, nil, nil)
//	srv := &http.Server{Addr: addr, Handler: p, TLSConfig: &tls.Config{
//	    GetCertificate: certstore.NewProvider(certs).GetCertificate,
//	}}
package proxy
