// Package configapi implements the administrative REST surface that
// mutates RouteStore and CertStore at runtime: POST /route/add,
// /route/delete, /cert/add, /cert/delete. It is a side channel from the
// downstream proxy listeners — its own TLS and mutual-TLS settings are
// independent of the per-SNI certificates the proxy presents to clients.
package configapi
