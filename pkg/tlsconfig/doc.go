// Package tlsconfig builds the *tls.Config for the admin ConfigApi
// listener: certificate/key loading and validation, optional mutual TLS
// client-certificate enforcement, and hot-reload of the admin API's own
// certificate and key files via fsnotify. This is a distinct concern from
// pkg/certstore's per-SNI dispatch for the downstream proxy listener.
package tlsconfig
