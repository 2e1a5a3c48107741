// Package server binds and manages every listener granite runs: the
// plaintext and TLS downstream proxy listeners (http_bind_addrs,
// https_bind_addrs) and the side-channel Config API listener (api.bind_addr).
//
// # Basic usage
//
//	cfg, err := config.LoadConfig(path)
//	srv := server.New(cfg, nil, nil, logger)
//	if err := srv.Start(cli.SetupSignalHandler()); err != nil {
//	    log.Fatal(err)
//	}
//
// # Graceful shutdown
//
// Start blocks until its context is cancelled, a listener fails, or the
// process receives SIGINT, SIGTERM, or SIGQUIT. All three cause the same
// graceful drain via http.Server.Shutdown on every bound listener; SIGQUIT
// additionally logs the upgrade-handoff intent (the socket handoff itself is
// left to an external process supervisor).
//
// # TLS
//
// The downstream HTTPS listeners resolve their certificate per-connection
// from the SNI name via certstore.Provider. The Config API listener's TLS
// is configured independently through pkg/tlsconfig, including optional
// mutual TLS with a pinned client certificate and hot-reload of the admin
// listener's own certificate file.
package server
