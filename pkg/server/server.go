// Package server ties together the proxy's downstream listeners and its
// administrative Config API listener and manages their combined lifecycle.
package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"granite/pkg/cache"
	"granite/pkg/certstore"
	"granite/pkg/config"
	"granite/pkg/configapi"
	"granite/pkg/proxy"
	"granite/pkg/routestore"
	"granite/pkg/telemetry/metrics"
	"granite/pkg/tlsconfig"
)

// Server owns every listener granite binds: the plaintext and TLS downstream
// proxy listeners, and the side-channel Config API listener.
type Server struct {
	cfg *config.Config

	Routes  *routestore.Store
	Certs   *certstore.Store
	Cache   *cache.Cache
	Proxy   *proxy.Proxy
	Metrics *metrics.Collector

	logger *slog.Logger

	mu           sync.Mutex
	isRunning    bool
	shutdownOnce sync.Once
	servers      []*http.Server
}

// New constructs a Server wired from cfg. Routes and Certs may be supplied
// already populated (e.g. from a prior run handed off via --upgrade); a nil
// value for either constructs an empty store.
func New(cfg *config.Config, routes *routestore.Store, certs *certstore.Store, logger *slog.Logger) *Server {
	if routes == nil {
		routes = routestore.New()
	}
	if certs == nil {
		certs = certstore.New()
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := cache.New(cfg.Cache.MaxSize)
	m := metrics.NewCollector("granite", nil)
	p := proxy.New(routes, certs, c, logger, nil, m)

	return &Server{
		cfg:     cfg,
		Routes:  routes,
		Certs:   certs,
		Cache:   c,
		Proxy:   p,
		Metrics: m,
		logger:  logger,
	}
}

// Start binds every configured listener and blocks until ctx is cancelled,
// a listener fails, or a shutdown signal arrives.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	errChan := make(chan error, 1)

	for _, addr := range s.cfg.Proxy.HTTPBindAddrs {
		srv := &http.Server{Addr: addr, Handler: s.Proxy}
		s.servers = append(s.servers, srv)
		s.logger.Info("starting proxy listener", "address", addr, "tls", false)
		go func(srv *http.Server) {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errChan <- fmt.Errorf("http listener %s: %w", srv.Addr, err)
			}
		}(srv)
	}

	if len(s.cfg.Proxy.HTTPSBindAddrs) > 0 {
		provider := certstore.NewProvider(s.Certs)
		tlsCfg := &tls.Config{
			MinVersion:     tls.VersionTLS13,
			GetCertificate: provider.GetCertificate,
		}
		for _, addr := range s.cfg.Proxy.HTTPSBindAddrs {
			srv := &http.Server{Addr: addr, Handler: s.Proxy, TLSConfig: tlsCfg}
			s.servers = append(s.servers, srv)
			s.logger.Info("starting proxy listener", "address", addr, "tls", true)
			go func(srv *http.Server) {
				if err := srv.ListenAndServeTLS("", ""); err != nil && err != http.ErrServerClosed {
					errChan <- fmt.Errorf("https listener %s: %w", srv.Addr, err)
				}
			}(srv)
		}
	}

	apiSrv, apiTLS, err := s.buildAPIServer(ctx)
	if err != nil {
		return fmt.Errorf("configure config api: %w", err)
	}
	s.servers = append(s.servers, apiSrv)
	s.logger.Info("starting config api listener", "address", apiSrv.Addr, "tls", apiTLS)
	go func() {
		var err error
		if apiTLS {
			err = apiSrv.ListenAndServeTLS("", "")
		} else {
			err = apiSrv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("config api listener %s: %w", apiSrv.Addr, err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		if sig == syscall.SIGQUIT {
			s.logger.Info("received SIGQUIT, beginning graceful shutdown for upgrade handoff", "upgrade_sock", s.cfg.UpgradeSock)
		} else {
			s.logger.Info("received shutdown signal", "signal", sig.String())
		}
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	}
}

// buildAPIServer constructs the Config API's http.Server, wiring mutual-TLS
// enforcement and hot-reloaded TLS certificates when configured. It starts
// the certificate watcher as a background goroutine tied to ctx.
func (s *Server) buildAPIServer(ctx context.Context) (*http.Server, bool, error) {
	var clientCertDER []byte
	if s.cfg.API.MutualTLS {
		der, err := tlsconfig.LoadClientCertDER(s.cfg.API.ClientCert)
		if err != nil {
			return nil, false, fmt.Errorf("load api client_cert: %w", err)
		}
		clientCertDER = der
	}

	handler := configapi.New(s.Routes, s.Certs, s.logger, clientCertDER, s.Metrics)
	srv := &http.Server{Addr: s.cfg.API.BindAddr, Handler: handler}

	if !s.cfg.API.TLS {
		return srv, false, nil
	}

	reloader, err := tlsconfig.NewReloader(s.cfg.API.Cert, s.cfg.API.Key, s.logger)
	if err != nil {
		return nil, false, err
	}
	go func() {
		if err := reloader.Watch(ctx); err != nil {
			s.logger.Error("config api cert watcher stopped", "error", err)
		}
	}()

	tlsCfg, err := tlsconfig.Build(s.cfg.API)
	if err != nil {
		return nil, false, err
	}
	tlsCfg.GetCertificate = reloader.GetCertificate
	srv.TLSConfig = tlsCfg

	return srv, true, nil
}

// Shutdown gracefully drains every listener.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		s.logger.Info("initiating graceful shutdown")

		var wg sync.WaitGroup
		for _, srv := range s.servers {
			wg.Add(1)
			go func(srv *http.Server) {
				defer wg.Done()
				if err := srv.Shutdown(ctx); err != nil {
					s.logger.Error("error during listener shutdown", "address", srv.Addr, "error", err)
					shutdownErr = fmt.Errorf("listener %s shutdown error: %w", srv.Addr, err)
				}
			}(srv)
		}
		wg.Wait()

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("server stopped")
	})

	return shutdownErr
}

// IsRunning reports whether the server is currently serving.
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}
