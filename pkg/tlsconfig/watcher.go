package tlsconfig

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Reloader holds the admin ConfigApi's current TLS certificate behind an
// atomic pointer and refreshes it when the underlying cert/key files change
// on disk, debounced the same way the teacher's policy file watcher
// debounces reload bursts from editors doing atomic renames.
type Reloader struct {
	certFile, keyFile string
	logger            *slog.Logger

	cur atomic.Pointer[tls.Certificate]

	mu     sync.Mutex
	timer  *time.Timer
	period time.Duration
}

// NewReloader loads the initial certificate and returns a Reloader ready to
// serve it via GetCertificate.
func NewReloader(certFile, keyFile string, logger *slog.Logger) (*Reloader, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cert, err := loadAndValidate(certFile, keyFile)
	if err != nil {
		return nil, err
	}
	r := &Reloader{certFile: certFile, keyFile: keyFile, logger: logger, period: 200 * time.Millisecond}
	r.cur.Store(cert)
	return r, nil
}

// GetCertificate implements the tls.Config.GetCertificate signature,
// serving whatever certificate is currently loaded regardless of SNI — the
// admin API has exactly one identity, unlike the downstream proxy's
// per-SNI CertStore.
func (r *Reloader) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	return r.cur.Load(), nil
}

// Watch blocks, reloading the certificate whenever certFile or keyFile
// changes, until ctx is cancelled. Reload failures are logged and the
// previously loaded certificate keeps serving.
func (r *Reloader) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	for _, f := range []string{r.certFile, r.keyFile} {
		if err := watcher.Add(f); err != nil {
			return fmt.Errorf("watch %q: %w", f, err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			r.debouncedReload()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Error("admin api cert watcher error", "error", err)
		}
	}
}

// debouncedReload schedules a reload after period, collapsing bursts of
// events from a single atomic file replace into one reload.
func (r *Reloader) debouncedReload() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(r.period, r.reload)
}

func (r *Reloader) reload() {
	cert, err := loadAndValidate(r.certFile, r.keyFile)
	if err != nil {
		r.logger.Error("admin api certificate reload failed, keeping previous certificate", "error", err)
		return
	}
	r.cur.Store(cert)
	r.logger.Info("admin api certificate reloaded", "cert_file", r.certFile)
}
