package config

// Config is the root configuration structure for granite. It is loaded from
// a single YAML file named on the command line via --conf.
type Config struct {
	// Version must be 1. Reserved so that future incompatible config formats
	// can be rejected outright instead of misparsed.
	Version int `yaml:"version"`

	// PIDFile names a file for the process ID. It is parsed and kept in the
	// loaded config; granite does not write a PID file.
	PIDFile string `yaml:"pid_file"`

	// Daemon detaches the process from its controlling terminal after
	// socket binding. The detach mechanism itself is a supervisor/OS
	// concern; granite only records the intent here.
	// Default: false
	Daemon bool `yaml:"daemon"`

	// ErrorLog names a secondary error log file. It is parsed and kept in
	// the loaded config; granite does not open it, and all log output goes
	// to the structured logger's sink.
	ErrorLog string `yaml:"error_log"`

	// UpgradeSock names the Unix domain socket for handing listening sockets
	// between processes. granite requires it to be set when started with
	// --upgrade and logs it on SIGQUIT; granite itself does not open the
	// socket or transfer listeners over it.
	UpgradeSock string `yaml:"upgrade_sock"`

	// Threads sets runtime.GOMAXPROCS. A value <= 0 leaves GOMAXPROCS at
	// its runtime default.
	// Default: 1
	Threads int `yaml:"threads"`

	// User and Group name an identity for running after binding privileged
	// listener ports. They are parsed and kept in the loaded config; granite
	// does not change its user or group.
	User  string `yaml:"user"`
	Group string `yaml:"group"`

	// CAFile names an optional CA bundle for upstream origin certificates.
	// It is parsed and kept in the loaded config; the outgoing transport
	// does not load it and verifies origin certificates against the system
	// root CA pool.
	CAFile string `yaml:"ca_file"`

	// WorkStealing controls whether the Go scheduler's work-stealing
	// behavior is left enabled. Present for config-format parity with the
	// original implementation; Go's runtime scheduler is always
	// work-stealing, so this flag is accepted and recorded but has no
	// runtime effect beyond documenting operator intent.
	// Default: true
	WorkStealing bool `yaml:"work_stealing"`

	// UpstreamKeepalivePoolSize is a size for the upstream keep-alive pool.
	// It is parsed and validated; the outgoing transport does not read it
	// and keeps at most 64 idle connections per upstream host (256 in all).
	// Default: 128
	UpstreamKeepalivePoolSize int `yaml:"upstream_keepalive_pool_size"`

	// Proxy contains downstream listener and origin-retry configuration.
	Proxy ProxyConfig `yaml:"proxy"`

	// Cache contains response cache configuration.
	Cache CacheConfig `yaml:"cache"`

	// API contains the Config API listener configuration.
	API APIConfig `yaml:"api"`
}

// ProxyConfig contains configuration for the downstream proxy listeners and
// origin-connection behavior.
type ProxyConfig struct {
	// HTTPBindAddrs is the set of addresses the plaintext HTTP listener
	// binds to.
	// Default: ["0.0.0.0:8080"]
	HTTPBindAddrs []string `yaml:"http_bind_addrs"`

	// HTTPSBindAddrs is the set of addresses the TLS listener binds to.
	// Certificates are chosen per-connection from SNI via the CertStore.
	// Default: ["0.0.0.0:4433"]
	HTTPSBindAddrs []string `yaml:"https_bind_addrs"`

	// OriginDownTime is a process-wide origin down time, in seconds. It is
	// parsed and validated but not applied: each origin group installed
	// through the Config API takes origin_down_time from its own JSON,
	// defaulting to 10 seconds when absent.
	// Default: 10
	OriginDownTime int `yaml:"origin_down_time"`

	// ConnectionRetryLimit is a process-wide count of additional origins to
	// try after a failed connection attempt. It is parsed and validated but
	// not applied: each origin group installed through the Config API takes
	// connection_retry_limit from its own JSON, and an absent value there
	// means no retries.
	// Default: 1
	ConnectionRetryLimit int `yaml:"connection_retry_limit"`
}

// CacheConfig contains configuration for the in-memory response cache.
type CacheConfig struct {
	// MaxSize is the maximum total size, in bytes, of cached responses
	// (body plus header names and values) the cache will hold before
	// evicting least-recently-used entries.
	// Default: 104857600 (100MiB)
	MaxSize int64 `yaml:"max_size"`
}

// APIConfig contains configuration for the administrative Config API
// listener, which is a side channel distinct from the downstream proxy
// listeners.
type APIConfig struct {
	// BindAddr is the address the Config API listens on.
	// Default: "0.0.0.0:5000"
	BindAddr string `yaml:"bind_addr"`

	// TLS enables TLS termination on the Config API listener.
	// Default: false
	TLS bool `yaml:"tls"`

	// Cert and Key are PEM file paths for the Config API's own TLS
	// certificate, used only when TLS is true. They are watched for
	// changes and hot-reloaded without a restart.
	Cert string `yaml:"cert"`
	Key  string `yaml:"key"`

	// MutualTLS requires the Config API's clients to present a certificate
	// whose DER bytes are identical to the certificate in ClientCert.
	// Default: false
	MutualTLS bool `yaml:"mutual_tls"`

	// ClientCert is the PEM file path of the single client certificate
	// Config API clients must present when MutualTLS is true; the first
	// certificate block in the file is used.
	ClientCert string `yaml:"client_cert"`
}
