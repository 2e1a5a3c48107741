package config

// Default values for configuration fields, per the static config schema.
const (
	DefaultVersion                   = 1
	DefaultThreads                   = 1
	DefaultWorkStealing              = true
	DefaultUpstreamKeepalivePoolSize = 128

	DefaultOriginDownTime       = 10
	DefaultConnectionRetryLimit = 1

	DefaultCacheMaxSize = int64(104857600) // 100MiB

	DefaultAPIBindAddr = "0.0.0.0:5000"
)

// DefaultHTTPBindAddrs and DefaultHTTPSBindAddrs return fresh slices so
// ApplyDefaults never aliases a shared backing array across configs.
func DefaultHTTPBindAddrs() []string  { return []string{"0.0.0.0:8080"} }
func DefaultHTTPSBindAddrs() []string { return []string{"0.0.0.0:4433"} }

// ApplyDefaults fills in zero-valued fields of cfg with their documented
// defaults. It is idempotent: calling it twice has no additional effect.
func ApplyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = DefaultVersion
	}
	if cfg.Threads == 0 {
		cfg.Threads = DefaultThreads
	}
	if !cfg.WorkStealing {
		cfg.WorkStealing = DefaultWorkStealing
	}
	if cfg.UpstreamKeepalivePoolSize == 0 {
		cfg.UpstreamKeepalivePoolSize = DefaultUpstreamKeepalivePoolSize
	}

	if len(cfg.Proxy.HTTPBindAddrs) == 0 {
		cfg.Proxy.HTTPBindAddrs = DefaultHTTPBindAddrs()
	}
	if len(cfg.Proxy.HTTPSBindAddrs) == 0 {
		cfg.Proxy.HTTPSBindAddrs = DefaultHTTPSBindAddrs()
	}
	if cfg.Proxy.OriginDownTime == 0 {
		cfg.Proxy.OriginDownTime = DefaultOriginDownTime
	}
	if cfg.Proxy.ConnectionRetryLimit == 0 {
		cfg.Proxy.ConnectionRetryLimit = DefaultConnectionRetryLimit
	}

	if cfg.Cache.MaxSize == 0 {
		cfg.Cache.MaxSize = DefaultCacheMaxSize
	}

	if cfg.API.BindAddr == "" {
		cfg.API.BindAddr = DefaultAPIBindAddr
	}
}
