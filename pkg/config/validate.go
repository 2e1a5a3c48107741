package config

import (
	"fmt"
	"strings"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g. "proxy.origin_down_time").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All violations are collected and returned
// together rather than failing fast on the first one found.
func Validate(cfg *Config) error {
	var errs []FieldError

	if cfg.Version != 1 {
		errs = append(errs, FieldError{Field: "version", Message: "must be 1"})
	}
	if cfg.Threads < 0 {
		errs = append(errs, FieldError{Field: "threads", Message: "must be non-negative"})
	}
	if cfg.UpstreamKeepalivePoolSize < 0 {
		errs = append(errs, FieldError{Field: "upstream_keepalive_pool_size", Message: "must be non-negative"})
	}

	errs = append(errs, validateProxy(&cfg.Proxy)...)
	errs = append(errs, validateCache(&cfg.Cache)...)
	errs = append(errs, validateAPI(&cfg.API)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateProxy(cfg *ProxyConfig) []FieldError {
	var errs []FieldError

	if len(cfg.HTTPBindAddrs) == 0 && len(cfg.HTTPSBindAddrs) == 0 {
		errs = append(errs, FieldError{
			Field:   "proxy",
			Message: "at least one of http_bind_addrs or https_bind_addrs must be set",
		})
	}
	if cfg.OriginDownTime < 0 {
		errs = append(errs, FieldError{Field: "proxy.origin_down_time", Message: "must be non-negative"})
	}
	if cfg.ConnectionRetryLimit < 0 {
		errs = append(errs, FieldError{Field: "proxy.connection_retry_limit", Message: "must be non-negative"})
	}

	return errs
}

func validateCache(cfg *CacheConfig) []FieldError {
	var errs []FieldError

	if cfg.MaxSize < 0 {
		errs = append(errs, FieldError{Field: "cache.max_size", Message: "must be non-negative"})
	}

	return errs
}

func validateAPI(cfg *APIConfig) []FieldError {
	var errs []FieldError

	if cfg.BindAddr == "" {
		errs = append(errs, FieldError{Field: "api.bind_addr", Message: "must not be empty"})
	}
	if cfg.TLS {
		if cfg.Cert == "" {
			errs = append(errs, FieldError{Field: "api.cert", Message: "required when api.tls is true"})
		}
		if cfg.Key == "" {
			errs = append(errs, FieldError{Field: "api.key", Message: "required when api.tls is true"})
		}
	}
	if cfg.MutualTLS {
		if !cfg.TLS {
			errs = append(errs, FieldError{Field: "api.mutual_tls", Message: "requires api.tls to be true"})
		}
		if cfg.ClientCert == "" {
			errs = append(errs, FieldError{Field: "api.client_cert", Message: "required when api.mutual_tls is true"})
		}
	}

	return errs
}
