// Package config provides configuration management for granite.
//
// Configuration is a single YAML file loaded with LoadConfig. Loading
// applies documented defaults for any field left unset, then validates the
// result and returns a ValidationError collecting every violation found
// (not just the first) if anything is wrong.
//
//	cfg, err := config.LoadConfig("granite.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Example configuration
//
//	version: 1
//	threads: 4
//	proxy:
//	  http_bind_addrs: ["0.0.0.0:8080"]
//	  https_bind_addrs: ["0.0.0.0:4433"]
//	  origin_down_time: 10
//	  connection_retry_limit: 1
//	cache:
//	  max_size: 104857600
//	api:
//	  bind_addr: "0.0.0.0:5000"
//	  tls: false
package config
