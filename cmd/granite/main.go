// Granite is a reverse HTTP proxy with dynamic routing, per-SNI TLS
// certificate dispatch, weighted health-aware origin selection, and an
// in-memory response cache, all controllable at runtime through a
// side-channel Config API.
//
// Usage:
//
//	# Start the proxy with a configuration file
//	granite run --conf /etc/granite/config.yaml
//
//	# Validate a configuration file without starting any listener
//	granite run --conf /etc/granite/config.yaml --test
//
//	# Show version information
//	granite version
package main

func main() {
	Execute()
}
