// Package config handles loading and parsing of configuration from YAML files
// and environment variables. It defines the application configuration structure
// including server settings, circuit breaker thresholds and recovery timeout,
// event buffering, and admin authentication.
package config
