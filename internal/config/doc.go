// Package config defines the application configuration structures and
// loading logic. Configuration is read from environment variables (with the
// REDPEN_ prefix) and an optional config file, then validated before use.
package config
