// Package config loads and validates the relay's YAML configuration.
//
// Files are read once at startup; the relay does not reload configuration
// mid-flight. ${VAR} references in the file are expanded from the
// environment before parsing.
package config
