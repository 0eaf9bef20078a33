// Package config defines the archivefs configuration: cache sizing and
// expiry, logging level, and the optional metrics endpoint. Configuration is
// loaded from YAML files and ARCHIVEFS_* environment overrides.
package config
