// Package config handles YAML configuration loading with environment variable substitution.
//
// Configuration files support ${VAR} syntax for environment variable interpolation.
// One file configures both the dumper and the consolidator; the database
// section is only validated when the consolidator runs.
package config
