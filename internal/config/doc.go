// Package config assembles the options of a sign run.
//
// Values are layered: NewConfig defaults, then the .tiebasign YAML file
// (merged with mergo so that only the keys present override), then the
// environment (credentials and SMTP password), then CLI flags. Validate
// returns the sentinel errors declared in errors.go.
package config
