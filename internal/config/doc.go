// Package config loads the camera client's YAML configuration.
//
// Values may reference environment variables using ${VAR} syntax; these are
// expanded before parsing. Optional fields receive defaults from defaults.go
// and Validate reports the first invalid field by its YAML path.
package config
