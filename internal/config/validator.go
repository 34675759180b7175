// internal/config/validator.go
//
// Thin wrapper around go-playground/validator.
//
// Context
// -------
// `internal/config/loader.go` calls `validateStruct` immediately after
// secret resolution.  Any tag mismatch or validation error aborts
// startup, ensuring the binary never runs with partial, malformed, or
// missing configuration.
//
// Beyond `required` we lean on `hostname_port` for the listen address
// and `fqdn|hostname` for the dashboard host; the session secret gets a
// minimum length so a blank or trivially short HMAC key cannot ship.

package config

import "github.com/go-playground/validator/v10"

//
// validator instance (package-level singleton)
//

var v = validator.New()

//
// public API
//

// validateStruct returns the first validation error, or nil on success.
func validateStruct(c *Config) error {
	return v.Struct(c)
}
