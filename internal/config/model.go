// internal/config/model.go
//
// Typed configuration model for Stolyo.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                          – dotenv values,
//   • `conf/global.yaml`                       – primary static file,
//   • `STOLYO_`-prefixed environment overrides – highest precedence.
//
// Any value whose string begins with the prefix `vault:` is resolved
// through the Vault client *after* unmarshalling and *before*
// validation, so the model never stores Vault URIs—only plain strings.
//
// Validation happens immediately after resolution; the app fails fast
// if required fields are missing.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`—Koanf ignores `yaml`
//     tags unless configured otherwise.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.

package config

import "strings"

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr string `koanf:"listen_addr" validate:"required,hostname_port"`
	ForceHTTPS bool   `koanf:"force_https"`
}

//
// Database section
//

// Database holds the control-plane PostgreSQL URL.  Tenant-scoped URLs are
// derived from it at runtime by attaching a search_path parameter; they are
// never configured individually.
type Database struct {
	URL string `koanf:"url" validate:"required"`
}

//
// Hosts section
//

// Hosts names the apex hosts the resolver treats specially.  Dashboard is
// the base host tenant subdomains hang off (`{slug}.{dashboard}`).
// Marketing, when set, is a separate host serving the marketing site and
// central login; it defaults to Dashboard.
type Hosts struct {
	Dashboard string `koanf:"dashboard" validate:"required,fqdn|hostname"`
	Marketing string `koanf:"marketing"`
}

// MarketingHost returns the configured marketing host, falling back to the
// dashboard host.
func (h Hosts) MarketingHost() string {
	if h.Marketing != "" {
		return strings.ToLower(h.Marketing)
	}
	return strings.ToLower(h.Dashboard)
}

//
// Session section
//

// Session carries the HMAC secret for the signed session cookie.
type Session struct {
	Secret string `koanf:"secret" validate:"required,min=32"`
}

//
// Admin section
//

// Admin holds the optional API key gating the tenant-creation endpoint.
// Empty means the endpoint is open (local development only).
type Admin struct {
	APIKey string `koanf:"api_key"`
}

//
// Redis section
//

// Redis is optional.  When Addr is set the directory caches host→tenant
// lookups in Redis; when empty every lookup hits the control-plane DB.
type Redis struct {
	Addr string `koanf:"addr"`
}

//
// Storage section
//

// Storage configures the S3-compatible bucket used for image uploads.  The
// upload endpoint fails closed unless every field is present.
type Storage struct {
	Endpoint        string `koanf:"endpoint"`
	Bucket          string `koanf:"bucket"`
	AccessKeyID     string `koanf:"access_key_id"`
	SecretAccessKey string `koanf:"secret_access_key"`
	PublicBaseURL   string `koanf:"public_base_url"`
}

// Configured reports whether every storage field is present.
func (s Storage) Configured() bool {
	return s.Endpoint != "" && s.Bucket != "" && s.AccessKeyID != "" &&
		s.SecretAccessKey != "" && s.PublicBaseURL != ""
}

//
// Geo section
//

// Geo points at an optional GeoLite2 database used by the request-info
// middleware.  Empty path disables geolocation.
type Geo struct {
	DBPath string `koanf:"db_path"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime—never set in YAML or env.  The loader
// discovers `Root` (repo root or STOLYO_ROOT override) so later code can
// build absolute file paths.
type Paths struct {
	Root string // STOLYO_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Database Database `koanf:"database"`
	Hosts    Hosts    `koanf:"hosts"`
	Session  Session  `koanf:"session"`
	Admin    Admin    `koanf:"admin"`
	Redis    Redis    `koanf:"redis"`
	Storage  Storage  `koanf:"storage"`
	Geo      Geo      `koanf:"geo"`
	Paths    Paths    `koanf:"-"` // not loaded from config files
}
