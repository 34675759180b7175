// internal/database/url.go
//
// Schema-qualified connection URL builder.
//
// Context
// -------
// Tenant isolation rides on PostgreSQL's search_path: each tenant-scoped
// pool is opened with its schema as the session default, so unqualified
// table names resolve inside exactly one tenant.  pgx forwards any URL
// query parameter it does not recognise to the server as a runtime
// session setting, so `?search_path=t_acme` scopes every connection in
// the pool.  A bare "schema" query key would be silently ignored by the
// driver, which is why this helper exists in one place.
package database

import (
	"fmt"
	"net/url"
	"strings"
)

// WithSearchPath returns baseURL with the normalized schema attached as the
// session search_path.  Calling it twice with the same inputs is a fixed
// point; schema names differing only in case or padding yield equal URLs.
func WithSearchPath(baseURL, schema string) (string, error) {
	normalized := NormalizeSchema(schema)
	if normalized == "" {
		return "", fmt.Errorf("database: empty schema name")
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("database: parse url: %w", err)
	}

	q := parsed.Query()
	q.Set("search_path", normalized)
	parsed.RawQuery = q.Encode()
	return parsed.String(), nil
}

// NormalizeSchema trims and lower-cases a schema name.  Registries use the
// result as their cache key so "T_Acme " and "t_acme" share one pool.
func NormalizeSchema(schema string) string {
	return strings.ToLower(strings.TrimSpace(schema))
}
