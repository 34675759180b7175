// internal/provision/template.go
//
// Schema template rendering.
//
// Context
// -------
// The tenant layout lives in one static SQL template compiled into the
// binary.  Rendering substitutes the normalized schema name for every
// `{{schema}}` placeholder; the result is split on statement boundaries
// and executed sequentially by the provisioner.  The renderer is pure —
// no state, no I/O.
package provision

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"

	"github.com/yanizio/stolyo/internal/database"
)

//go:embed tenant_template.sql
var tenantTemplate string

// schemaNamePattern is the full alphabet a tenant schema name may use.
// Anything else would require identifier quoting inside the template and
// is rejected outright.
var schemaNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// RenderTemplate substitutes schemaName into the template and returns the
// individual DDL statements in execution order.
func RenderTemplate(schemaName string) ([]string, error) {
	normalized := database.NormalizeSchema(schemaName)
	if !schemaNamePattern.MatchString(normalized) {
		return nil, fmt.Errorf("provision: invalid schema name %q", schemaName)
	}
	rendered := strings.ReplaceAll(tenantTemplate, "{{schema}}", normalized)
	return splitStatements(rendered), nil
}

// splitStatements breaks rendered SQL into trimmed, non-empty statements.
// The template deliberately contains no procedural bodies, so a plain
// semicolon split is sufficient.
func splitStatements(sql string) []string {
	parts := strings.Split(sql, ";")
	statements := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			statements = append(statements, s)
		}
	}
	return statements
}
