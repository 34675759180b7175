// internal/provision/template_test.go
//
// Unit-tests for schema template rendering.
//
// Run: go test ./internal/provision -v

package provision

import (
	"strings"
	"testing"
)

func TestRenderTemplate_SubstitutesEveryPlaceholder(t *testing.T) {
	statements, err := RenderTemplate("t_acme")
	if err != nil {
		t.Fatalf("RenderTemplate error: %v", err)
	}
	if len(statements) == 0 {
		t.Fatal("no statements rendered")
	}
	for i, stmt := range statements {
		if strings.Contains(stmt, "{{schema}}") {
			t.Fatalf("statement %d still contains placeholder:\n%s", i, stmt)
		}
	}
	if !strings.Contains(statements[0], "CREATE SCHEMA IF NOT EXISTS t_acme") {
		t.Fatalf("first statement should create the schema, got:\n%s", statements[0])
	}
}

func TestRenderTemplate_NormalizesSchemaCase(t *testing.T) {
	upper, err := RenderTemplate("T_ACME")
	if err != nil {
		t.Fatalf("RenderTemplate error: %v", err)
	}
	lower, err := RenderTemplate("t_acme")
	if err != nil {
		t.Fatalf("RenderTemplate error: %v", err)
	}
	if len(upper) != len(lower) {
		t.Fatalf("statement counts differ: %d vs %d", len(upper), len(lower))
	}
	for i := range upper {
		if upper[i] != lower[i] {
			t.Fatalf("statement %d differs between case variants", i)
		}
	}
}

func TestRenderTemplate_RejectsUnsafeNames(t *testing.T) {
	for _, bad := range []string{"", "1abc", "t_acme; DROP SCHEMA public", "t-acme", "t acme"} {
		if _, err := RenderTemplate(bad); err == nil {
			t.Fatalf("RenderTemplate(%q) accepted an unsafe name", bad)
		}
	}
}

func TestSplitStatements(t *testing.T) {
	got := splitStatements("CREATE TABLE a (x int);\n\n;  CREATE TABLE b (y int)  ;")
	if len(got) != 2 {
		t.Fatalf("got %d statements, want 2: %#v", len(got), got)
	}
	if got[1] != "CREATE TABLE b (y int)" {
		t.Fatalf("statement not trimmed: %q", got[1])
	}
}
