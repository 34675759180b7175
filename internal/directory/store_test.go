// internal/directory/store_test.go
//
// Unit-tests for the control-plane store using sqlmock.
//
// Run: go test ./internal/directory -v

package directory

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(sqlx.NewDb(db, "sqlmock")), mock
}

func TestTenantByDomain(t *testing.T) {
	store, mock := newMockStore(t)

	id := uuid.New()
	now := time.Now()
	mock.ExpectQuery(`SELECT t\.id, t\.name, t\.slug, t\.schema_name, t\.created_at`).
		WithArgs("acme.stolyo.com").
		WillReturnRows(sqlmock.
			NewRows([]string{"id", "name", "slug", "schema_name", "created_at"}).
			AddRow(id.String(), "Acme", "acme", "t_acme", now))

	got, err := store.TenantByDomain(context.Background(), "acme.stolyo.com")
	if err != nil {
		t.Fatalf("TenantByDomain error: %v", err)
	}
	if got.Slug != "acme" || got.SchemaName != "t_acme" {
		t.Fatalf("unexpected tenant: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestTenantByDomain_NotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT t\.id`).
		WithArgs("unknown.stolyo.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "slug", "schema_name", "created_at"}))

	_, err := store.TenantByDomain(context.Background(), "unknown.stolyo.com")
	if err != ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestTenantBySlugOrSchema_MatchesEitherColumn(t *testing.T) {
	store, mock := newMockStore(t)

	id := uuid.New()
	mock.ExpectQuery(`WHERE\s+slug = \$1 OR schema_name = \$1`).
		WithArgs("t_acme").
		WillReturnRows(sqlmock.
			NewRows([]string{"id", "name", "slug", "schema_name", "created_at"}).
			AddRow(id.String(), "Acme", "acme", "t_acme", time.Now()))

	got, err := store.TenantBySlugOrSchema(context.Background(), "t_acme")
	if err != nil {
		t.Fatalf("TenantBySlugOrSchema error: %v", err)
	}
	if got.ID != id {
		t.Fatalf("unexpected tenant id: %s", got.ID)
	}
}

func TestMembershipFor(t *testing.T) {
	store, mock := newMockStore(t)

	userID := uuid.New()
	tenantID := uuid.New()
	mock.ExpectQuery(`SELECT user_id, tenant_id, role, created_at`).
		WithArgs(userID.String(), tenantID.String()).
		WillReturnRows(sqlmock.
			NewRows([]string{"user_id", "tenant_id", "role", "created_at"}).
			AddRow(userID.String(), tenantID.String(), "ADMIN", time.Now()))

	got, err := store.MembershipFor(context.Background(), userID.String(), tenantID.String())
	if err != nil {
		t.Fatalf("MembershipFor error: %v", err)
	}
	if got.Role != RoleAdmin {
		t.Fatalf("role = %s, want ADMIN", got.Role)
	}
}

func TestMembershipFor_Absent(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT user_id, tenant_id, role, created_at`).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "tenant_id", "role", "created_at"}))

	_, err := store.MembershipFor(context.Background(), uuid.NewString(), uuid.NewString())
	if err != ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestDomainsByTenant_OrdersPrimaryFirst(t *testing.T) {
	store, mock := newMockStore(t)

	tenantID := uuid.New()
	mock.ExpectQuery(`ORDER\s+BY is_primary DESC, created_at ASC`).
		WithArgs(tenantID.String()).
		WillReturnRows(sqlmock.
			NewRows([]string{"hostname", "tenant_id", "is_primary", "created_at"}).
			AddRow("shop.acme.com", tenantID.String(), true, time.Now()).
			AddRow("acme.stolyo.com", tenantID.String(), false, time.Now()))

	rows, err := store.DomainsByTenant(context.Background(), tenantID.String())
	if err != nil {
		t.Fatalf("DomainsByTenant error: %v", err)
	}
	if len(rows) != 2 || !rows[0].IsPrimary {
		t.Fatalf("unexpected domain order: %+v", rows)
	}
}

func TestRoleValid(t *testing.T) {
	for _, r := range []Role{RoleOwner, RoleAdmin, RoleMember} {
		if !r.Valid() {
			t.Fatalf("%s should be valid", r)
		}
	}
	if Role("SUPERUSER").Valid() {
		t.Fatal("unknown role accepted")
	}
}
