// internal/web/router_test.go
//
// Handler tests over the real route table.
//
// Context
// -------
// The fixture wires real collaborators — resolver, guard, session
// manager, registry — over sqlmock pools, so every request exercises
// the same code path production does, headers to SQL.
//
// Run: go test ./internal/web -v

package web_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yanizio/stolyo/internal/access"
	"github.com/yanizio/stolyo/internal/directory"
	"github.com/yanizio/stolyo/internal/provision"
	"github.com/yanizio/stolyo/internal/resolver"
	"github.com/yanizio/stolyo/internal/session"
	"github.com/yanizio/stolyo/internal/tenantdb"
	"github.com/yanizio/stolyo/internal/uploads"
	"github.com/yanizio/stolyo/internal/web"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type fixture struct {
	handler    http.Handler
	ctrl       sqlmock.Sqlmock // control-plane pool
	tenantMock sqlmock.Sqlmock // tenant-scoped pool
	sessions   *session.Manager

	userID   uuid.UUID
	tenantID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctrlDB, ctrlMock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { ctrlDB.Close() })
	control := sqlx.NewDb(ctrlDB, "sqlmock")

	tenantDB, tenantMock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	tenantPool := sqlx.NewDb(tenantDB, "sqlmock")

	store := directory.NewStore(control)
	res := resolver.New(store, nil, "stolyo.com", "")
	sessions := session.NewManager(testSecret)
	guard := access.NewGuard(sessions, res, store)
	registry := tenantdb.NewRegistryWithOpener("postgres://app@localhost/stolyo",
		func(ctx context.Context, url string) (*sqlx.DB, error) { return tenantPool, nil })
	t.Cleanup(func() { _ = registry.CloseAll() })

	signer, err := uploads.NewSigner(context.Background(), uploads.Settings{
		Endpoint:        "https://storage.example.com",
		Bucket:          "stolyo-media",
		AccessKeyID:     "AKIAEXAMPLE",
		SecretAccessKey: "secret",
		PublicBaseURL:   "https://cdn.example.com",
	})
	require.NoError(t, err)

	f := &fixture{
		ctrl:       ctrlMock,
		tenantMock: tenantMock,
		sessions:   sessions,
		userID:     uuid.New(),
		tenantID:   uuid.New(),
	}
	f.handler = web.NewRouter(web.Deps{
		Store:       store,
		Resolver:    res,
		Guard:       guard,
		Sessions:    sessions,
		Registry:    registry,
		Provisioner: provision.NewService(control, nil, "stolyo.com"),
		Uploads:     signer,
		AdminAPIKey: "admin-key",
	})
	return f
}

func (f *fixture) request(t *testing.T, method, host, path, body string, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, "http://"+host+path, strings.NewReader(body))
	req.Host = host
	if authed {
		rec := httptest.NewRecorder()
		f.sessions.Issue(rec, req, f.userID.String())
		req.Header.Set("Cookie", rec.Header().Get("Set-Cookie"))
	}

	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func (f *fixture) tenantRow() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "slug", "schema_name", "created_at"}).
		AddRow(f.tenantID, "Acme", "acme", "t_acme", time.Now())
}

func (f *fixture) membershipRow(role string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"user_id", "tenant_id", "role", "created_at"}).
		AddRow(f.userID, f.tenantID, role, time.Now())
}

func (f *fixture) expectResolve() {
	f.ctrl.ExpectQuery(`FROM\s+domains`).
		WithArgs("acme.stolyo.com").
		WillReturnRows(f.tenantRow())
}

func (f *fixture) expectMembership(role string) {
	f.ctrl.ExpectQuery(`FROM\s+user_tenants`).
		WithArgs(f.userID.String(), f.tenantID.String()).
		WillReturnRows(f.membershipRow(role))
}

func productColumns() []string {
	return []string{"id", "name", "description", "slug", "status", "price",
		"compare_at_price", "sku", "currency", "stock_quantity", "category_id",
		"image_url", "created_at", "updated_at"}
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)
	w := f.request(t, http.MethodGet, "stolyo.com", "/healthz", "", false)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStorefront_UnknownHostIs404(t *testing.T) {
	f := newFixture(t)

	// Exact domain lookup misses, and the apex host never falls back to
	// the subdomain rules.
	f.ctrl.ExpectQuery(`FROM\s+domains`).
		WithArgs("stolyo.com").
		WillReturnError(sql.ErrNoRows)

	w := f.request(t, http.MethodGet, "stolyo.com", "/api/storefront", "", false)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStorefront_ResolvedTenant(t *testing.T) {
	f := newFixture(t)

	f.expectResolve()
	now := time.Now()
	f.tenantMock.ExpectQuery(`FROM products WHERE status`).
		WithArgs("active").
		WillReturnRows(sqlmock.NewRows(productColumns()).
			AddRow(uuid.New(), "Canvas Tote", nil, "canvas-tote", "active", "24.00",
				nil, nil, "USD", 5, nil, nil, now, now))
	f.tenantMock.ExpectQuery(`SELECT config FROM store_configs`).
		WillReturnRows(sqlmock.NewRows([]string{"config"}).
			AddRow([]byte(`{"primaryColor":"#b91c1c","borderRadius":"xl"}`)))

	w := f.request(t, http.MethodGet, "acme.stolyo.com", "/api/storefront", "", false)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Store struct {
			Name string `json:"name"`
			Slug string `json:"slug"`
		} `json:"store"`
		Products []struct {
			Name string `json:"name"`
		} `json:"products"`
		CSSVars map[string]string `json:"cssVars"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Acme", resp.Store.Name)
	assert.Equal(t, "acme", resp.Store.Slug)
	require.Len(t, resp.Products, 1)
	assert.Equal(t, "Canvas Tote", resp.Products[0].Name)
	assert.Equal(t, "#b91c1c", resp.CSSVars["--store-primary"])
	assert.Equal(t, "16px", resp.CSSVars["--store-radius"])
}

func TestProducts_NoSessionIs401(t *testing.T) {
	f := newFixture(t)
	w := f.request(t, http.MethodGet, "acme.stolyo.com", "/api/store/products", "", false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProducts_MemberCannotWrite(t *testing.T) {
	f := newFixture(t)

	f.expectResolve()
	f.expectMembership("MEMBER")

	w := f.request(t, http.MethodPost, "acme.stolyo.com", "/api/store/products",
		`{"name":"Tee","price":10}`, true)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestProducts_OwnerCreates(t *testing.T) {
	f := newFixture(t)

	f.expectResolve()
	f.expectMembership("OWNER")
	f.tenantMock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("canvas-tote", uuid.Nil).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	f.tenantMock.ExpectExec(`INSERT INTO products`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := f.request(t, http.MethodPost, "acme.stolyo.com", "/api/store/products",
		`{"name":"Canvas Tôte!!","price":24,"status":"active"}`, true)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Slug   string `json:"slug"`
		Price  string `json:"price"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "canvas-tote", created.Slug)
	assert.Equal(t, "24.00", created.Price)
	assert.Equal(t, "active", created.Status)
}

func TestProducts_CreateHonorsRequestedSlug(t *testing.T) {
	f := newFixture(t)

	f.expectResolve()
	f.expectMembership("OWNER")
	f.tenantMock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("limited-drop", uuid.Nil).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	f.tenantMock.ExpectExec(`INSERT INTO products`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := f.request(t, http.MethodPost, "acme.stolyo.com", "/api/store/products",
		`{"name":"Canvas Tote","slug":"Limited Drop","price":24}`, true)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Slug string `json:"slug"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "limited-drop", created.Slug)
}

func TestProducts_ValidationFailureListsFields(t *testing.T) {
	f := newFixture(t)

	f.expectResolve()
	f.expectMembership("ADMIN")

	w := f.request(t, http.MethodPost, "acme.stolyo.com", "/api/store/products",
		`{"status":"active"}`, true)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body struct {
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body.Fields, "name")
	assert.Contains(t, body.Fields, "price")
}

func TestCreateTenant_RequiresAdminKey(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "http://stolyo.com/api/tenants",
		strings.NewReader(`{"name":"Acme","slug":"acme","ownerEmail":"o@acme.test","ownerPassword":"secret123"}`))
	req.Header.Set("X-Admin-API-Key", "wrong")
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateTenant_ValidatesPayload(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "http://stolyo.com/api/tenants",
		strings.NewReader(`{"name":"Acme","slug":"acme","ownerEmail":"not-an-email","ownerPassword":"short"}`))
	req.Header.Set("X-Admin-API-Key", "admin-key")
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var body struct {
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body.Fields, "ownerEmail")
	assert.Contains(t, body.Fields, "ownerPassword")
}

func TestMyTenant_PrefersCurrentHost(t *testing.T) {
	f := newFixture(t)

	f.ctrl.ExpectQuery(`FROM\s+user_tenants`).
		WithArgs(f.userID.String()).
		WillReturnRows(f.membershipRow("OWNER"))
	f.ctrl.ExpectQuery(`FROM\s+tenants`).
		WithArgs(f.tenantID.String()).
		WillReturnRows(f.tenantRow())
	f.ctrl.ExpectQuery(`FROM\s+domains`).
		WithArgs(f.tenantID.String()).
		WillReturnRows(sqlmock.NewRows([]string{"hostname", "tenant_id", "is_primary", "created_at"}).
			AddRow("shop.acme.io", f.tenantID, true, time.Now()).
			AddRow("acme.stolyo.com", f.tenantID, false, time.Now()))

	w := f.request(t, http.MethodGet, "acme.stolyo.com:8080", "/api/me/tenant", "", true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		RedirectURL string `json:"redirectUrl"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "http://acme.stolyo.com:8080", resp.RedirectURL)
}

func TestLogin_SetsSessionCookie(t *testing.T) {
	f := newFixture(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("demo1234"), bcrypt.MinCost)
	require.NoError(t, err)
	f.ctrl.ExpectQuery(`FROM\s+users`).
		WithArgs("o@acme.test").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "hashed_password", "name"}).
			AddRow(f.userID, "o@acme.test", string(hash), nil))

	w := f.request(t, http.MethodPost, "stolyo.com", "/api/auth/login",
		`{"email":"o@acme.test","password":"demo1234"}`, false)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Header().Get("Set-Cookie"), "stolyo_session=")
}

func TestLogin_WrongPasswordIs401(t *testing.T) {
	f := newFixture(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("demo1234"), bcrypt.MinCost)
	require.NoError(t, err)
	f.ctrl.ExpectQuery(`FROM\s+users`).
		WithArgs("o@acme.test").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "hashed_password", "name"}).
			AddRow(f.userID, "o@acme.test", string(hash), nil))

	w := f.request(t, http.MethodPost, "stolyo.com", "/api/auth/login",
		`{"email":"o@acme.test","password":"nope-nope"}`, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUploads_OwnerGetsTicket(t *testing.T) {
	f := newFixture(t)

	f.expectResolve()
	f.expectMembership("OWNER")

	w := f.request(t, http.MethodPost, "acme.stolyo.com", "/api/uploads",
		`{"contentType":"image/png"}`, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var ticket struct {
		Key       string `json:"key"`
		PublicURL string `json:"publicUrl"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ticket))
	assert.True(t, strings.HasPrefix(ticket.Key, "t_acme/products/"), ticket.Key)
}

