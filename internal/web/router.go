// internal/web/router.go
//
// Route table and middleware chain.
//
// Context
// -------
// The edge middleware runs first: it computes the request hostname once
// (X-Forwarded-Host wins over Host) and pins it into X-Tenant-Hostname
// so every downstream consumer resolves the same value.  Request-info
// enrichment and the structured access log wrap everything, including
// the public storefront route.
package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yanizio/stolyo/internal/access"
	"github.com/yanizio/stolyo/internal/directory"
	"github.com/yanizio/stolyo/internal/provision"
	"github.com/yanizio/stolyo/internal/requestinfo"
	"github.com/yanizio/stolyo/internal/resolver"
	"github.com/yanizio/stolyo/internal/session"
	"github.com/yanizio/stolyo/internal/tenantdb"
	"github.com/yanizio/stolyo/internal/uploads"
)

// Deps carries everything the handlers need.  cmd/web wires it once at
// startup.
type Deps struct {
	Store       *directory.Store
	Resolver    *resolver.Resolver
	Guard       *access.Guard
	Sessions    *session.Manager
	Registry    *tenantdb.Registry
	Provisioner *provision.Service
	Uploads     *uploads.Signer
	Enricher    *requestinfo.Enricher
	AdminAPIKey string
	ForceHTTPS  bool
}

var validate = validator.New()

// NewRouter builds the chi route table.
func NewRouter(d Deps) http.Handler {
	h := &handlers{d: d}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(edgeHostname)
	if d.Enricher != nil {
		r.Use(d.Enricher.Enrich)
	}
	r.Use(accessLog)
	r.Use(middleware.Recoverer)
	if d.ForceHTTPS {
		r.Use(h.forceHTTPS)
	}

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/tenants", h.createTenant)

		r.Post("/auth/login", h.login)
		r.Post("/auth/logout", h.logout)
		r.Get("/me/tenant", h.myTenant)

		r.Get("/storefront", h.storefront)

		r.Route("/store", func(r chi.Router) {
			r.Get("/products", h.listProducts)
			r.Post("/products", h.createProduct)
			r.Get("/products/{id}", h.getProduct)
			r.Patch("/products/{id}", h.updateProduct)
			r.Delete("/products/{id}", h.deleteProduct)

			r.Get("/config", h.getStoreConfig)
			r.Put("/config", h.putStoreConfig)
		})

		r.Post("/uploads", h.presignUpload)
	})

	return r
}

type handlers struct {
	d Deps
}

// edgeHostname normalizes the tenant hostname into one header so later
// stages never disagree about which host the request is for.
func edgeHostname(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		req.Header.Set("X-Tenant-Hostname", resolver.Hostname(resolver.RequestHost(req)))
		next.ServeHTTP(w, req)
	})
}

// accessLog emits one structured line per request.
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		next.ServeHTTP(ww, req)

		fields := []any{
			"method", req.Method,
			"path", req.URL.Path,
			"host", req.Header.Get("X-Tenant-Hostname"),
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if info := requestinfo.FromContext(req.Context()); info != nil {
			fields = append(fields,
				"ip", info.RemoteIP,
				"browser", info.UA.Browser,
				"device", info.UA.Device,
				"bot", info.UA.IsBot,
			)
			if info.Geo.CountryISO != "" {
				fields = append(fields, "country", info.Geo.CountryISO)
			}
		}
		zap.S().Infow("request", fields...)
	})
}

// forceHTTPS answers plain-HTTP requests for known tenant hosts with a
// permanent redirect.  Unknown hosts pass through so health checks and
// local development keep working.
func (h *handlers) forceHTTPS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if resolver.RequestProto(req) != "https" {
			if tenant, err := h.d.Resolver.FromRequest(req); err == nil && tenant != nil {
				target := "https://" + req.Header.Get("X-Tenant-Hostname") + req.URL.RequestURI()
				http.Redirect(w, req, target, http.StatusPermanentRedirect)
				return
			}
		}
		next.ServeHTTP(w, req)
	})
}

// tenantDB resolves the request tenant's cached pool.
func (h *handlers) tenantDB(req *http.Request, res access.Result) (*sqlx.DB, error) {
	return h.d.Registry.Get(req.Context(), res.Tenant.SchemaName)
}
