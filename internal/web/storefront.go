// internal/web/storefront.go
//
// Public storefront document.
//
// Context
// -------
// This is the one endpoint with no session: the tenant comes entirely
// from the hostname.  An unresolvable host is a 404, never a fallback
// to some default store.
package web

import (
	"net/http"

	"github.com/yanizio/stolyo/internal/catalog"
	"github.com/yanizio/stolyo/internal/store"
)

type storefrontResponse struct {
	Store    storefrontStore   `json:"store"`
	Config   store.Config      `json:"config"`
	CSSVars  map[string]string `json:"cssVars"`
	Products []catalog.Product `json:"products"`
}

type storefrontStore struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// storefront handles GET /api/storefront.
func (h *handlers) storefront(w http.ResponseWriter, req *http.Request) {
	tenant, err := h.d.Resolver.FromRequest(req)
	if err != nil {
		writeInternal(w, req, err)
		return
	}
	if tenant == nil {
		writeError(w, http.StatusNotFound, "no store on this host")
		return
	}

	db, err := h.d.Registry.Get(req.Context(), tenant.SchemaName)
	if err != nil {
		writeInternal(w, req, err)
		return
	}

	products, err := catalog.NewRepo(db).ActiveStorefront(req.Context())
	if err != nil {
		writeInternal(w, req, err)
		return
	}
	if products == nil {
		products = []catalog.Product{}
	}
	cfg, err := store.NewService(db).Load(req.Context())
	if err != nil {
		writeInternal(w, req, err)
		return
	}

	writeJSON(w, http.StatusOK, storefrontResponse{
		Store:    storefrontStore{Name: tenant.Name, Slug: tenant.Slug},
		Config:   cfg,
		CSSVars:  cfg.CSSVars(),
		Products: products,
	})
}
