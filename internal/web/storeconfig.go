// internal/web/storeconfig.go
//
// Storefront configuration round-trip.
package web

import (
	"io"
	"net/http"

	"github.com/yanizio/stolyo/internal/directory"
	"github.com/yanizio/stolyo/internal/store"
)

func (h *handlers) getStoreConfig(w http.ResponseWriter, req *http.Request) {
	svc, ok := h.storeService(w, req)
	if !ok {
		return
	}

	cfg, err := svc.Load(req.Context())
	if err != nil {
		writeInternal(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (h *handlers) putStoreConfig(w http.ResponseWriter, req *http.Request) {
	svc, ok := h.storeService(w, req, writeRoles...)
	if !ok {
		return
	}

	// Partial documents merge over the defaults rather than being
	// rejected, so a client may PUT only the keys it changed.
	raw, err := io.ReadAll(http.MaxBytesReader(w, req.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}
	cfg, err := store.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed store config")
		return
	}

	if err := svc.Save(req.Context(), cfg); err != nil {
		writeInternal(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// storeService guards the request and binds a config service to the
// tenant pool.  Reads admit any member; the PUT path narrows to
// OWNER/ADMIN.
func (h *handlers) storeService(w http.ResponseWriter, req *http.Request, roles ...directory.Role) (*store.Service, bool) {
	res, err := h.d.Guard.Require(req, roles...)
	if err != nil {
		writeInternal(w, req, err)
		return nil, false
	}
	if !res.OK {
		writeGuardDenial(w, res)
		return nil, false
	}
	db, err := h.tenantDB(req, res)
	if err != nil {
		writeInternal(w, req, err)
		return nil, false
	}
	return store.NewService(db), true
}
