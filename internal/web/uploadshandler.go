// internal/web/uploadshandler.go
//
// Presigned upload grants for product images.
package web

import (
	"errors"
	"net/http"

	"github.com/yanizio/stolyo/internal/uploads"
)

type uploadPayload struct {
	ContentType string `json:"contentType" validate:"required"`
}

// presignUpload handles POST /api/uploads.  OWNER/ADMIN only, since the
// resulting object lands under the tenant's storage prefix.
func (h *handlers) presignUpload(w http.ResponseWriter, req *http.Request) {
	res, err := h.d.Guard.Require(req, writeRoles...)
	if err != nil {
		writeInternal(w, req, err)
		return
	}
	if !res.OK {
		writeGuardDenial(w, res)
		return
	}

	var payload uploadPayload
	if !decodeBody(w, req, &payload) {
		return
	}
	if !validatePayload(w, payload) {
		return
	}

	ticket, err := h.d.Uploads.Presign(req.Context(), res.Tenant.SchemaName, payload.ContentType)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, ticket)
	case errors.Is(err, uploads.ErrUnsupportedContent):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, uploads.ErrNotConfigured):
		writeInternal(w, req, err)
	default:
		writeInternal(w, req, err)
	}
}
