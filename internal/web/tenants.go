// internal/web/tenants.go
//
// Tenant provisioning endpoint.
package web

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/yanizio/stolyo/internal/provision"
)

type createTenantPayload struct {
	Name          string `json:"name" validate:"required"`
	Slug          string `json:"slug" validate:"required"`
	OwnerEmail    string `json:"ownerEmail" validate:"required,email"`
	OwnerPassword string `json:"ownerPassword" validate:"required,min=8"`
	OwnerName     string `json:"ownerName" validate:"omitempty"`
	CustomDomain  string `json:"customDomain" validate:"omitempty,hostname"`
}

// createTenant handles POST /api/tenants.  When an admin API key is
// configured the X-Admin-API-Key header must match it.
func (h *handlers) createTenant(w http.ResponseWriter, req *http.Request) {
	if h.d.AdminAPIKey != "" {
		supplied := req.Header.Get("X-Admin-API-Key")
		if subtle.ConstantTimeCompare([]byte(supplied), []byte(h.d.AdminAPIKey)) != 1 {
			writeError(w, http.StatusUnauthorized, "invalid admin API key")
			return
		}
	}

	var payload createTenantPayload
	if !decodeBody(w, req, &payload) {
		return
	}
	if !validatePayload(w, payload) {
		return
	}

	tenant, err := h.d.Provisioner.CreateTenant(req.Context(), provision.CreateTenantParams{
		Name:          payload.Name,
		Slug:          payload.Slug,
		OwnerEmail:    payload.OwnerEmail,
		OwnerPassword: payload.OwnerPassword,
		OwnerName:     payload.OwnerName,
		CustomDomain:  payload.CustomDomain,
	})
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, tenant)
	case errors.Is(err, provision.ErrMissingFields), errors.Is(err, provision.ErrInvalidSlug):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, provision.ErrOwnerEmailTaken),
		errors.Is(err, provision.ErrDomainExists),
		errors.Is(err, provision.ErrSlugTaken):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeInternal(w, req, err)
	}
}

// validatePayload runs struct validation and reports per-field errors.
func validatePayload(w http.ResponseWriter, payload any) bool {
	err := validate.Struct(payload)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return false
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[strings.ToLower(fe.Field()[:1])+fe.Field()[1:]] = fe.Tag()
	}
	writeFieldErrors(w, fields)
	return false
}
