// internal/web/me.go
//
// Membership-based tenant lookup for the dashboard.
//
// Context
// -------
// After signing in on the apex dashboard the client asks "which store
// do I belong to, and where is it?"  The answer prefers the hostname
// the user is already on when it belongs to their tenant, otherwise the
// primary domain, and builds the redirect URL from the forwarded proto
// and the port the request arrived on so local development (http, odd
// ports) round-trips cleanly.
package web

import (
	"errors"
	"net/http"

	"github.com/yanizio/stolyo/internal/directory"
	"github.com/yanizio/stolyo/internal/resolver"
)

type myTenantResponse struct {
	Tenant      *directory.Tenant  `json:"tenant"`
	Role        directory.Role     `json:"role"`
	Domains     []directory.Domain `json:"domains"`
	RedirectURL string             `json:"redirectUrl"`
}

// myTenant handles GET /api/me/tenant.
func (h *handlers) myTenant(w http.ResponseWriter, req *http.Request) {
	userID, ok := h.d.Sessions.UserID(req)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	membership, err := h.d.Store.FirstMembership(req.Context(), userID)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no store membership")
			return
		}
		writeInternal(w, req, err)
		return
	}

	tenant, err := h.d.Store.TenantByID(req.Context(), membership.TenantID.String())
	if err != nil {
		writeInternal(w, req, err)
		return
	}
	domains, err := h.d.Store.DomainsByTenant(req.Context(), tenant.ID.String())
	if err != nil {
		writeInternal(w, req, err)
		return
	}
	if len(domains) == 0 {
		writeError(w, http.StatusNotFound, "store has no domains")
		return
	}

	// Stay on the current hostname when it already maps to the tenant;
	// otherwise send the user to the primary domain.  The raw header is
	// consulted here (not X-Tenant-Hostname) because the edge middleware
	// strips the port and the redirect must keep it.
	hostHeader := req.Header.Get("X-Forwarded-Host")
	if hostHeader == "" {
		hostHeader = req.Host
	}
	current := resolver.Hostname(hostHeader)
	target := domains[0].Hostname
	for _, d := range domains {
		if d.Hostname == current {
			target = current
			break
		}
	}

	redirect := resolver.RequestProto(req) + "://" + target
	if port := resolver.Port(hostHeader); port != "" && port != "80" && port != "443" {
		redirect += ":" + port
	}

	writeJSON(w, http.StatusOK, myTenantResponse{
		Tenant:      tenant,
		Role:        membership.Role,
		Domains:     domains,
		RedirectURL: redirect,
	})
}
