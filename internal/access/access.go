// internal/access/access.go
//
// Tenant access guard.
//
// Context
// -------
// The guard is the single authorization decision point: session identity
// plus resolved tenant plus directory membership yields a typed result.
// It has no side effects and never writes HTTP responses itself; the web
// layer maps failures onto 401/403/404 (pages deliberately answer 404
// for forbidden so tenant existence is not confirmed to non-members).
//
// Failure reasons form a closed set:
//
//	unauthorized – no valid session
//	no-tenant    – session exists, host resolves to no tenant
//	forbidden    – no membership, or role outside the allowed set
package access

import (
	"context"
	"errors"
	"net/http"

	"github.com/yanizio/stolyo/internal/directory"
)

// Reason classifies a denied request.
type Reason string

const (
	ReasonUnauthorized Reason = "unauthorized"
	ReasonNoTenant     Reason = "no-tenant"
	ReasonForbidden    Reason = "forbidden"
)

// Result is the guard's decision.  When OK is true the identity fields are
// set; otherwise Reason is.
type Result struct {
	OK         bool
	Reason     Reason
	UserID     string
	TenantID   string
	Role       directory.Role
	TenantName string
	Tenant     *directory.Tenant
}

func denied(reason Reason) Result { return Result{Reason: reason} }

//
// Collaborator contracts (narrow, fake-friendly)
//

// Identity extracts the authenticated user from a request.
type Identity interface {
	UserID(r *http.Request) (string, bool)
}

// TenantResolver yields the request's tenant, nil when none resolves.
type TenantResolver interface {
	FromRequest(r *http.Request) (*directory.Tenant, error)
}

// MembershipSource looks up the (user, tenant) membership row.
type MembershipSource interface {
	MembershipFor(ctx context.Context, userID, tenantID string) (*directory.Membership, error)
}

//
// Guard
//

// Guard combines the three collaborators into one decision function.
type Guard struct {
	sessions Identity
	resolver TenantResolver
	members  MembershipSource
}

// NewGuard wires a Guard.
func NewGuard(sessions Identity, resolver TenantResolver, members MembershipSource) *Guard {
	return &Guard{sessions: sessions, resolver: resolver, members: members}
}

// Require returns the access decision for req.  An empty allowedRoles set
// admits any member; a non-empty set additionally requires the stored role
// to be one of them.  The error return carries infrastructure failures
// only — authorization outcomes are always values.
func (g *Guard) Require(req *http.Request, allowedRoles ...directory.Role) (Result, error) {
	userID, ok := g.sessions.UserID(req)
	if !ok {
		return denied(ReasonUnauthorized), nil
	}

	tenant, err := g.resolver.FromRequest(req)
	if err != nil {
		return Result{}, err
	}
	if tenant == nil {
		return denied(ReasonNoTenant), nil
	}

	membership, err := g.members.MembershipFor(req.Context(), userID, tenant.ID.String())
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return denied(ReasonForbidden), nil
		}
		return Result{}, err
	}

	if len(allowedRoles) > 0 && !roleAllowed(membership.Role, allowedRoles) {
		return denied(ReasonForbidden), nil
	}

	return Result{
		OK:         true,
		UserID:     userID,
		TenantID:   tenant.ID.String(),
		Role:       membership.Role,
		TenantName: tenant.Name,
		Tenant:     tenant,
	}, nil
}

func roleAllowed(role directory.Role, allowed []directory.Role) bool {
	for _, a := range allowed {
		if role == a {
			return true
		}
	}
	return false
}
