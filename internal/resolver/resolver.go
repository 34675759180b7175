// internal/resolver/resolver.go
//
// Host-to-Tenant resolution.
//
// Context
// -------
// Every inbound request is mapped to at most one tenant before any data
// access happens.  Resolution order:
//
//  1. Exact match against the `domains` table.  This is the
//     authoritative path (custom domains) and wins over everything.
//  2. The dashboard and marketing apex hosts are never tenants.
//  3. Anything that is not a strict subdomain of the dashboard host is
//     rejected, so arbitrary foreign hostnames cannot probe tenant
//     slugs.
//  4. The leftmost label of a `{slug}.{dashboard}` host is matched
//     against tenant slug OR schema name.
//
// This file is the one source of truth for host extraction; no other
// component re-derives hostnames from headers.
package resolver

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/yanizio/stolyo/internal/directory"
	"github.com/yanizio/stolyo/internal/metrics"
)

// TenantSource is the minimal directory contract the resolver needs.
// Declared here so tests can inject fakes without a database.
type TenantSource interface {
	TenantByDomain(ctx context.Context, hostname string) (*directory.Tenant, error)
	TenantBySlugOrSchema(ctx context.Context, candidate string) (*directory.Tenant, error)
}

// Resolver maps request hosts to tenants.
type Resolver struct {
	src           TenantSource
	cache         *directory.HostCache // nil disables caching
	dashboardHost string
	marketingHost string
}

// New constructs a Resolver.  marketingHost may equal dashboardHost.
func New(src TenantSource, cache *directory.HostCache, dashboardHost, marketingHost string) *Resolver {
	return &Resolver{
		src:           src,
		cache:         cache,
		dashboardHost: strings.ToLower(dashboardHost),
		marketingHost: strings.ToLower(marketingHost),
	}
}

// Resolve maps a raw Host header to a tenant.  A nil tenant with nil error
// means "no tenant": the apex hosts, unknown subdomains, and foreign
// hostnames all land there.  Errors are infrastructure failures only.
func (r *Resolver) Resolve(ctx context.Context, hostHeader string) (*directory.Tenant, error) {
	hostname := Hostname(hostHeader)
	if hostname == "" {
		return nil, nil
	}

	if t, ok := r.cache.Get(ctx, hostname); ok {
		metrics.TenantResolveTotal.Inc()
		return t, nil
	}

	// Exact domain mapping wins over the subdomain rules.
	t, err := r.src.TenantByDomain(ctx, hostname)
	if err != nil && !errors.Is(err, directory.ErrNotFound) {
		return nil, err
	}
	if t != nil {
		r.cache.Put(ctx, hostname, t)
		metrics.TenantResolveTotal.Inc()
		return t, nil
	}

	// The apex hosts are never tenants.
	if hostname == r.dashboardHost || hostname == r.marketingHost {
		metrics.TenantResolveMissTotal.Inc()
		return nil, nil
	}

	// Only strict subdomains of the dashboard host may carry a slug.
	if !strings.HasSuffix(hostname, "."+r.dashboardHost) {
		metrics.TenantResolveMissTotal.Inc()
		return nil, nil
	}

	candidate, _, _ := strings.Cut(hostname, ".")
	t, err = r.src.TenantBySlugOrSchema(ctx, candidate)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			metrics.TenantResolveMissTotal.Inc()
			return nil, nil
		}
		return nil, err
	}

	r.cache.Put(ctx, hostname, t)
	metrics.TenantResolveTotal.Inc()
	return t, nil
}

// FromRequest resolves the tenant for an HTTP request using the canonical
// header precedence.
func (r *Resolver) FromRequest(req *http.Request) (*directory.Tenant, error) {
	return r.Resolve(req.Context(), RequestHost(req))
}

//
// Header helpers
//

// RequestHost returns the raw host for a request.  Precedence:
// X-Forwarded-Host, then the edge proxy's X-Tenant-Hostname, then Host.
func RequestHost(req *http.Request) string {
	if h := req.Header.Get("X-Forwarded-Host"); h != "" {
		return h
	}
	if h := req.Header.Get("X-Tenant-Hostname"); h != "" {
		return h
	}
	return req.Host
}

// RequestProto returns "https" or "http" for a request, trusting
// X-Forwarded-Proto when a proxy set it.
func RequestProto(req *http.Request) string {
	if p := req.Header.Get("X-Forwarded-Proto"); p == "https" || p == "http" {
		return p
	}
	if req.TLS != nil {
		return "https"
	}
	return "http"
}

// Hostname lower-cases a Host header and strips any :port suffix.
func Hostname(hostHeader string) string {
	h := strings.ToLower(strings.TrimSpace(hostHeader))
	if i := strings.IndexByte(h, ':'); i != -1 {
		h = h[:i]
	}
	return h
}

// Port returns the numeric :port suffix of a Host header, or "".
func Port(hostHeader string) string {
	i := strings.LastIndexByte(hostHeader, ':')
	if i == -1 {
		return ""
	}
	port := hostHeader[i+1:]
	if port == "" {
		return ""
	}
	for _, c := range port {
		if c < '0' || c > '9' {
			return ""
		}
	}
	return port
}
