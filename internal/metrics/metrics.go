// Package metrics holds Prometheus instruments that are used across the
// service.  All collectors are registered with the global registry, so
// importing this package in cmd/web is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ActiveTenantPools = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_tenant_pools",
			Help: "Number of tenant-scoped connection pools currently open.",
		})

	TenantPoolOpenTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tenant_pool_open_total",
			Help: "Cumulative number of tenant-scoped pools opened.",
		})

	TenantResolveTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tenant_resolve_total",
			Help: "Cumulative number of hosts successfully resolved to a tenant.",
		})

	TenantResolveMissTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tenant_resolve_miss_total",
			Help: "Cumulative number of hosts that resolved to no tenant.",
		})

	SchemaProvisionTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "schema_provision_total",
			Help: "Cumulative number of tenant schema provisioning runs.",
		})

	SchemaProvisionErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "schema_provision_errors_total",
			Help: "Cumulative number of failed tenant schema provisioning runs.",
		})
)

func init() {
	prometheus.MustRegister(
		ActiveTenantPools,
		TenantPoolOpenTotal,
		TenantResolveTotal,
		TenantResolveMissTotal,
		SchemaProvisionTotal,
		SchemaProvisionErrorsTotal,
	)
}
