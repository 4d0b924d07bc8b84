// Package metrics provides Prometheus collectors for the vault.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "piggyvault_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "piggyvault_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// UserCacheLookupsTotal counts user cache reads by result: hit, miss or error.
	UserCacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "piggyvault_user_cache_lookups_total",
			Help: "Total number of user cache lookups",
		},
		[]string{"result"},
	)

	UserCacheRepairsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "piggyvault_user_cache_repairs_total",
			Help: "Total number of user cache entries repaired from durable storage",
		},
	)

	SessionsIssuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "piggyvault_sessions_issued_total",
			Help: "Total number of session tokens issued",
		},
	)

	AuthFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "piggyvault_auth_failures_total",
			Help: "Total number of failed authentications by error kind",
		},
		[]string{"kind"},
	)
)

const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)
