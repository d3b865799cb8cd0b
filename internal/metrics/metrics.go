package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QueryResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cbio_query_results_total",
			Help: "Total number of resolved queries by terminal state and data source",
		},
		[]string{"state", "source"},
	)

	InterpreterCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cbio_query_interpreter_calls_total",
			Help: "Total number of interpreter calls by provider and result",
		},
		[]string{"provider", "result"},
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cbio_query_fetch_duration_seconds",
			Help:    "Duration of mutation fetches in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"result"},
	)

	CatalogGenes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cbio_query_catalog_genes",
			Help: "Number of genes in the active catalog",
		},
	)

	CatalogRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cbio_query_catalog_refreshes_total",
			Help: "Total number of catalog refresh attempts by result",
		},
		[]string{"result"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cbio_query_cache_lookups_total",
			Help: "Total number of cache lookups by tier and result",
		},
		[]string{"tier", "result"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cbio_query_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"route", "status"},
	)
)
