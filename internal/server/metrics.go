package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rmps_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rmps_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Extraction metrics
	extractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rmps_extractions_total",
			Help: "Total number of document extractions",
		},
		[]string{"method", "outcome"}, // method: barcode, ocr, none; outcome: valid or a failure kind
	)

	extractionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rmps_extraction_duration_seconds",
			Help:    "Document extraction duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method"},
	)

	// Batch metrics
	batchRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rmps_batch_runs_total",
			Help: "Total number of batch runs",
		},
		[]string{"status"},
	)

	batchDocumentsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rmps_batch_documents_total",
			Help: "Documents processed across batch runs",
		},
		[]string{"outcome"}, // outcome: processed, failed
	)
)
