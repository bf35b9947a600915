package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AllocationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_allocations_total",
		Help: "Total number of per-order allocation outcomes",
	}, []string{"outcome", "customer_class"})

	SalesRecordedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sales_recorded_total",
		Help: "Total number of sales recorded against the ledger",
	})

	SalesRejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sales_rejected_total",
		Help: "Total number of sales rejected for insufficient stock",
	})

	ReorderAlertsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reorder_alerts_total",
		Help: "Total number of below-reorder-point signals",
	})

	BatchesAddedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "batches_added_total",
		Help: "Total number of inventory batches added",
	})

	OrderDecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_decisions_total",
		Help: "Total number of fulfillment decisions by outcome",
	}, []string{"status"})

	AllocationPassLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "allocation_pass_latency_seconds",
		Help:    "Latency of full allocation passes",
		Buckets: prometheus.DefBuckets,
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
