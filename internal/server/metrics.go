package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	solveRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "odetrace_solve_requests_total",
		Help: "Solve requests by method and outcome",
	}, []string{"method", "status"})

	solveDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "odetrace_solve_duration_seconds",
		Help:    "Time to compile and step a request",
		Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1, 10},
	}, []string{"method"})

	solveRecords = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "odetrace_solve_records",
		Help:    "Records per returned trace",
		Buckets: prometheus.ExponentialBuckets(1, 10, 7),
	})
)
