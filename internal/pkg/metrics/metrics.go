package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DispatchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calllog_dispatch_total",
		Help: "Logging units of work offered to the dispatcher, by outcome",
	}, []string{"outcome"}) // accepted | dropped

	DispatchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "calllog_dispatch_failures_total",
		Help: "Logging units of work that panicked inside a worker",
	})

	Workers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "calllog_dispatch_workers",
		Help: "Live logging worker goroutines",
	})

	RecordsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calllog_records_emitted_total",
		Help: "Log records written, by logger and level",
	}, []string{"logger", "level"})

	LatencyBucket = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "calllog_latency_bucket",
		Help:    "Request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
)
