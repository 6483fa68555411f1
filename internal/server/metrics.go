package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	intakeQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "capscope",
			Name:      "intake_queries_total",
			Help:      "Total number of intake queries by outcome",
		},
		[]string{"result"},
	)

	intakeQueryDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "capscope",
			Name:      "intake_query_duration_seconds",
			Help:      "Intake aggregation duration in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)

	intakeRecords = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "capscope",
			Name:      "intake_records",
			Help:      "Number of intake records currently served",
		},
	)
)

func init() {
	prometheus.MustRegister(intakeQueriesTotal)
	prometheus.MustRegister(intakeQueryDuration)
	prometheus.MustRegister(intakeRecords)
}
