package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payout_jobs_processed_total",
		Help: "Processing attempts by outcome (completed, skipped, retried, failed).",
	}, []string{"outcome"})

	jobsReleased = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payout_jobs_released_total",
		Help: "Stuck RUNNING jobs returned to the queue by the sweeper.",
	})
)
