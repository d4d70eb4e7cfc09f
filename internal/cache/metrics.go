package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	hitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sahayak",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Cache reads that returned a usable payload.",
	})

	missesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sahayak",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Cache reads with no stored entry.",
	})

	readErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sahayak",
		Subsystem: "cache",
		Name:      "read_errors_total",
		Help:      "Cache reads degraded to a miss by storage or decode errors.",
	})

	writeErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sahayak",
		Subsystem: "cache",
		Name:      "write_errors_total",
		Help:      "Cache writes dropped by serialization or storage errors.",
	})
)
