package feedsync

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sahayak",
		Subsystem: "feedsync",
		Name:      "fetches_total",
		Help:      "Successful remote page fetches.",
	})

	fallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sahayak",
		Subsystem: "feedsync",
		Name:      "cache_fallbacks_total",
		Help:      "First-page fetch failures served from cache instead.",
	})

	offlineServesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sahayak",
		Subsystem: "feedsync",
		Name:      "offline_serves_total",
		Help:      "First-page loads answered without attempting the network.",
	})
)
