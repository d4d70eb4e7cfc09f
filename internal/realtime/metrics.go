package realtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sahayak",
		Subsystem: "realtime",
		Name:      "events_total",
		Help:      "Message-create events received from the push stream.",
	})

	duplicatesDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sahayak",
		Subsystem: "realtime",
		Name:      "duplicates_dropped_total",
		Help:      "Pushed messages dropped because a listener already saw the id.",
	})

	reconnectsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sahayak",
		Subsystem: "realtime",
		Name:      "reconnects_total",
		Help:      "Push stream reconnection attempts.",
	})
)
