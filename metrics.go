package filewatch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filewatch_events_total",
		Help: "Decoded events handed to the delivery queue.",
	})
	rawReads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filewatch_raw_reads_total",
		Help: "Successful reads from the kernel notification channel.",
	})
	readErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filewatch_read_errors_total",
		Help: "Fatal notification channel failures.",
	})
	watchCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "filewatch_watches",
		Help: "Active watch registrations.",
	})
)
