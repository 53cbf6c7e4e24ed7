package models

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "session_count",
		Help: "The number of widget sessions.",
	})

	sessionCountTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "session_count_total",
		Help: "The total number of widget sessions.",
	})

	participantCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "participant_count",
		Help: "The number of views connected to a widget session.",
	})
)

func instrumentIncreaseSessionGauge() {
	sessionCount.Inc()
}

func instrumentDecreaseSessionGauge() {
	sessionCount.Dec()
}

func instrumentCountSession() {
	sessionCountTotal.Inc()
}

func instrumentParticipantGauge(delta float64) {
	participantCount.Add(delta)
}
