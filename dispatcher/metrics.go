package dispatcher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var DispatchResults = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "amb",
	Subsystem: "dispatcher",
	Name:      "results_total",
	Help:      "Counts recipient invocations by their terminal status.",
}, []string{"status"})
