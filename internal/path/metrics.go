package path

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pathSavesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "walkpath_path_saves_total",
		Help: "Paths committed successfully.",
	})
	pathSaveFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "walkpath_path_save_failures_total",
		Help: "Save attempts that were rejected or rolled back.",
	}, []string{"reason"})
	pathLoadsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "walkpath_path_loads_total",
		Help: "Path reconstructions served.",
	})
)
