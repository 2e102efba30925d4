package dem

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	gridResizes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dem_grid_resizes_total",
		Help: "The total number of grid resizes",
	})
	gridAllocatedMegabytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dem_grid_allocated_megabytes",
		Help: "The approximate size of the most recent grid allocation in megabytes",
	})
)
