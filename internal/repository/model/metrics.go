package model

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// cacheLookups counts artifact cache lookups by result
	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meterforecast_model_cache_lookups_total",
		Help: "Model cache lookups by result",
	}, []string{"result"}) // "hit" or "miss"

	// modelLoads counts artifact loads from the underlying repository
	modelLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meterforecast_model_loads_total",
		Help: "Model artifact loads by outcome",
	}, []string{"outcome"})
)
