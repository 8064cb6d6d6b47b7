package oracle

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	lookups = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "coinfolio",
		Name:      "price_lookups_total",
		Help:      "Batched price requests sent to CoinGecko.",
	})
	lookupFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "coinfolio",
		Name:      "price_lookup_failures_total",
		Help:      "Price requests that failed.",
	})
	cacheResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coinfolio",
		Name:      "price_cache_total",
		Help:      "Symbols served by the price cache, by result.",
	}, []string{"result"})
)
