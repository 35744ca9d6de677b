// Package metrics exposes prometheus collectors for the asset registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// AssetMutations counts successful registry mutations by notification kind.
var AssetMutations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "assetadmin_asset_mutations_total",
		Help: "Total number of applied registry mutations by change kind",
	},
	[]string{"kind"},
)

// MutationFailures counts rejected mutations by error kind.
var MutationFailures = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "assetadmin_mutation_failures_total",
		Help: "Total number of rejected registry mutations by error kind",
	},
	[]string{"kind"},
)

// BatchEntries records the size distribution of batch update calls.
var BatchEntries = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "assetadmin_batch_update_entries",
		Help:    "Number of patch entries per batch update call",
		Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
	},
)

// NotificationsPublished counts change notifications handed to the sink.
var NotificationsPublished = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "assetadmin_notifications_published_total",
		Help: "Total number of change notifications published",
	},
)

// GatewayLookups counts market data gateway calls by method and outcome.
var GatewayLookups = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "assetadmin_gateway_lookups_total",
		Help: "Total number of market data gateway lookups",
	},
	[]string{"method", "outcome"},
)

// Register registers all collectors on the given registerer.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		AssetMutations,
		MutationFailures,
		BatchEntries,
		NotificationsPublished,
		GatewayLookups,
	)
}
