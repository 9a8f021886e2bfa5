package metrics

import (
	"strconv"

	"github.com/ferat8/sui/pkg/client"
	"github.com/ferat8/sui/pkg/types"
)

const (
	clientNamespace = "client"

	cacheHits            = "cache_hits"
	cacheMisses          = "cache_misses"
	cacheSize            = "cache_size"
	objectsInvalidated   = "objects_invalidated"
	closuresResolved     = "closures_resolved"
	packagesRequested    = "packages_requested"
	layoutCacheHits      = "layout_cache_hits"
	transactionsExecuted = "transactions_executed"
)

// NewClientCollection exposes the counters of a client session. Event driven metrics are updated through collector.
func NewClientCollection(collector *Collector, c *client.Client) *Collection {
	return NewCollection(clientNamespace,
		WithMetric(NewMetric(cacheHits,
			WithType(Gauge),
			WithHelp("Number of object reads answered from the cache."),
			WithCollectFunc(func() (metricValue float64, labelValues []string) {
				return float64(c.Cache().Hits()), nil
			}),
		)),
		WithMetric(NewMetric(cacheMisses,
			WithType(Gauge),
			WithHelp("Number of object reads that fell back to the backend."),
			WithCollectFunc(func() (metricValue float64, labelValues []string) {
				return float64(c.Cache().Misses()), nil
			}),
		)),
		WithMetric(NewMetric(cacheSize,
			WithType(Gauge),
			WithHelp("Number of object ids held by the cache."),
			WithCollectFunc(func() (metricValue float64, labelValues []string) {
				return float64(c.Cache().Size()), nil
			}),
		)),
		WithMetric(NewMetric(objectsInvalidated,
			WithType(Counter),
			WithHelp("Number of cached objects invalidated by execution effects."),
			WithInitFunc(func() (unhook func()) {
				return c.Cache().Events.ObjectInvalidated.Hook(func(_ types.ObjectRef) {
					collector.Increment(clientNamespace, objectsInvalidated)
				}).Unhook
			}),
		)),
		WithMetric(NewMetric(closuresResolved,
			WithType(Gauge),
			WithHelp("Number of dependency closures resolved."),
			WithCollectFunc(func() (metricValue float64, labelValues []string) {
				return float64(c.Loader().ClosuresResolved()), nil
			}),
		)),
		WithMetric(NewMetric(packagesRequested,
			WithType(Gauge),
			WithHelp("Number of packages requested while resolving closures."),
			WithCollectFunc(func() (metricValue float64, labelValues []string) {
				return float64(c.Loader().PackagesFetched()), nil
			}),
		)),
		WithMetric(NewMetric(layoutCacheHits,
			WithType(Gauge),
			WithHelp("Number of layouts served from the layout cache."),
			WithCollectFunc(func() (metricValue float64, labelValues []string) {
				return float64(c.Resolver().CacheHits()), nil
			}),
		)),
		WithMetric(NewMetric(transactionsExecuted,
			WithType(Counter),
			WithLabels("success"),
			WithHelp("Number of transactions submitted through the client."),
			WithInitFunc(func() (unhook func()) {
				return c.QuorumDriver.Events.TransactionExecuted.Hook(func(response *types.TransactionResponse) {
					collector.Increment(clientNamespace, transactionsExecuted, strconv.FormatBool(response.Effects.Status.Success))
				}).Unhook
			}),
		)),
	)
}
