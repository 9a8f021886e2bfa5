package metrics

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iotaledger/hive.go/runtime/syncutils"
)

// RouteMetrics is the route the prometheus exporter is mounted on.
const RouteMetrics = "/metrics"

// Collector is responsible for creation and collection of metrics for the prometheus.
type Collector struct {
	Registry    *prometheus.Registry
	collections map[string]*Collection
	mutex       syncutils.RWMutex
}

// New creates a collector with its own prometheus registry.
func New() *Collector {
	return &Collector{
		Registry:    prometheus.NewRegistry(),
		collections: make(map[string]*Collection),
	}
}

// RegisterRuntimeCollectors adds the go runtime and process metrics.
func (c *Collector) RegisterRuntimeCollectors() {
	c.Registry.MustRegister(collectors.NewGoCollector())
	c.Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}

// RegisterCollection registers the metrics of the collection and hooks their events.
func (c *Collector) RegisterCollection(coll *Collection) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.collections[coll.Namespace] = coll
	coll.forEachMetric(func(m *Metric) {
		c.Registry.MustRegister(m.promMetric)
		if m.initFunc != nil {
			m.unhook = m.initFunc()
		}
	})
}

// Collect collects all metrics from the registered collections.
func (c *Collector) Collect() {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	for _, collection := range c.collections {
		collection.forEachMetric((*Metric).collect)
	}
}

// Increment increments the value of the existing metric defined by the subsystem and metricName.
func (c *Collector) Increment(subsystem string, metricName string, labels ...string) {
	if m := c.getMetric(subsystem, metricName); m != nil {
		m.increment(labels...)
	}
}

// RegisterRoute serves the registry on RouteMetrics of the given echo instance.
func (c *Collector) RegisterRoute(e *echo.Echo) {
	e.GET(RouteMetrics, func(ctx echo.Context) error {
		c.Collect()

		promhttp.HandlerFor(c.Registry, promhttp.HandlerOpts{
			EnableOpenMetrics: true,
		}).ServeHTTP(ctx.Response().Writer, ctx.Request())

		return nil
	})
}

// Shutdown removes all event hooks of the registered metrics.
func (c *Collector) Shutdown() {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	for _, collection := range c.collections {
		collection.forEachMetric((*Metric).shutdown)
	}
}

func (c *Collector) getMetric(subsystem string, metricName string) *Metric {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if collection, exists := c.collections[subsystem]; exists {
		return collection.Metric(metricName)
	}

	return nil
}
