package metrics

import (
	"github.com/iotaledger/hive.go/runtime/options"
)

// Collection groups the metrics of one namespace. Metrics are registered in the order they were added.
type Collection struct {
	Namespace string

	ordered []*Metric
	byName  map[string]*Metric
}

// NewCollection creates a collection and builds the prometheus collectors of its metrics.
func NewCollection(namespace string, opts ...options.Option[Collection]) *Collection {
	return options.Apply(&Collection{
		Namespace: namespace,
		byName:    make(map[string]*Metric),
	}, opts, func(c *Collection) {
		c.forEachMetric(func(m *Metric) {
			m.Namespace = c.Namespace
			m.initPromMetric()
		})
	})
}

// Metric returns the metric with the given name, or nil.
func (c *Collection) Metric(name string) *Metric {
	return c.byName[name]
}

// Size returns the number of metrics in the collection.
func (c *Collection) Size() int {
	return len(c.ordered)
}

func (c *Collection) forEachMetric(consumer func(m *Metric)) {
	for _, m := range c.ordered {
		consumer(m)
	}
}

// add keeps the first metric registered under a name.
func (c *Collection) add(m *Metric) {
	if m == nil {
		return
	}
	if _, exists := c.byName[m.Name]; exists {
		return
	}

	c.byName[m.Name] = m
	c.ordered = append(c.ordered, m)
}

// WithMetric adds a metric to the collection.
func WithMetric(m *Metric) options.Option[Collection] {
	return func(c *Collection) {
		c.add(m)
	}
}
