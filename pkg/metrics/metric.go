package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/iotaledger/hive.go/runtime/options"
)

type MetricType uint8

const (
	// Gauge is a metric that represents a single numerical value that can arbitrarily go up and down.
	// during metric Update the collected value is set, thus previous value is overwritten.
	Gauge MetricType = iota
	// Counter is a cumulative metric that represents a single numerical value that only ever goes up.
	// during metric Update the collected value is added to its current value.
	Counter
)

// Metric is a single metric that is registered to the prometheus registry. It is either read with
// WithCollectFunc on every scrape or updated from events hooked in WithInitFunc.
type Metric struct {
	Name      string
	Type      MetricType
	Namespace string

	help        string
	labels      []string
	collectFunc func() (value float64, labelValues []string)
	initFunc    func() (unhook func())
	unhook      func()

	promMetric prometheus.Collector
	once       sync.Once
}

// NewMetric creates a new metric with given name and options.
func NewMetric(name string, opts ...options.Option[Metric]) *Metric {
	return options.Apply(&Metric{
		Name: name,
	}, opts)
}

func (m *Metric) initPromMetric() {
	m.once.Do(func() {
		switch m.Type {
		case Gauge:
			if len(m.labels) > 0 {
				m.promMetric = prometheus.NewGaugeVec(prometheus.GaugeOpts{
					Name:      m.Name,
					Namespace: m.Namespace,
					Help:      m.help,
				}, m.labels)

				return
			}
			m.promMetric = prometheus.NewGauge(prometheus.GaugeOpts{
				Name:      m.Name,
				Namespace: m.Namespace,
				Help:      m.help,
			})
		case Counter:
			if len(m.labels) > 0 {
				m.promMetric = prometheus.NewCounterVec(prometheus.CounterOpts{
					Name:      m.Name,
					Namespace: m.Namespace,
					Help:      m.help,
				}, m.labels)

				return
			}
			m.promMetric = prometheus.NewCounter(prometheus.CounterOpts{
				Name:      m.Name,
				Namespace: m.Namespace,
				Help:      m.help,
			})
		}
	})
}

func (m *Metric) collect() {
	if m.collectFunc != nil {
		value, labelValues := m.collectFunc()
		m.update(value, labelValues...)
	}
}

func (m *Metric) update(metricValue float64, labelValues ...string) {
	if len(labelValues) != len(m.labels) {
		return
	}

	switch metric := m.promMetric.(type) {
	case prometheus.Gauge:
		metric.Set(metricValue)
	case *prometheus.GaugeVec:
		metric.WithLabelValues(labelValues...).Set(metricValue)
	case prometheus.Counter:
		metric.Add(metricValue)
	case *prometheus.CounterVec:
		metric.WithLabelValues(labelValues...).Add(metricValue)
	}
}

func (m *Metric) increment(labelValues ...string) {
	if len(labelValues) != len(m.labels) {
		return
	}

	switch metric := m.promMetric.(type) {
	case prometheus.Gauge:
		metric.Inc()
	case *prometheus.GaugeVec:
		metric.WithLabelValues(labelValues...).Inc()
	case prometheus.Counter:
		metric.Inc()
	case *prometheus.CounterVec:
		metric.WithLabelValues(labelValues...).Inc()
	}
}

func (m *Metric) shutdown() {
	if m.unhook != nil {
		m.unhook()
	}
}

// WithType sets the metric type: Gauge, GaugeVec, Counter, CounterVec.
func WithType(t MetricType) options.Option[Metric] {
	return func(m *Metric) {
		m.Type = t
	}
}

// WithHelp sets the help text for the metric.
func WithHelp(help string) options.Option[Metric] {
	return func(m *Metric) {
		m.help = help
	}
}

// WithLabels allows to define labels for the metric, they will need to be passed in the same order to the Update.
func WithLabels(labels ...string) options.Option[Metric] {
	return func(m *Metric) {
		m.labels = labels
	}
}

// WithCollectFunc allows to define a function that will be called each time when prometheus will scrap the data.
func WithCollectFunc(collectFunc func() (metricValue float64, labelValues []string)) options.Option[Metric] {
	return func(m *Metric) {
		m.collectFunc = collectFunc
	}
}

// WithInitFunc allows to define a function that is called once when the metric is registered. It hooks the events
// the metric is updated on and returns the function removing those hooks.
func WithInitFunc(initFunc func() (unhook func())) options.Option[Metric] {
	return func(m *Metric) {
		m.initFunc = initFunc
	}
}
