package metrics

import (
	"sort"

	"github.com/prometheus/client_golang/prometheus"
)

var defaultBuckets = prometheus.DefBuckets

// NewHistogramVec returns a latency histogram labelled by command name.
func NewHistogramVec(metricName string) *prometheus.HistogramVec {
	return prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    metricName,
			Help:    "Duration of command processing in seconds",
			Buckets: defaultBuckets,
		},
		[]string{"command"},
	)
}

// RecordDuration observes a single command duration. A nil histogram is ignored.
func RecordDuration(metric *prometheus.HistogramVec, command string, seconds float64) {
	if metric == nil {
		return
	}
	metric.WithLabelValues(command).Observe(seconds)
}

// Collector exposes a Registry to prometheus.
//
// The key set of a Registry grows lazily, so the collector is unchecked:
// Describe sends nothing and every Collect builds const metrics from a
// fresh Snapshot.
type Collector struct {
	registry *Registry
}

// NewCollector wraps the registry.
func NewCollector(r *Registry) *Collector {
	return &Collector{registry: r}
}

func (c *Collector) Describe(chan<- *prometheus.Desc) {}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	snap := c.registry.Snapshot()

	names := make([]string, 0, len(snap))
	for name := range snap {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		valueType := prometheus.CounterValue
		if gauges[MetricKey(name)] {
			valueType = prometheus.GaugeValue
		}
		desc := prometheus.NewDesc(name, "kvstore metric "+name, nil, nil)
		ch <- prometheus.MustNewConstMetric(desc, valueType, float64(snap[name]))
	}
}

// NewPrometheusRegistry builds a dedicated prometheus registry holding the
// counter collector and the command histogram.
func NewPrometheusRegistry(r *Registry, commandDuration *prometheus.HistogramVec) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(NewCollector(r))
	if commandDuration != nil {
		reg.MustRegister(commandDuration)
	}
	return reg
}
