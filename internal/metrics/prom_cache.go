package metrics

import (
	"maps"
	"slices"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	prometheusCounterSuffix  = "_total"
	prometheusDurationSuffix = "_seconds"
	prometheusPrefix         = "tinyvault_"
)

// sortedLabelNames returns label names in a stable order so that vectors registered
// with the same labels always line up with their values.
func sortedLabelNames(labels map[string]string) []string {
	return slices.Sorted(maps.Keys(labels))
}

func labelValues(labels map[string]string) []string {
	var result []string

	for _, k := range sortedLabelNames(labels) {
		result = append(result, labels[k])
	}

	return result
}

func (r *Registry) getPrometheusCounter(opts prometheus.CounterOpts, labels map[string]string) prometheus.Counter {
	prom := r.promCounters[opts.Name]
	if prom == nil {
		prom = r.factory.NewCounterVec(opts, sortedLabelNames(labels))

		r.promCounters[opts.Name] = prom
	}

	return prom.WithLabelValues(labelValues(labels)...)
}

func (r *Registry) getPrometheusGauge(opts prometheus.GaugeOpts, labels map[string]string) prometheus.Gauge {
	prom := r.promGauges[opts.Name]
	if prom == nil {
		prom = r.factory.NewGaugeVec(opts, sortedLabelNames(labels))

		r.promGauges[opts.Name] = prom
	}

	return prom.WithLabelValues(labelValues(labels)...)
}

func (r *Registry) getPrometheusHistogram(opts prometheus.HistogramOpts, labels map[string]string) prometheus.Observer {
	prom := r.promHistograms[opts.Name]
	if prom == nil {
		prom = r.factory.NewHistogramVec(opts, sortedLabelNames(labels))

		r.promHistograms[opts.Name] = prom
	}

	return prom.WithLabelValues(labelValues(labels)...)
}
