// Package metrics provides prometheus-backed counters, gauges and duration distributions
// with snapshot support for logging.
package metrics

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tinyvault/tinyvault/vault/logging"
)

var log = logging.Module("metrics")

// Registry groups together all metrics emitted by a process.
// All methods are safe to call on a nil registry, in which case they do nothing.
type Registry struct {
	mu sync.Mutex

	prom    *prometheus.Registry
	factory promauto.Factory

	promCounters   map[string]*prometheus.CounterVec
	promGauges     map[string]*prometheus.GaugeVec
	promHistograms map[string]*prometheus.HistogramVec

	allCounters      map[string]*Counter
	allGauges        map[string]*Gauge
	allDistributions map[string]*DurationDistribution
}

// NewRegistry returns new metrics registry.
func NewRegistry() *Registry {
	pr := prometheus.NewRegistry()

	return &Registry{
		prom:    pr,
		factory: promauto.With(pr),

		promCounters:   map[string]*prometheus.CounterVec{},
		promGauges:     map[string]*prometheus.GaugeVec{},
		promHistograms: map[string]*prometheus.HistogramVec{},

		allCounters:      map[string]*Counter{},
		allGauges:        map[string]*Gauge{},
		allDistributions: map[string]*DurationDistribution{},
	}
}

// Gatherer returns the prometheus gatherer for the registry.
func (r *Registry) Gatherer() prometheus.Gatherer {
	if r == nil {
		return prometheus.NewRegistry()
	}

	return r.prom
}

// WriteToTextfile writes all metrics in the prometheus text format to the provided file.
func (r *Registry) WriteToTextfile(filename string) error {
	if r == nil {
		return nil
	}

	return errors.Wrap(prometheus.WriteToTextfile(filename, r.prom), "unable to write metrics")
}

// Log logs all metrics in the registry at debug level.
func (r *Registry) Log(ctx context.Context) {
	if r == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, n := range sortedKeys(r.allCounters) {
		log(ctx).Debugw("COUNTER", "name", n, "value", r.allCounters[n].Snapshot())
	}

	for _, n := range sortedKeys(r.allGauges) {
		log(ctx).Debugw("GAUGE", "name", n, "value", r.allGauges[n].Snapshot(false))
	}

	for _, n := range sortedKeys(r.allDistributions) {
		s := r.allDistributions[n].Snapshot()
		log(ctx).Debugw("DURATION-DISTRIBUTION", "name", n, "cnt", s.Count, "sum", s.Sum, "max", s.Max)
	}
}

func sortedKeys[T any](m map[string]T) []string {
	var result []string

	for k := range m {
		result = append(result, k)
	}

	sort.Strings(result)

	return result
}

func labelsSuffix(l map[string]string) string {
	if len(l) == 0 {
		return ""
	}

	var params []string
	for k, v := range l {
		params = append(params, k+":"+v)
	}

	sort.Strings(params)

	return "[" + strings.Join(params, ";") + "]"
}
