package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// KeyDerivationBuckets are histogram buckets (in seconds) suitable for password-based key derivation.
//
//nolint:gochecknoglobals,mnd
var KeyDerivationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

// DurationDistributionState captures the momentary state of a duration distribution.
type DurationDistributionState struct {
	Count int64
	Sum   time.Duration
	Max   time.Duration
}

// DurationDistribution measures the distribution of durations.
type DurationDistribution struct {
	mu    sync.Mutex
	state DurationDistributionState

	prom prometheus.Observer
}

// Observe adds the provided observation value to the distribution.
func (d *DurationDistribution) Observe(dur time.Duration) {
	if d == nil {
		return
	}

	d.prom.Observe(dur.Seconds())

	d.mu.Lock()
	defer d.mu.Unlock()

	d.state.Count++
	d.state.Sum += dur

	if dur > d.state.Max {
		d.state.Max = dur
	}
}

// Snapshot captures the momentary state of the distribution.
func (d *DurationDistribution) Snapshot() DurationDistributionState {
	if d == nil {
		return DurationDistributionState{}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	return d.state
}

// DurationDistribution gets a persistent duration distribution with the provided name.
// The prometheus metric is exported with a "_seconds" suffix.
func (r *Registry) DurationDistribution(name, help string, buckets []float64, labels map[string]string) *DurationDistribution {
	if r == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	fullName := name + labelsSuffix(labels)

	d := r.allDistributions[fullName]
	if d == nil {
		d = &DurationDistribution{
			prom: r.getPrometheusHistogram(prometheus.HistogramOpts{
				Name:    prometheusPrefix + name + prometheusDurationSuffix,
				Help:    help,
				Buckets: buckets,
			}, labels),
		}

		r.allDistributions[fullName] = d
	}

	return d
}
