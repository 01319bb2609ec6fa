package metric

import (
	stderrors "errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/c360/nodeforge/errors"
)

// Registry manages the prometheus registry holding the engine metrics plus
// any caller-registered collectors.
type Registry struct {
	prometheusRegistry *prometheus.Registry
	metrics            *Metrics
	registered         map[string]prometheus.Collector
	mu                 sync.RWMutex
}

// NewRegistry creates a metrics registry with the core engine metrics and Go
// runtime collectors pre-registered.
func NewRegistry(namespace string) *Registry {
	r := &Registry{
		prometheusRegistry: prometheus.NewRegistry(),
		metrics:            NewMetrics(namespace),
		registered:         make(map[string]prometheus.Collector),
	}

	for _, c := range r.metrics.Collectors() {
		r.prometheusRegistry.MustRegister(c)
	}
	r.prometheusRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// PrometheusRegistry returns the underlying prometheus registry for scrape
// handler wiring.
func (r *Registry) PrometheusRegistry() *prometheus.Registry {
	return r.prometheusRegistry
}

// CoreMetrics returns the engine metrics.
func (r *Registry) CoreMetrics() *Metrics {
	return r.metrics
}

// RegisterCollector registers a caller-supplied collector under a unique name.
func (r *Registry) RegisterCollector(name string, c prometheus.Collector) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.registered[name]; exists {
		return errors.WrapValidation(
			fmt.Errorf("collector %q is already registered", name),
			"MetricRegistry", "RegisterCollector", "duplicate collector check")
	}

	if err := r.prometheusRegistry.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if stderrors.As(err, &already) {
			return errors.WrapValidation(err, "MetricRegistry", "RegisterCollector",
				fmt.Sprintf("prometheus conflict for collector %q", name))
		}
		return errors.Wrap(err, "MetricRegistry", "RegisterCollector", "prometheus registration")
	}

	r.registered[name] = c
	return nil
}

// Unregister removes a caller-registered collector. Core engine metrics
// cannot be unregistered.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, exists := r.registered[name]
	if !exists {
		return false
	}
	delete(r.registered, name)
	return r.prometheusRegistry.Unregister(c)
}
