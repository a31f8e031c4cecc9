package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exporter owns the Prometheus registry for the engine's metrics plus the
// standard Go runtime collectors, and exposes the scrape handler for the
// main HTTP server to mount.
type Exporter struct {
	registry *prometheus.Registry
}

// NewExporter creates an exporter with every engine metric registered.
func NewExporter() *Exporter {
	reg := prometheus.NewRegistry()
	for _, collector := range allMetrics() {
		reg.MustRegister(collector)
	}
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return &Exporter{registry: reg}
}

// Registry returns the underlying Prometheus registry.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// Handler returns the /metrics scrape handler.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
