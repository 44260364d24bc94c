package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every gateway metric
const Namespace = "portal_gateway"

// RouterMetrics counts page router outcomes
type RouterMetrics struct {
	// Decisions by deciding rule and outcome kind
	Decisions *prometheus.CounterVec
	// TemplateResolutions by winning source and template
	TemplateResolutions *prometheus.CounterVec
	// LookupErrors counts host lookups that failed hard
	LookupErrors prometheus.Counter
}

// NewRouterMetrics registers router metrics on registerer.
// A nil registerer yields unregistered (test) collectors.
func NewRouterMetrics(registerer prometheus.Registerer) *RouterMetrics {
	factory := promauto.With(registerer)

	return &RouterMetrics{
		Decisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "router",
				Name:      "decisions_total",
				Help:      "Page router decisions by rule and kind",
			},
			[]string{"rule", "kind"},
		),
		TemplateResolutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "router",
				Name:      "template_resolutions_total",
				Help:      "Resolved templates by winning source",
			},
			[]string{"source", "template"},
		),
		LookupErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "tenant",
				Name:      "lookup_errors_total",
				Help:      "Host-to-template lookups that failed and fell back to the default",
			},
		),
	}
}

// ObserveDecision records one router decision
func (m *RouterMetrics) ObserveDecision(rule, kind string) {
	if m == nil {
		return
	}
	m.Decisions.WithLabelValues(rule, kind).Inc()
}

// ObserveTemplate records which source supplied the template
func (m *RouterMetrics) ObserveTemplate(source, template string) {
	if m == nil {
		return
	}
	m.TemplateResolutions.WithLabelValues(source, template).Inc()
}

// ObserveLookupError records a failed host lookup
func (m *RouterMetrics) ObserveLookupError() {
	if m == nil {
		return
	}
	m.LookupErrors.Inc()
}

// Handler exposes the metrics of gatherer
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
