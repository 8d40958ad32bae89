package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "linkhub"

// Registry holds all client metrics.
// A nil *Registry is valid and records nothing.
type Registry struct {
	reg *prometheus.Registry

	AuthOperations *prometheus.CounterVec
	SelfHeals      prometheus.Counter
	GuardDecisions *prometheus.CounterVec
	Notifications  *prometheus.CounterVec
	Authenticated  prometheus.Gauge
}

// NewRegistry creates a registry with all client metrics registered.
// Go runtime and process collectors are included when withRuntime is set.
func NewRegistry(withRuntime bool) *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		AuthOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "operations_total",
			Help:      "Authentication operations by operation and result",
		}, []string{"op", "result"}),
		SelfHeals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "self_heals_total",
			Help:      "Sessions cleared after the server rejected the stored token",
		}),
		GuardDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "guard",
			Name:      "decisions_total",
			Help:      "Navigation guard decisions",
		}, []string{"decision"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notifications by admission result",
		}, []string{"result"}),
		Authenticated: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "authenticated",
			Help:      "1 when a user profile is loaded, 0 otherwise",
		}),
	}

	r.reg.MustRegister(
		r.AuthOperations,
		r.SelfHeals,
		r.GuardDecisions,
		r.Notifications,
		r.Authenticated,
	)
	if withRuntime {
		r.reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return r
}

// Gatherer returns the underlying gatherer.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler returns the HTTP handler for the metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// ObserveAuth counts one authentication operation.
func (r *Registry) ObserveAuth(op string, err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.AuthOperations.WithLabelValues(op, result).Inc()
}

// ObserveSelfHeal counts one session cleared by the server rejecting its token.
func (r *Registry) ObserveSelfHeal() {
	if r == nil {
		return
	}
	r.SelfHeals.Inc()
}

// ObserveGuard counts one navigation decision.
func (r *Registry) ObserveGuard(decision string) {
	if r == nil {
		return
	}
	r.GuardDecisions.WithLabelValues(decision).Inc()
}

// ObserveNotification counts one notification as "admitted" or "dropped".
func (r *Registry) ObserveNotification(result string) {
	if r == nil {
		return
	}
	r.Notifications.WithLabelValues(result).Inc()
}

// SetAuthenticated records whether a profile is currently loaded.
func (r *Registry) SetAuthenticated(ok bool) {
	if r == nil {
		return
	}
	if ok {
		r.Authenticated.Set(1)
	} else {
		r.Authenticated.Set(0)
	}
}
