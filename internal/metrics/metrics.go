package metrics

import (
	"pintu/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Workflow names used as the "workflow" label.
const (
	WorkflowRegister       = "register"
	WorkflowLogin          = "login"
	WorkflowLogout         = "logout"
	WorkflowChangeUsername = "change_username"
	WorkflowChangePassword = "change_password"
)

// Metrics holds the portal's Prometheus collectors on a private registry.
type Metrics struct {
	Registry  *prometheus.Registry
	workflows *prometheus.CounterVec
}

// New creates and registers the collectors.
func New(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	workflows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "account_workflow_total",
		Help:      "Account workflow invocations by workflow and outcome.",
	}, []string{"workflow", "outcome"})

	registry.MustRegister(
		workflows,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Metrics{Registry: registry, workflows: workflows}
}

// ObserveWorkflow counts one workflow invocation; err selects the outcome label.
func (m *Metrics) ObserveWorkflow(workflow string, err error) {
	m.workflows.WithLabelValues(workflow, services.KindLabel(err)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
}
