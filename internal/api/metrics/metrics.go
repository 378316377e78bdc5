// Package metrics defines and registers the custom Prometheus metrics of the
// service. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics are registered with the default Prometheus registry through
// promauto when the package is loaded.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "platform"

// ── Admin metrics ─────────────────────────────────────────────────────────────

// AdminLoginsTotal counts admin sign-in attempts.
// Label:
//   - result: "success", "invalid_credentials" or "error"
var AdminLoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "admin_logins_total",
		Help:      "Total number of admin login attempts, by result.",
	},
	[]string{"result"},
)

// AdminLogoutsTotal counts revoked admin sessions.
var AdminLogoutsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "admin_logouts_total",
		Help:      "Total number of admin sessions revoked by logout.",
	},
)

// ── Health metrics ────────────────────────────────────────────────────────────

// HealthProbesTotal counts health probe responses.
// Labels:
//   - probe: "liveness" or "readiness"
//   - status: "ok" or "degraded"
var HealthProbesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "health_probes_total",
		Help:      "Total number of health probe responses, by probe and status.",
	},
	[]string{"probe", "status"},
)

// DependencyUp reports the last observed reachability of each dependency.
// Label:
//   - dependency: "database", "cache" or "broker"
var DependencyUp = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "dependency_up",
		Help:      "Whether a dependency answered the last readiness ping (1) or not (0).",
	},
	[]string{"dependency"},
)
