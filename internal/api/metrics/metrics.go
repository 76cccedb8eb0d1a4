// Package metrics defines and registers the custom Prometheus metrics of the
// member portal. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics register with the default registry on package init; Recorder
// adapts them to the ports the core and the adapters report through.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/crossfitlagos/member-portal/internal/core/domain"
)

const namespace = "portal"

// ── Reconciler metrics ────────────────────────────────────────────────────────

// LoginsTotal counts resolved login attempts.
// Labels:
//   - status: "success", "needs_setup", "invalid_credential", "not_found", "transport_failure"
//   - path: backend that settled a success ("primary", "directory"), empty otherwise
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by outcome and settling backend.",
	},
	[]string{"status", "path"},
)

// PrimaryFallbackTotal counts logins the primary provider could not settle.
// Label:
//   - reason: the primary provider status that forced the directory fallback
var PrimaryFallbackTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "primary_fallback_total",
		Help:      "Total number of logins that fell back to the member directory.",
	},
	[]string{"reason"},
)

// PrimarySyncTotal counts best-effort primary updates after a PIN write.
// Label:
//   - result: "synced", "stale", "unreachable", "disabled"
var PrimarySyncTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "primary_sync_total",
		Help:      "Total number of primary provider updates after a PIN setup, by result.",
	},
	[]string{"result"},
)

// PinSetupsTotal counts PIN setup and reset attempts.
var PinSetupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pin_setups_total",
		Help:      "Total number of PIN setup or reset attempts, by outcome.",
	},
	[]string{"status"},
)

// SessionRestoresTotal counts session restore attempts on start.
var SessionRestoresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_restores_total",
		Help:      "Total number of session restores, by outcome.",
	},
	[]string{"status"},
)

// ── Backend call metrics ──────────────────────────────────────────────────────

// BackendCallDuration measures every remote call made by an adapter.
// Labels:
//   - backend: "directory", "identity", "pause"
//   - action: the gateway action or identity endpoint
//   - result: "ok", "timeout", "html", "malformed", "status", "cancelled", "connection"
var BackendCallDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "backend_call_duration_seconds",
		Help:      "Duration of calls to the directory, identity and pause backends.",
		Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20, 35},
	},
	[]string{"backend", "action", "result"},
)

// ── Audit metrics ─────────────────────────────────────────────────────────────

// AuditEventsDroppedTotal counts audit events dropped because the dispatcher
// queue was full.
var AuditEventsDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_dropped_total",
		Help:      "Total number of auth audit events dropped on a full queue.",
	},
)

// Recorder reports reconciler decisions and backend calls to the metrics
// above.
type Recorder struct{}

// NewRecorder returns a Recorder.
func NewRecorder() *Recorder { return &Recorder{} }

func (Recorder) LoginResolved(status domain.LoginStatus, path domain.AuthPath) {
	LoginsTotal.WithLabelValues(status.String(), string(path)).Inc()
}

func (Recorder) PrimaryFallback(status domain.IdentityStatus) {
	PrimaryFallbackTotal.WithLabelValues(status.String()).Inc()
}

func (Recorder) PrimarySync(result domain.PrimarySync) {
	PrimarySyncTotal.WithLabelValues(string(result)).Inc()
}

func (Recorder) SetupResolved(status domain.SetupStatus) {
	PinSetupsTotal.WithLabelValues(status.String()).Inc()
}

func (Recorder) SessionRestored(status domain.RestoreStatus) {
	SessionRestoresTotal.WithLabelValues(status.String()).Inc()
}

func (Recorder) ObserveCall(backend, action, result string, elapsed time.Duration) {
	BackendCallDuration.WithLabelValues(backend, action, result).Observe(elapsed.Seconds())
}

// AuditDropped counts one dropped audit event.
func (Recorder) AuditDropped() {
	AuditEventsDroppedTotal.Inc()
}
