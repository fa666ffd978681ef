package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// FinanceMetrics counts gateway commands and their fallout. All methods are
// safe on a nil receiver.
type FinanceMetrics struct {
	commands     *prometheus.CounterVec
	rejections   *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	retries      *prometheus.CounterVec
	violations   prometheus.Counter
	transfers    *prometheus.CounterVec
	massHold     *prometheus.CounterVec
	auditFailure prometheus.Counter
}

func NewFinanceMetrics(reg prometheus.Registerer) *FinanceMetrics {
	if reg == nil {
		return &FinanceMetrics{}
	}
	m := &FinanceMetrics{
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "finance_commands_total",
			Help: "Gateway commands by outcome.",
		}, []string{"command", "outcome"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "finance_command_rejections_total",
			Help: "Rejected gateway commands by error code.",
		}, []string{"command", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "finance_command_duration_seconds",
			Help:    "Gateway command latency including lock wait and retries.",
			Buckets: prometheus.DefBuckets,
		}, []string{"command"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "finance_command_retries_total",
			Help: "Retries after a concurrent modification.",
		}, []string{"command"}),
		violations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "finance_conservation_violations_total",
			Help: "Conservation invariant violations detected. Any increase needs a human.",
		}),
		transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "finance_payout_transfer_attempts_total",
			Help: "Provider transfer attempts by outcome.",
		}, []string{"outcome"}),
		massHold: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "finance_mass_hold_payouts_total",
			Help: "Payouts visited by dispute mass-holds, by outcome.",
		}, []string{"outcome"}),
		auditFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "finance_audit_write_failures_total",
			Help: "Audit log writes that failed after their command committed.",
		}),
	}
	reg.MustRegister(m.commands, m.rejections, m.duration, m.retries, m.violations, m.transfers, m.massHold, m.auditFailure)
	return m
}

// ObserveCommand records a finished command. code is empty on success.
func (m *FinanceMetrics) ObserveCommand(command string, code string, elapsed time.Duration) {
	if m == nil || m.commands == nil {
		return
	}
	command = normalizeLabel(command)
	m.duration.WithLabelValues(command).Observe(elapsed.Seconds())
	if code == "" {
		m.commands.WithLabelValues(command, "ok").Inc()
		return
	}
	m.commands.WithLabelValues(command, "rejected").Inc()
	m.rejections.WithLabelValues(command, code).Inc()
}

func (m *FinanceMetrics) IncRetry(command string) {
	if m == nil || m.retries == nil {
		return
	}
	m.retries.WithLabelValues(normalizeLabel(command)).Inc()
}

func (m *FinanceMetrics) IncConservationViolation() {
	if m == nil || m.violations == nil {
		return
	}
	m.violations.Inc()
}

// IncTransfer counts one provider transfer: "paid", "failed", or
// "unrecorded" when the money moved but the result could not be stored.
func (m *FinanceMetrics) IncTransfer(outcome string) {
	if m == nil || m.transfers == nil {
		return
	}
	m.transfers.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (m *FinanceMetrics) AddMassHold(held, skipped int) {
	if m == nil || m.massHold == nil {
		return
	}
	m.massHold.WithLabelValues("held").Add(float64(held))
	m.massHold.WithLabelValues("skipped").Add(float64(skipped))
}

func (m *FinanceMetrics) IncAuditFailure() {
	if m == nil || m.auditFailure == nil {
		return
	}
	m.auditFailure.Inc()
}
