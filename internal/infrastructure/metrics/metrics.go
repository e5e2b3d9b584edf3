// Package metrics exposes the lending core's Prometheus counters. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lending"

type Metrics struct {
	investmentsAccepted prometheus.Counter
	investmentsRejected *prometheus.CounterVec
	loansFullyFunded    prometheus.Counter
	installmentsPaid    prometheus.Counter
	installmentsOverdue prometheus.Counter
	loansDefaulted      prometheus.Counter
	loansCompleted      prometheus.Counter
	scoresComputed      *prometheus.CounterVec
}

// New registers every collector on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		investmentsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "investments_accepted_total",
			Help: "Investments applied to a loan.",
		}),
		investmentsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "investments_rejected_total",
			Help: "Investments refused, by error kind.",
		}, []string{"reason"}),
		loansFullyFunded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "loans_fully_funded_total",
			Help: "Loans that reached 100% funding.",
		}),
		installmentsPaid: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "installments_paid_total",
			Help: "Installment payments recorded.",
		}),
		installmentsOverdue: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "installments_overdue_total",
			Help: "Installments flagged overdue by the sweep.",
		}),
		loansDefaulted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "loans_defaulted_total",
			Help: "Loans moved to defaulted.",
		}),
		loansCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "loans_completed_total",
			Help: "Loans repaid in full.",
		}),
		scoresComputed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "scores_computed_total",
			Help: "Credit scores computed, by band.",
		}, []string{"band"}),
	}
	reg.MustRegister(
		m.investmentsAccepted, m.investmentsRejected, m.loansFullyFunded,
		m.installmentsPaid, m.installmentsOverdue, m.loansDefaulted,
		m.loansCompleted, m.scoresComputed,
	)
	return m
}

// Handler serves g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func (m *Metrics) InvestmentAccepted(fullyFunded bool) {
	if m == nil {
		return
	}
	m.investmentsAccepted.Inc()
	if fullyFunded {
		m.loansFullyFunded.Inc()
	}
}

func (m *Metrics) InvestmentRejected(reason string) {
	if m == nil {
		return
	}
	m.investmentsRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) InstallmentPaid(loanCompleted bool) {
	if m == nil {
		return
	}
	m.installmentsPaid.Inc()
	if loanCompleted {
		m.loansCompleted.Inc()
	}
}

func (m *Metrics) Swept(overdue, defaulted int) {
	if m == nil {
		return
	}
	m.installmentsOverdue.Add(float64(overdue))
	m.loansDefaulted.Add(float64(defaulted))
}

func (m *Metrics) ScoreComputed(band string) {
	if m == nil {
		return
	}
	m.scoresComputed.WithLabelValues(band).Inc()
}
