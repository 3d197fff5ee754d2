package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	paymentsInitiated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "payments_initiated_total",
			Help: "STK push requests accepted by the gateway",
		},
	)

	paymentOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_outcomes_total",
			Help: "Terminal payment transitions by status and observer",
		},
		[]string{"status", "observer"},
	)

	callbacksDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_callbacks_dropped_total",
			Help: "Gateway callbacks dropped without a state change",
		},
		[]string{"reason"},
	)

	monitorTimeouts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "payment_monitor_timeouts_total",
			Help: "Status monitors that exhausted polling with the payment still pending",
		},
	)

	ticketsIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tickets_issued_total",
			Help: "Tickets created after completed payments",
		},
	)

	ticketIssueFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickets_issue_failures_total",
			Help: "Ticket issuance failures by reason",
		},
		[]string{"reason"},
	)
)

func TrackPaymentInitiated() {
	paymentsInitiated.Inc()
}

func TrackPaymentOutcome(status, observer string) {
	paymentOutcomes.WithLabelValues(status, observer).Inc()
}

func TrackCallbackDropped(reason string) {
	callbacksDropped.WithLabelValues(reason).Inc()
}

func TrackMonitorTimeout() {
	monitorTimeouts.Inc()
}

func TrackTicketIssued() {
	ticketsIssued.Inc()
}

func TrackTicketIssueFailure(reason string) {
	ticketIssueFailures.WithLabelValues(reason).Inc()
}
