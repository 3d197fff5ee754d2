package payments

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/kamaujm/tikiti/internal/models"
	"github.com/kamaujm/tikiti/internal/monitoring"
	"github.com/kamaujm/tikiti/internal/store"
	"github.com/kamaujm/tikiti/internal/tickets"
)

const (
	defaultPollInterval = 5 * time.Second
	defaultMaxAttempts  = 24 // 2 minutes at the default interval
)

// Monitor is the fallback reconciliation path for when the gateway's
// callback is delayed or never arrives. Each purchase gets its own detached
// Watch goroutine; it has no external cancellation because issuance must
// still happen after the originating request has returned.
type Monitor struct {
	payments store.PaymentStore
	issuer   TicketIssuer

	interval    time.Duration
	maxAttempts int
}

func NewMonitor(payments store.PaymentStore, issuer TicketIssuer) *Monitor {
	return &Monitor{
		payments:    payments,
		issuer:      issuer,
		interval:    defaultPollInterval,
		maxAttempts: defaultMaxAttempts,
	}
}

// Watch polls the payment until it is terminal or the attempt bound is
// reached. On COMPLETED it triggers ticket issuance; on FAILED it stops (the
// failure was already published by whoever set it). Run as `go m.Watch(...)`.
func (m *Monitor) Watch(checkoutRequestID string, purchase tickets.PurchaseContext) {
	slog.Info("monitoring payment status", "checkout_request_id", checkoutRequestID)
	ctx := context.Background()

	for attempt := 0; attempt < m.maxAttempts; attempt++ {
		time.Sleep(m.interval)

		payment, err := m.payments.FindByCheckoutRequestID(ctx, checkoutRequestID)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				slog.Error("payment status poll failed",
					"checkout_request_id", checkoutRequestID, "error", err)
				return
			}
			continue
		}

		switch payment.Status {
		case models.PaymentStatusCompleted:
			monitoring.TrackPaymentOutcome(models.PaymentStatusCompleted, "monitor")
			if _, err := m.issuer.IssueForPayment(ctx, payment.ID, purchase); err != nil {
				slog.Error("ticket issuance from monitor failed",
					"checkout_request_id", checkoutRequestID, "payment_id", payment.ID, "error", err)
			}
			return
		case models.PaymentStatusFailed:
			slog.Warn("payment failed, monitor stopping", "checkout_request_id", checkoutRequestID)
			monitoring.TrackPaymentOutcome(models.PaymentStatusFailed, "monitor")
			return
		}
	}

	slog.Warn("payment monitoring timed out, payment still pending",
		"checkout_request_id", checkoutRequestID, "attempts", m.maxAttempts)
	monitoring.TrackMonitorTimeout()
}
