package payments

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kamaujm/tikiti/internal/models"
	"github.com/kamaujm/tikiti/internal/store"
	"github.com/kamaujm/tikiti/internal/tickets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newTestMonitor(payments *mockPaymentStore, issuer *mockIssuer, maxAttempts int) *Monitor {
	return &Monitor{
		payments:    payments,
		issuer:      issuer,
		interval:    time.Millisecond,
		maxAttempts: maxAttempts,
	}
}

func TestWatchIssuesTicketOnCompletion(t *testing.T) {
	payments := &mockPaymentStore{}
	issuer := newMockIssuer()
	paymentID := uuid.New()
	eventID := uuid.New()

	payments.On("FindByCheckoutRequestID", mock.Anything, "ws_1").
		Return(&models.Payment{ID: paymentID, Status: models.PaymentStatusCompleted, EventID: eventID}, nil)

	purchase := tickets.PurchaseContext{EventID: eventID, Email: "buyer@example.com"}
	issuer.On("IssueForPayment", mock.Anything, paymentID, purchase).
		Return(&models.Ticket{TicketNumber: "TKT-1"}, nil)

	newTestMonitor(payments, issuer, 24).Watch("ws_1", purchase)

	issuer.AssertNumberOfCalls(t, "IssueForPayment", 1)
}

func TestWatchStopsOnFailureWithoutIssuing(t *testing.T) {
	payments := &mockPaymentStore{}
	issuer := newMockIssuer()

	payments.On("FindByCheckoutRequestID", mock.Anything, "ws_1").
		Return(&models.Payment{ID: uuid.New(), Status: models.PaymentStatusFailed}, nil)

	newTestMonitor(payments, issuer, 24).Watch("ws_1", tickets.PurchaseContext{})

	issuer.AssertNotCalled(t, "IssueForPayment", mock.Anything, mock.Anything, mock.Anything)
	payments.AssertNumberOfCalls(t, "FindByCheckoutRequestID", 1)
}

func TestWatchTimesOutWhilePending(t *testing.T) {
	payments := &mockPaymentStore{}
	issuer := newMockIssuer()

	payments.On("FindByCheckoutRequestID", mock.Anything, "ws_1").
		Return(&models.Payment{ID: uuid.New(), Status: models.PaymentStatusPending}, nil)

	newTestMonitor(payments, issuer, 5).Watch("ws_1", tickets.PurchaseContext{})

	issuer.AssertNotCalled(t, "IssueForPayment", mock.Anything, mock.Anything, mock.Anything)
	payments.AssertNumberOfCalls(t, "FindByCheckoutRequestID", 5)
}

func TestWatchToleratesRecordNotYetVisible(t *testing.T) {
	payments := &mockPaymentStore{}
	issuer := newMockIssuer()
	paymentID := uuid.New()

	payments.On("FindByCheckoutRequestID", mock.Anything, "ws_1").
		Return(nil, store.ErrNotFound).Twice()
	payments.On("FindByCheckoutRequestID", mock.Anything, "ws_1").
		Return(&models.Payment{ID: paymentID, Status: models.PaymentStatusCompleted}, nil)

	issuer.On("IssueForPayment", mock.Anything, paymentID, mock.Anything).
		Return(&models.Ticket{}, nil)

	newTestMonitor(payments, issuer, 10).Watch("ws_1", tickets.PurchaseContext{})

	issuer.AssertNumberOfCalls(t, "IssueForPayment", 1)
}

func TestWatchIssuanceFailureDoesNotPanic(t *testing.T) {
	payments := &mockPaymentStore{}
	issuer := newMockIssuer()
	paymentID := uuid.New()

	payments.On("FindByCheckoutRequestID", mock.Anything, "ws_1").
		Return(&models.Payment{ID: paymentID, Status: models.PaymentStatusCompleted}, nil)
	issuer.On("IssueForPayment", mock.Anything, paymentID, mock.Anything).
		Return(nil, tickets.ErrEventSoldOut)

	assert.NotPanics(t, func() {
		newTestMonitor(payments, issuer, 3).Watch("ws_1", tickets.PurchaseContext{})
	})
}
