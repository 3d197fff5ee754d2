package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/kamaujm/tikiti/internal/models"
	"github.com/kamaujm/tikiti/internal/monitoring"
	"github.com/kamaujm/tikiti/internal/mpesa"
	"github.com/kamaujm/tikiti/internal/notify"
	"github.com/kamaujm/tikiti/internal/store"
	"github.com/kamaujm/tikiti/internal/tickets"
	"github.com/shopspring/decimal"
)

// Gateway is the slice of the M-Pesa client the orchestrator needs.
type Gateway interface {
	InitiateSTKPush(ctx context.Context, amount decimal.Decimal, phone, accountReference, description string) (*mpesa.STKPushResponse, error)
}

// TicketIssuer is the downstream issuance step triggered when a payment
// completes.
type TicketIssuer interface {
	IssueForPayment(ctx context.Context, paymentID uuid.UUID, purchase tickets.PurchaseContext) (*models.Ticket, error)
}

type InitiateRequest struct {
	Amount      decimal.Decimal
	PhoneNumber string
	EventID     uuid.UUID
	UserID      *uuid.UUID
	Email       string
}

type InitiateResult struct {
	PaymentID         uuid.UUID
	CheckoutRequestID string
	CustomerMessage   string
}

// Orchestrator owns Payment creation and the terminal-state write. The
// callback path and the status monitor both funnel through the store's
// compare-and-set, so each payment reaches a terminal state exactly once.
type Orchestrator struct {
	gateway  Gateway
	payments store.PaymentStore
	events   store.EventStore
	users    store.UserStore
	issuer   TicketIssuer
	hub      *notify.Hub
}

func NewOrchestrator(gateway Gateway, payments store.PaymentStore, events store.EventStore, users store.UserStore, issuer TicketIssuer, hub *notify.Hub) *Orchestrator {
	return &Orchestrator{
		gateway:  gateway,
		payments: payments,
		events:   events,
		users:    users,
		issuer:   issuer,
		hub:      hub,
	}
}

// InitiatePayment validates the purchase context, submits the STK push and
// persists a PENDING payment keyed by the gateway's checkout request id.
func (o *Orchestrator) InitiatePayment(ctx context.Context, req InitiateRequest) (*InitiateResult, error) {
	event, err := o.events.FindByID(ctx, req.EventID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("payments: failed to load event: %w", err)
	}

	if req.UserID != nil {
		if _, err := o.users.FindByID(ctx, *req.UserID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, ErrUserNotFound
			}
			return nil, fmt.Errorf("payments: failed to load user: %w", err)
		}
	}

	resp, err := o.gateway.InitiateSTKPush(ctx, req.Amount, req.PhoneNumber,
		"Ticket-"+event.Name, "Payment for "+event.Name)
	if err != nil {
		var reqErr *mpesa.RequestError
		if errors.As(err, &reqErr) {
			return nil, fmt.Errorf("%w: %s", ErrGatewayRejected, reqErr.Description)
		}
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	payment := &models.Payment{
		Amount:            req.Amount,
		PhoneNumber:       mpesa.FormatPhoneNumber(req.PhoneNumber),
		BuyerEmail:        req.Email,
		Status:            models.PaymentStatusPending,
		CheckoutRequestID: resp.CheckoutRequestID,
		EventID:           event.ID,
		UserID:            req.UserID,
	}
	if err := o.payments.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("payments: failed to persist payment: %w", err)
	}

	monitoring.TrackPaymentInitiated()
	slog.Info("STK push initiated",
		"checkout_request_id", resp.CheckoutRequestID, "event_id", event.ID, "amount", req.Amount)

	message := resp.CustomerMessage
	if message == "" {
		message = "Payment request sent to your phone. Please enter your M-Pesa PIN."
	}

	return &InitiateResult{
		PaymentID:         payment.ID,
		CheckoutRequestID: resp.CheckoutRequestID,
		CustomerMessage:   message,
	}, nil
}

// ReconcileCallback applies the gateway's asynchronous result to the matching
// payment. Unmatched and duplicate callbacks are logged and dropped; they are
// never an error to the gateway.
func (o *Orchestrator) ReconcileCallback(ctx context.Context, payload []byte) error {
	result, err := mpesa.ParseCallback(payload)
	if err != nil {
		monitoring.TrackCallbackDropped("malformed")
		return err
	}

	payment, err := o.payments.FindByCheckoutRequestID(ctx, result.CheckoutRequestID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			slog.Warn("callback for unknown payment, dropping",
				"checkout_request_id", result.CheckoutRequestID, "result_code", result.ResultCode)
			monitoring.TrackCallbackDropped("unmatched")
			return nil
		}
		return fmt.Errorf("payments: failed to look up payment for callback: %w", err)
	}

	if payment.IsTerminal() {
		slog.Info("duplicate callback ignored",
			"checkout_request_id", result.CheckoutRequestID, "status", payment.Status)
		monitoring.TrackCallbackDropped("duplicate")
		return nil
	}

	if result.Success() {
		won, err := o.payments.MarkCompleted(ctx, payment.ID, result.MpesaReceipt, result.ResultDesc)
		if err != nil {
			return fmt.Errorf("payments: failed to complete payment: %w", err)
		}
		if !won {
			monitoring.TrackCallbackDropped("duplicate")
			return nil
		}

		monitoring.TrackPaymentOutcome(models.PaymentStatusCompleted, "callback")
		slog.Info("payment completed via callback",
			"checkout_request_id", result.CheckoutRequestID, "receipt", result.MpesaReceipt)

		o.hub.Publish(result.CheckoutRequestID, models.PaymentStatusCompleted,
			"Payment successful! Receipt: "+result.MpesaReceipt)

		// Issue out-of-band so the gateway gets its acknowledgement
		// promptly. The monitor may race this; issuance is idempotent.
		go func() {
			purchase := tickets.PurchaseContext{
				EventID: payment.EventID,
				UserID:  payment.UserID,
				Email:   payment.BuyerEmail,
			}
			if _, err := o.issuer.IssueForPayment(context.Background(), payment.ID, purchase); err != nil {
				slog.Error("ticket issuance after callback failed",
					"payment_id", payment.ID, "error", err)
			}
		}()

		return nil
	}

	won, err := o.payments.MarkFailed(ctx, payment.ID, result.ResultDesc)
	if err != nil {
		return fmt.Errorf("payments: failed to mark payment failed: %w", err)
	}
	if !won {
		monitoring.TrackCallbackDropped("duplicate")
		return nil
	}

	monitoring.TrackPaymentOutcome(models.PaymentStatusFailed, "callback")
	slog.Warn("payment failed",
		"checkout_request_id", result.CheckoutRequestID,
		"result_code", result.ResultCode, "description", result.ResultDesc)

	o.hub.Publish(result.CheckoutRequestID, models.PaymentStatusFailed, result.ResultDesc)
	return nil
}
