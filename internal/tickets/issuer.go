package tickets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/kamaujm/tikiti/internal/helpers"
	"github.com/kamaujm/tikiti/internal/models"
	"github.com/kamaujm/tikiti/internal/monitoring"
	"github.com/kamaujm/tikiti/internal/store"
)

// ErrEventSoldOut means the payment completed but the event had no capacity
// left when issuance ran. The payment stays COMPLETED and unissued; the
// condition is logged and metered for manual reconciliation.
var ErrEventSoldOut = errors.New("tickets: event is sold out")

type QrEncoder interface {
	Encode(payload string) (string, error)
}

type Mailer interface {
	SendTicket(to string, ticket *models.Ticket, event *models.Event) error
}

// PurchaseContext carries the purchase details the issuer needs beyond the
// payment record itself.
type PurchaseContext struct {
	EventID uuid.UUID
	UserID  *uuid.UUID
	Email   string
}

// Issuer converts a completed payment into exactly one ticket.
type Issuer struct {
	tickets  store.TicketStore
	events   store.EventStore
	payments store.PaymentStore
	qr       QrEncoder
	mailer   Mailer
	now      func() time.Time
}

func NewIssuer(tickets store.TicketStore, events store.EventStore, payments store.PaymentStore, qr QrEncoder, mailer Mailer) *Issuer {
	return &Issuer{
		tickets:  tickets,
		events:   events,
		payments: payments,
		qr:       qr,
		mailer:   mailer,
		now:      time.Now,
	}
}

// IssueForPayment creates the ticket paid for by paymentID. It is idempotent:
// if a ticket already references the payment the existing ticket is returned
// and nothing else happens. Both the callback path and the status monitor may
// call this for the same payment; only one creation succeeds.
func (i *Issuer) IssueForPayment(ctx context.Context, paymentID uuid.UUID, purchase PurchaseContext) (*models.Ticket, error) {
	existing, err := i.tickets.FindByPaymentID(ctx, paymentID)
	if err == nil {
		slog.Info("ticket already issued for payment", "payment_id", paymentID, "ticket_number", existing.TicketNumber)
		return existing, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("tickets: failed to check existing ticket: %w", err)
	}

	event, err := i.events.FindByID(ctx, purchase.EventID)
	if err != nil {
		return nil, fmt.Errorf("tickets: failed to load event %s: %w", purchase.EventID, err)
	}

	sold, err := i.tickets.CountByEventID(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("tickets: failed to count issued tickets: %w", err)
	}
	if sold >= int64(event.Capacity) {
		slog.Error("payment completed but event is sold out",
			"payment_id", paymentID, "event_id", event.ID, "capacity", event.Capacity, "sold", sold)
		monitoring.TrackTicketIssueFailure("sold_out")
		return nil, ErrEventSoldOut
	}

	payment, err := i.payments.FindByID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("tickets: failed to load payment %s: %w", paymentID, err)
	}

	number, err := i.generateTicketNumber()
	if err != nil {
		return nil, fmt.Errorf("tickets: failed to generate ticket number: %w", err)
	}
	code, err := generateVerificationCode()
	if err != nil {
		return nil, fmt.Errorf("tickets: failed to generate verification code: %w", err)
	}

	qrData, err := i.qr.Encode(fmt.Sprintf("TICKET:%s:CODE:%s", number, code))
	if err != nil {
		return nil, fmt.Errorf("tickets: failed to encode QR payload: %w", err)
	}

	ticket := &models.Ticket{
		TicketNumber:     number,
		VerificationCode: code,
		Price:            payment.Amount,
		QrCodeData:       qrData,
		EventID:          event.ID,
		UserID:           purchase.UserID,
		PaymentID:        &paymentID,
	}

	if err := i.tickets.Create(ctx, ticket); err != nil {
		// The unique index on payment_id is the backstop when both the
		// callback path and the monitor get past the existence check.
		if dup, findErr := i.tickets.FindByPaymentID(ctx, paymentID); findErr == nil {
			slog.Info("concurrent issuance lost the race, reusing ticket",
				"payment_id", paymentID, "ticket_number", dup.TicketNumber)
			return dup, nil
		}
		monitoring.TrackTicketIssueFailure("store_error")
		return nil, fmt.Errorf("tickets: failed to persist ticket: %w", err)
	}

	monitoring.TrackTicketIssued()
	slog.Info("ticket issued", "ticket_number", number, "event_id", event.ID, "payment_id", paymentID)

	if purchase.Email != "" {
		if err := i.mailer.SendTicket(purchase.Email, ticket, event); err != nil {
			slog.Error("failed to email ticket", "to", purchase.Email, "ticket_number", number, "error", err)
		}
	}

	return ticket, nil
}

func (i *Issuer) generateTicketNumber() (string, error) {
	random, err := helpers.RandomCode(3)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("TKT-%s-%s", i.now().Format("20060102150405"), random), nil
}

func generateVerificationCode() (string, error) {
	return helpers.RandomCode(6)
}
