package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/kamaujm/tikiti/internal/models"
)

var ErrNotFound = errors.New("store: record not found")

// PaymentStore owns the Payment lifecycle. MarkCompleted and MarkFailed are
// compare-and-set writes guarded on status = PENDING; they report whether
// this caller performed the terminal transition.
type PaymentStore interface {
	Create(ctx context.Context, payment *models.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	FindByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*models.Payment, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, receipt, description string) (bool, error)
	MarkFailed(ctx context.Context, id uuid.UUID, description string) (bool, error)
}

type TicketStore interface {
	Create(ctx context.Context, ticket *models.Ticket) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Ticket, error)
	FindByPaymentID(ctx context.Context, paymentID uuid.UUID) (*models.Ticket, error)
	CountByEventID(ctx context.Context, eventID uuid.UUID) (int64, error)
}

type EventStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
}

type UserStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}
