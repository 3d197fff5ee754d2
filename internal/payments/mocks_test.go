package payments

import (
	"context"

	"github.com/google/uuid"
	"github.com/kamaujm/tikiti/internal/models"
	"github.com/kamaujm/tikiti/internal/mpesa"
	"github.com/kamaujm/tikiti/internal/tickets"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) InitiateSTKPush(ctx context.Context, amount decimal.Decimal, phone, accountReference, description string) (*mpesa.STKPushResponse, error) {
	args := m.Called(ctx, amount, phone, accountReference, description)
	if resp, ok := args.Get(0).(*mpesa.STKPushResponse); ok {
		return resp, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockPaymentStore struct {
	mock.Mock
}

func (m *mockPaymentStore) Create(ctx context.Context, payment *models.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *mockPaymentStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	args := m.Called(ctx, id)
	if payment, ok := args.Get(0).(*models.Payment); ok {
		return payment, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPaymentStore) FindByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*models.Payment, error) {
	args := m.Called(ctx, checkoutRequestID)
	if payment, ok := args.Get(0).(*models.Payment); ok {
		return payment, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPaymentStore) MarkCompleted(ctx context.Context, id uuid.UUID, receipt, description string) (bool, error) {
	args := m.Called(ctx, id, receipt, description)
	return args.Bool(0), args.Error(1)
}

func (m *mockPaymentStore) MarkFailed(ctx context.Context, id uuid.UUID, description string) (bool, error) {
	args := m.Called(ctx, id, description)
	return args.Bool(0), args.Error(1)
}

type mockEventStore struct {
	mock.Mock
}

func (m *mockEventStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	args := m.Called(ctx, id)
	if event, ok := args.Get(0).(*models.Event); ok {
		return event, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockUserStore struct {
	mock.Mock
}

func (m *mockUserStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if user, ok := args.Get(0).(*models.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

// mockIssuer records issuance calls and signals issued so tests can wait on
// the asynchronous trigger paths.
type mockIssuer struct {
	mock.Mock
	issued chan uuid.UUID
}

func newMockIssuer() *mockIssuer {
	return &mockIssuer{issued: make(chan uuid.UUID, 8)}
}

func (m *mockIssuer) IssueForPayment(ctx context.Context, paymentID uuid.UUID, purchase tickets.PurchaseContext) (*models.Ticket, error) {
	args := m.Called(ctx, paymentID, purchase)
	m.issued <- paymentID
	if ticket, ok := args.Get(0).(*models.Ticket); ok {
		return ticket, args.Error(1)
	}
	return nil, args.Error(1)
}
