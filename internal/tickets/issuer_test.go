package tickets

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kamaujm/tikiti/internal/models"
	"github.com/kamaujm/tikiti/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockTicketStore struct {
	mock.Mock
}

func (m *mockTicketStore) Create(ctx context.Context, ticket *models.Ticket) error {
	args := m.Called(ctx, ticket)
	return args.Error(0)
}

func (m *mockTicketStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	args := m.Called(ctx, id)
	if ticket, ok := args.Get(0).(*models.Ticket); ok {
		return ticket, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTicketStore) FindByPaymentID(ctx context.Context, paymentID uuid.UUID) (*models.Ticket, error) {
	args := m.Called(ctx, paymentID)
	if ticket, ok := args.Get(0).(*models.Ticket); ok {
		return ticket, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTicketStore) CountByEventID(ctx context.Context, eventID uuid.UUID) (int64, error) {
	args := m.Called(ctx, eventID)
	return args.Get(0).(int64), args.Error(1)
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

type mockQrEncoder struct {
	mock.Mock
}

func (m *mockQrEncoder) Encode(payload string) (string, error) {
	args := m.Called(payload)
	return args.String(0), args.Error(1)
}

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) SendTicket(to string, ticket *models.Ticket, event *models.Event) error {
	args := m.Called(to, ticket, event)
	return args.Error(0)
}

type issuerFixture struct {
	tickets  *mockTicketStore
	events   *mockEventStore
	payments *mockPaymentStore
	qr       *mockQrEncoder
	mailer   *mockMailer
	issuer   *Issuer
}

func newIssuerFixture() *issuerFixture {
	f := &issuerFixture{
		tickets:  &mockTicketStore{},
		events:   &mockEventStore{},
		payments: &mockPaymentStore{},
		qr:       &mockQrEncoder{},
		mailer:   &mockMailer{},
	}
	f.issuer = NewIssuer(f.tickets, f.events, f.payments, f.qr, f.mailer)
	f.issuer.now = func() time.Time {
		return time.Date(2024, 6, 1, 12, 30, 45, 0, time.UTC)
	}
	return f
}

func TestIssueForPaymentCreatesTicket(t *testing.T) {
	f := newIssuerFixture()
	paymentID := uuid.New()
	eventID := uuid.New()
	userID := uuid.New()

	event := &models.Event{ID: eventID, Name: "Nairobi Jazz Night", Capacity: 10}
	payment := &models.Payment{ID: paymentID, Amount: decimal.NewFromInt(1500), EventID: eventID}

	f.tickets.On("FindByPaymentID", mock.Anything, paymentID).Return(nil, store.ErrNotFound).Once()
	f.events.On("FindByID", mock.Anything, eventID).Return(event, nil)
	f.tickets.On("CountByEventID", mock.Anything, eventID).Return(int64(9), nil)
	f.payments.On("FindByID", mock.Anything, paymentID).Return(payment, nil)
	f.qr.On("Encode", mock.MatchedBy(func(payload string) bool {
		return strings.HasPrefix(payload, "TICKET:TKT-20240601123045-")
	})).Return("data:image/png;base64,abc", nil)
	f.tickets.On("Create", mock.Anything, mock.AnythingOfType("*models.Ticket")).Return(nil)
	f.mailer.On("SendTicket", "buyer@example.com", mock.Anything, event).Return(nil)

	ticket, err := f.issuer.IssueForPayment(context.Background(), paymentID, PurchaseContext{
		EventID: eventID,
		UserID:  &userID,
		Email:   "buyer@example.com",
	})

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ticket.TicketNumber, "TKT-20240601123045-"))
	assert.Len(t, ticket.VerificationCode, 12)
	assert.Equal(t, "data:image/png;base64,abc", ticket.QrCodeData)
	assert.True(t, ticket.Price.Equal(decimal.NewFromInt(1500)))
	assert.Equal(t, eventID, ticket.EventID)
	assert.Equal(t, &userID, ticket.UserID)
	require.NotNil(t, ticket.PaymentID)
	assert.Equal(t, paymentID, *ticket.PaymentID)
	f.mailer.AssertNumberOfCalls(t, "SendTicket", 1)
}

func TestIssueForPaymentIsIdempotent(t *testing.T) {
	f := newIssuerFixture()
	paymentID := uuid.New()
	existing := &models.Ticket{TicketNumber: "TKT-20240101000000-ABCDEF", PaymentID: &paymentID}

	f.tickets.On("FindByPaymentID", mock.Anything, paymentID).Return(existing, nil)

	ticket, err := f.issuer.IssueForPayment(context.Background(), paymentID, PurchaseContext{EventID: uuid.New()})

	require.NoError(t, err)
	assert.Same(t, existing, ticket)
	f.tickets.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.events.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestIssueForPaymentSoldOut(t *testing.T) {
	f := newIssuerFixture()
	paymentID := uuid.New()
	eventID := uuid.New()

	f.tickets.On("FindByPaymentID", mock.Anything, paymentID).Return(nil, store.ErrNotFound)
	f.events.On("FindByID", mock.Anything, eventID).Return(&models.Event{ID: eventID, Capacity: 10}, nil)
	f.tickets.On("CountByEventID", mock.Anything, eventID).Return(int64(10), nil)

	ticket, err := f.issuer.IssueForPayment(context.Background(), paymentID, PurchaseContext{EventID: eventID})

	assert.ErrorIs(t, err, ErrEventSoldOut)
	assert.Nil(t, ticket)
	f.tickets.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestIssueForPaymentReusesTicketWhenCreateLosesRace(t *testing.T) {
	f := newIssuerFixture()
	paymentID := uuid.New()
	eventID := uuid.New()
	winner := &models.Ticket{TicketNumber: "TKT-20240601123045-FFFFFF", PaymentID: &paymentID}

	f.tickets.On("FindByPaymentID", mock.Anything, paymentID).Return(nil, store.ErrNotFound).Once()
	f.events.On("FindByID", mock.Anything, eventID).Return(&models.Event{ID: eventID, Capacity: 100}, nil)
	f.tickets.On("CountByEventID", mock.Anything, eventID).Return(int64(0), nil)
	f.payments.On("FindByID", mock.Anything, paymentID).Return(&models.Payment{ID: paymentID, Amount: decimal.NewFromInt(500)}, nil)
	f.qr.On("Encode", mock.Anything).Return("data:image/png;base64,abc", nil)
	f.tickets.On("Create", mock.Anything, mock.Anything).Return(errors.New("duplicate key value violates unique constraint"))
	f.tickets.On("FindByPaymentID", mock.Anything, paymentID).Return(winner, nil).Once()

	ticket, err := f.issuer.IssueForPayment(context.Background(), paymentID, PurchaseContext{EventID: eventID})

	require.NoError(t, err)
	assert.Same(t, winner, ticket)
	f.mailer.AssertNotCalled(t, "SendTicket", mock.Anything, mock.Anything, mock.Anything)
}

func TestIssueForPaymentEmailFailureIsNotFatal(t *testing.T) {
	f := newIssuerFixture()
	paymentID := uuid.New()
	eventID := uuid.New()

	f.tickets.On("FindByPaymentID", mock.Anything, paymentID).Return(nil, store.ErrNotFound)
	f.events.On("FindByID", mock.Anything, eventID).Return(&models.Event{ID: eventID, Capacity: 5}, nil)
	f.tickets.On("CountByEventID", mock.Anything, eventID).Return(int64(0), nil)
	f.payments.On("FindByID", mock.Anything, paymentID).Return(&models.Payment{ID: paymentID, Amount: decimal.NewFromInt(200)}, nil)
	f.qr.On("Encode", mock.Anything).Return("data:image/png;base64,abc", nil)
	f.tickets.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.mailer.On("SendTicket", "buyer@example.com", mock.Anything, mock.Anything).Return(errors.New("smtp unavailable"))

	ticket, err := f.issuer.IssueForPayment(context.Background(), paymentID, PurchaseContext{
		EventID: eventID,
		Email:   "buyer@example.com",
	})

	require.NoError(t, err)
	assert.NotNil(t, ticket)
}

func TestIssueForPaymentSkipsEmailWithoutAddress(t *testing.T) {
	f := newIssuerFixture()
	paymentID := uuid.New()
	eventID := uuid.New()

	f.tickets.On("FindByPaymentID", mock.Anything, paymentID).Return(nil, store.ErrNotFound)
	f.events.On("FindByID", mock.Anything, eventID).Return(&models.Event{ID: eventID, Capacity: 5}, nil)
	f.tickets.On("CountByEventID", mock.Anything, eventID).Return(int64(1), nil)
	f.payments.On("FindByID", mock.Anything, paymentID).Return(&models.Payment{ID: paymentID, Amount: decimal.NewFromInt(200)}, nil)
	f.qr.On("Encode", mock.Anything).Return("data:image/png;base64,abc", nil)
	f.tickets.On("Create", mock.Anything, mock.Anything).Return(nil)

	_, err := f.issuer.IssueForPayment(context.Background(), paymentID, PurchaseContext{EventID: eventID})

	require.NoError(t, err)
	f.mailer.AssertNotCalled(t, "SendTicket", mock.Anything, mock.Anything, mock.Anything)
}
