package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	PaymentStatusPending   = "PENDING"
	PaymentStatusCompleted = "COMPLETED"
	PaymentStatusFailed    = "FAILED"
)

// Payment is one attempted M-Pesa transfer. CheckoutRequestID is the
// gateway-issued correlation key used to match callbacks and status polls.
type Payment struct {
	ID                uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	Amount            decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	PhoneNumber       string          `gorm:"not null" json:"phone_number"`
	BuyerEmail        string          `json:"buyer_email,omitempty"`
	Status            string          `gorm:"not null;default:'PENDING'" json:"status"`
	CheckoutRequestID string          `gorm:"not null;uniqueIndex" json:"checkout_request_id"`
	ResultDescription string          `json:"result_description"`
	MpesaReceipt      string          `json:"mpesa_receipt,omitempty"`
	EventID           uuid.UUID       `gorm:"type:uuid;not null;index" json:"event_id"`
	Event             *Event          `gorm:"foreignKey:EventID" json:"-"`
	UserID            *uuid.UUID      `gorm:"type:uuid;index" json:"user_id,omitempty"`
	User              *User           `gorm:"foreignKey:UserID" json:"-"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func (payment *Payment) BeforeCreate(tx *gorm.DB) (err error) {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	return
}

func (payment *Payment) IsTerminal() bool {
	return payment.Status == PaymentStatusCompleted || payment.Status == PaymentStatusFailed
}
