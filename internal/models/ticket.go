package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Ticket struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	TicketNumber     string          `gorm:"not null;uniqueIndex" json:"ticket_number"`
	VerificationCode string          `gorm:"not null;uniqueIndex" json:"verification_code"`
	Price            decimal.Decimal `gorm:"type:numeric(12,2)" json:"price"`
	QrCodeData       string          `gorm:"type:text" json:"qr_code_data,omitempty"`
	CheckedIn        bool            `gorm:"not null;default:false" json:"checked_in"`
	EventID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"event_id"`
	Event            *Event          `gorm:"foreignKey:EventID" json:"-"`
	UserID           *uuid.UUID      `gorm:"type:uuid;index" json:"user_id,omitempty"`
	User             *User           `gorm:"foreignKey:UserID" json:"-"`
	PaymentID        *uuid.UUID      `gorm:"type:uuid;uniqueIndex" json:"payment_id,omitempty"`
	Payment          *Payment        `gorm:"foreignKey:PaymentID" json:"-"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (ticket *Ticket) BeforeCreate(tx *gorm.DB) (err error) {
	if ticket.ID == uuid.Nil {
		ticket.ID = uuid.New()
	}
	return
}
