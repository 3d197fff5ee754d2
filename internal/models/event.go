package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Event struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	Name        string          `gorm:"unique;not null" json:"name"`
	Description string          `gorm:"not null" json:"description"`
	Location    string          `gorm:"not null" json:"location"`
	County      string          `gorm:"not null" json:"county"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	ImageURL    string          `json:"image_url"`
	Capacity    int             `gorm:"not null" json:"capacity"`
	StartTime   time.Time       `gorm:"not null" json:"start_time"`
	EndTime     time.Time       `gorm:"not null" json:"end_time"`
	OrganiserID uuid.UUID       `gorm:"type:uuid;not null;index" json:"organiser_id"`
	Organiser   *User           `gorm:"foreignKey:OrganiserID" json:"-"`
	CategoryID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"category_id"`
	Category    *Category       `gorm:"foreignKey:CategoryID" json:"-"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (event *Event) BeforeCreate(tx *gorm.DB) (err error) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	return
}
