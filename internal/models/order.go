package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Order - summary of an order sent to a vendor. The message itself only
// lives in the client's history.
type Order struct {
	ID          string  `gorm:"primaryKey;size:36"`
	VendorID    string  `gorm:"size:36;index;not null"`
	ProfileID   *string `gorm:"size:36"`
	TotalAmount string  `gorm:"type:numeric(12,2);not null;default:0"`
	ItemsCount  int     `gorm:"not null"`
	CreatedAt   time.Time
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}
