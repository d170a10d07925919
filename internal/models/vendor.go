package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Vendor - supplier contacted over the messaging deep link
type Vendor struct {
	ID        string `gorm:"primaryKey;size:36"`
	Name      string `gorm:"size:200;not null"`
	Phone     string `gorm:"size:20;not null"` // digits only
	IsSpecial bool   `gorm:"default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (v *Vendor) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}
