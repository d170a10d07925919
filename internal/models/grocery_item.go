package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CommonVendorID puts an item in every vendor's catalog.
const CommonVendorID = "common"

type GroceryItem struct {
	ID       string  `gorm:"primaryKey;size:36"`
	VendorID string  `gorm:"size:36;index;not null"` // vendor id or CommonVendorID
	Name     string  `gorm:"size:200;not null"`
	Unit     string  `gorm:"size:20;not null"`
	Category string  `gorm:"size:50;not null"`
	Price    string  `gorm:"type:numeric(10,2);not null;default:0"`
	ImageKey *string `gorm:"size:100"`
	Selected bool    `gorm:"default:false"`
	Quantity int     `gorm:"not null;default:1"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (i *GroceryItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}
