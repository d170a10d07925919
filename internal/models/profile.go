package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProfileRole string

const (
	RoleShopOwner ProfileRole = "shop_owner"
	RoleAgency    ProfileRole = "agency"
)

// Profile - the shop placing orders. ShopName signs outgoing messages.
type Profile struct {
	ID        string      `gorm:"primaryKey;size:36"`
	ShopName  string      `gorm:"size:200;not null"`
	OwnerName string      `gorm:"size:200;not null"`
	Phone     string      `gorm:"size:20;not null"`
	Address   string      `gorm:"size:500;not null"`
	GST       *string     `gorm:"size:20"` // optional
	Turnover  string      `gorm:"size:50;not null"`
	Role      ProfileRole `gorm:"size:20;not null"`
	Language  string      `gorm:"size:20;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
