package domain

import (
	"errors"
	"strings"
)

const DefaultRestaurantName = "My Restaurant"

var (
	ErrEmptyName    = errors.New("name is required")
	ErrInvalidPhone = errors.New("phone must contain 6 to 15 digits")
)

// Vendor is a supplier contact. Phone is digits only, international format,
// without a leading '+'.
type Vendor struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	IsSpecial bool   `json:"isSpecial,omitempty"`
}

// Profile is the shop identity. ShopName becomes the restaurant name in
// outgoing messages.
type Profile struct {
	ID        string  `json:"id,omitempty"`
	ShopName  string  `json:"shopName"`
	OwnerName string  `json:"ownerName"`
	Phone     string  `json:"phone"`
	Address   string  `json:"address"`
	GST       *string `json:"gst,omitempty"`
	Turnover  string  `json:"turnover"`
	Role      string  `json:"role"`
	Language  string  `json:"language"`
}

// NormalizePhone strips spaces, dashes and a leading '+' and checks that what
// remains is a plausible international number.
func NormalizePhone(phone string) (string, error) {
	p := strings.TrimSpace(phone)
	p = strings.TrimPrefix(p, "+")
	p = strings.NewReplacer(" ", "", "-", "").Replace(p)
	if len(p) < 6 || len(p) > 15 {
		return "", ErrInvalidPhone
	}
	for _, r := range p {
		if r < '0' || r > '9' {
			return "", ErrInvalidPhone
		}
	}
	return p, nil
}

// ValidateVendor trims the name and normalises the phone.
func ValidateVendor(name, phone string) (string, string, error) {
	n := strings.TrimSpace(name)
	if n == "" {
		return "", "", ErrEmptyName
	}
	p, err := NormalizePhone(phone)
	if err != nil {
		return "", "", err
	}
	return n, p, nil
}
