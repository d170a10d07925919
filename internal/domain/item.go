package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	// CommonVendorID marks catalog items visible under every vendor.
	CommonVendorID = "common"

	MinQuantity     = 0.5
	DefaultQuantity = 1.0

	// ItemsSchemaVersion is the version written by EncodeItems.
	ItemsSchemaVersion = 2
)

// CatalogItem is a grocery line. Selected and Quantity are per-session state
// layered on top of the catalog record.
type CatalogItem struct {
	ID       string   `json:"id"`
	VendorID string   `json:"vendorId"`
	Name     string   `json:"name"`
	Unit     Unit     `json:"unit"`
	Category Category `json:"category"`
	Price    string   `json:"price"`
	ImageKey *string  `json:"imageKey,omitempty"`
	Selected bool     `json:"selected"`
	Quantity float64  `json:"quantity"`
}

// MigrateItem fills fields that older payloads did not carry.
func MigrateItem(it CatalogItem) CatalogItem {
	if strings.TrimSpace(it.Price) == "" {
		it.Price = "0"
	}
	if it.VendorID == "" {
		it.VendorID = CommonVendorID
	}
	if u, ok := ParseUnit(string(it.Unit)); ok {
		it.Unit = u
	}
	if it.Quantity < MinQuantity {
		it.Quantity = DefaultQuantity
	}
	return it
}

type itemsEnvelope struct {
	Version int           `json:"version"`
	Items   []CatalogItem `json:"items"`
}

// EncodeItems writes the versioned cache form of a catalog.
func EncodeItems(items []CatalogItem) ([]byte, error) {
	if items == nil {
		items = []CatalogItem{}
	}
	return json.Marshal(itemsEnvelope{Version: ItemsSchemaVersion, Items: items})
}

// DecodeItems reads either the versioned envelope or a bare legacy array and
// migrates every record to the current shape.
func DecodeItems(data []byte) ([]CatalogItem, error) {
	trimmed := strings.TrimSpace(string(data))
	var items []CatalogItem
	switch {
	case strings.HasPrefix(trimmed, "["):
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("decode legacy items: %w", err)
		}
	case strings.HasPrefix(trimmed, "{"):
		var env itemsEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, fmt.Errorf("decode items: %w", err)
		}
		if env.Version > ItemsSchemaVersion {
			return nil, fmt.Errorf("items schema version %d is newer than %d", env.Version, ItemsSchemaVersion)
		}
		items = env.Items
	default:
		return nil, fmt.Errorf("decode items: unexpected payload")
	}

	out := make([]CatalogItem, 0, len(items))
	for _, it := range items {
		out = append(out, MigrateItem(it))
	}
	return out, nil
}

// VisibleTo keeps the items scoped to vendorID plus the shared catalog.
func VisibleTo(items []CatalogItem, vendorID string) []CatalogItem {
	out := make([]CatalogItem, 0, len(items))
	for _, it := range items {
		if it.VendorID == vendorID || it.VendorID == CommonVendorID {
			out = append(out, it)
		}
	}
	return out
}
