package item

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"quickorder/internal/audit"
	"quickorder/internal/database"
	"quickorder/internal/domain"
	"quickorder/internal/models"
)

type ItemResponse struct {
	ID       string  `json:"id"`
	VendorID string  `json:"vendorId"`
	Name     string  `json:"name"`
	Unit     string  `json:"unit"`
	Category string  `json:"category"`
	Price    string  `json:"price"`
	ImageKey *string `json:"imageKey"`
	Selected bool    `json:"selected"`
	Quantity int     `json:"quantity"`
}

// CreateItemRequest creates one item for VendorID, or one copy per entry of
// VendorIDs when that is non-empty.
type CreateItemRequest struct {
	VendorID  string             `json:"vendorId"`
	VendorIDs []string           `json:"vendorIds"`
	Name      string             `json:"name"`
	Unit      string             `json:"unit"`
	Category  string             `json:"category"`
	Price     domain.NumericText `json:"price"`
	ImageKey  *string            `json:"imageKey"`
	Selected  bool               `json:"selected"`
	Quantity  *int               `json:"quantity"`
}

type UpdateItemRequest struct {
	VendorID *string             `json:"vendorId"`
	Name     *string             `json:"name"`
	Unit     *string             `json:"unit"`
	Category *string             `json:"category"`
	Price    *domain.NumericText `json:"price"`
	ImageKey *string             `json:"imageKey"`
	Selected *bool               `json:"selected"`
	Quantity *int                `json:"quantity"`
}

func toResponse(it models.GroceryItem) ItemResponse {
	return ItemResponse{
		ID:       it.ID,
		VendorID: it.VendorID,
		Name:     it.Name,
		Unit:     it.Unit,
		Category: it.Category,
		Price:    domain.DisplayAmount(it.Price),
		ImageKey: it.ImageKey,
		Selected: it.Selected,
		Quantity: it.Quantity,
	}
}

func parseUnit(s string) (string, error) {
	u, ok := domain.ParseUnit(s)
	if !ok {
		return "", fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Unknown unit %q", s))
	}
	return string(u), nil
}

func parseCategory(s string) (string, error) {
	cat := domain.Category(strings.TrimSpace(s))
	if !cat.Valid() {
		return "", fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Unknown category %q", s))
	}
	return string(cat), nil
}

func parsePrice(n domain.NumericText) (string, error) {
	p, err := domain.NormalizeAmount(string(n))
	if err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, "Price must be a non-negative number")
	}
	return p, nil
}

// vendorExists treats the shared catalog id as always present.
func vendorExists(db *gorm.DB, id string) (bool, error) {
	if id == models.CommonVendorID {
		return true, nil
	}
	var count int64
	if err := db.Model(&models.Vendor{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GET /api/items?vendorId=...
//
// With a vendor id the result is that vendor's items plus the shared ones.
func ListItemsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.GroceryItem{})
		if vendorID := strings.TrimSpace(c.Query("vendorId")); vendorID != "" {
			dbq = dbq.Where("vendor_id IN ?", []string{vendorID, models.CommonVendorID})
		}

		var items []models.GroceryItem
		if err := dbq.Order("created_at asc").Order("id asc").Find(&items).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list items")
		}

		res := make([]ItemResponse, 0, len(items))
		for _, it := range items {
			res = append(res, toResponse(it))
		}
		return c.JSON(res)
	}
}

// POST /api/items
func CreateItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateItemRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid data")
		}

		name := strings.TrimSpace(body.Name)
		if name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Item name is required")
		}
		unit, err := parseUnit(body.Unit)
		if err != nil {
			return err
		}
		category, err := parseCategory(body.Category)
		if err != nil {
			return err
		}
		price, err := parsePrice(body.Price)
		if err != nil {
			return err
		}
		quantity := 1
		if body.Quantity != nil {
			if *body.Quantity < 1 {
				return fiber.NewError(fiber.StatusBadRequest, "Quantity must be at least 1")
			}
			quantity = *body.Quantity
		}

		fanOut := len(body.VendorIDs) > 0
		vendorIDs := uniqueIDs(body.VendorIDs)
		if !fanOut {
			vendorIDs = uniqueIDs([]string{body.VendorID})
		}
		if len(vendorIDs) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "vendorId is required")
		}

		created := make([]models.GroceryItem, 0, len(vendorIDs))
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			for _, vid := range vendorIDs {
				ok, err := vendorExists(tx, vid)
				if err != nil {
					return err
				}
				if !ok {
					return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Vendor %s does not exist", vid))
				}

				it := models.GroceryItem{
					VendorID: vid,
					Name:     name,
					Unit:     unit,
					Category: category,
					Price:    price,
					ImageKey: body.ImageKey,
					Selected: body.Selected,
					Quantity: quantity,
				}
				if err := tx.Create(&it).Error; err != nil {
					return err
				}
				if err := audit.WriteLog(audit.LogOptions{
					DB:          tx,
					EntityType:  audit.EntityGroceryItem,
					EntityID:    it.ID,
					Action:      models.AuditActionCreate,
					Description: fmt.Sprintf("Item added: %s (%s)", it.Name, vid),
					After:       it,
				}); err != nil {
					return err
				}
				created = append(created, it)
			}
			return nil
		})
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return fe
			}
			logrus.WithError(err).Error("create item failed")
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create item")
		}

		if !fanOut {
			return c.Status(fiber.StatusCreated).JSON(toResponse(created[0]))
		}
		res := make([]ItemResponse, 0, len(created))
		for _, it := range created {
			res = append(res, toResponse(it))
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	}
}

// PATCH /api/items/:id
func UpdateItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var it models.GroceryItem
		if err := database.DB.First(&it, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Item not found")
		}
		before := it

		var body UpdateItemRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid data")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Item name cannot be empty")
			}
			it.Name = name
		}
		if body.Unit != nil {
			unit, err := parseUnit(*body.Unit)
			if err != nil {
				return err
			}
			it.Unit = unit
		}
		if body.Category != nil {
			category, err := parseCategory(*body.Category)
			if err != nil {
				return err
			}
			it.Category = category
		}
		if body.Price != nil {
			price, err := parsePrice(*body.Price)
			if err != nil {
				return err
			}
			it.Price = price
		}
		if body.VendorID != nil {
			vid := strings.TrimSpace(*body.VendorID)
			ok, err := vendorExists(database.DB, vid)
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Could not update item")
			}
			if vid == "" || !ok {
				return fiber.NewError(fiber.StatusBadRequest, "Vendor does not exist")
			}
			it.VendorID = vid
		}
		if body.ImageKey != nil {
			it.ImageKey = body.ImageKey
		}
		if body.Selected != nil {
			it.Selected = *body.Selected
		}
		if body.Quantity != nil {
			if *body.Quantity < 1 {
				return fiber.NewError(fiber.StatusBadRequest, "Quantity must be at least 1")
			}
			it.Quantity = *body.Quantity
		}
		it.Price = domain.DisplayAmount(it.Price)

		if err := database.DB.Save(&it).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update item")
		}

		if logErr := audit.WriteLog(audit.LogOptions{
			EntityType:  audit.EntityGroceryItem,
			EntityID:    it.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Item updated: %s", it.Name),
			Before:      before,
			After:       it,
		}); logErr != nil {
			logrus.WithError(logErr).Warn("audit log not written")
		}

		return c.JSON(toResponse(it))
	}
}

// DELETE /api/items/:id
func DeleteItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var it models.GroceryItem
		if err := database.DB.First(&it, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Item not found")
		}

		if err := database.DB.Delete(&models.GroceryItem{}, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete item")
		}

		if logErr := audit.WriteLog(audit.LogOptions{
			EntityType:  audit.EntityGroceryItem,
			EntityID:    it.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Item deleted: %s", it.Name),
			Before:      it,
		}); logErr != nil {
			logrus.WithError(logErr).Warn("audit log not written")
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}

// uniqueIDs trims, drops empties and keeps first occurrences in order.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
