package order

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"quickorder/internal/audit"
	"quickorder/internal/database"
	"quickorder/internal/domain"
	"quickorder/internal/models"
)

type OrderResponse struct {
	ID          string  `json:"id"`
	VendorID    string  `json:"vendorId"`
	ProfileID   *string `json:"profileId"`
	TotalAmount string  `json:"totalAmount"`
	ItemsCount  int     `json:"itemsCount"`
	CreatedAt   string  `json:"createdAt"`
}

type CreateOrderRequest struct {
	VendorID    string             `json:"vendorId"`
	ProfileID   *string            `json:"profileId"`
	TotalAmount domain.NumericText `json:"totalAmount"`
	ItemsCount  int                `json:"itemsCount"`
}

func toResponse(o models.Order) OrderResponse {
	return OrderResponse{
		ID:          o.ID,
		VendorID:    o.VendorID,
		ProfileID:   o.ProfileID,
		TotalAmount: domain.DisplayAmount(o.TotalAmount),
		ItemsCount:  o.ItemsCount,
		CreatedAt:   o.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// GET /api/orders?vendorId=...
func ListOrdersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Order{})
		if vendorID := strings.TrimSpace(c.Query("vendorId")); vendorID != "" {
			dbq = dbq.Where("vendor_id = ?", vendorID)
		}

		var orders []models.Order
		if err := dbq.Order("created_at desc").Find(&orders).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list orders")
		}

		res := make([]OrderResponse, 0, len(orders))
		for _, o := range orders {
			res = append(res, toResponse(o))
		}
		return c.JSON(res)
	}
}

// POST /api/orders
func CreateOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateOrderRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid data")
		}

		body.VendorID = strings.TrimSpace(body.VendorID)
		if body.VendorID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "vendorId is required")
		}
		if body.ItemsCount < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "itemsCount must be at least 1")
		}
		total, err := domain.NormalizeAmount(string(body.TotalAmount))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "totalAmount must be a non-negative number")
		}

		var v models.Vendor
		if err := database.DB.First(&v, "id = ?", body.VendorID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Vendor not found")
		}

		var profileID *string
		if body.ProfileID != nil && strings.TrimSpace(*body.ProfileID) != "" {
			pid := strings.TrimSpace(*body.ProfileID)
			profileID = &pid
		}

		o := models.Order{
			VendorID:    v.ID,
			ProfileID:   profileID,
			TotalAmount: total,
			ItemsCount:  body.ItemsCount,
		}
		if err := database.DB.Create(&o).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not record order")
		}

		if logErr := audit.WriteLog(audit.LogOptions{
			EntityType:  audit.EntityOrder,
			EntityID:    o.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Order sent to %s: %d items, %s", v.Name, o.ItemsCount, total),
			After:       o,
		}); logErr != nil {
			logrus.WithError(logErr).Warn("audit log not written")
		}

		return c.Status(fiber.StatusCreated).JSON(toResponse(o))
	}
}
