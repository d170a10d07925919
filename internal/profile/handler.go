package profile

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

type ProfileResponse struct {
	ID        string  `json:"id"`
	ShopName  string  `json:"shopName"`
	OwnerName string  `json:"ownerName"`
	Phone     string  `json:"phone"`
	Address   string  `json:"address"`
	GST       *string `json:"gst"`
	Turnover  string  `json:"turnover"`
	Role      string  `json:"role"`
	Language  string  `json:"language"`
}

type CreateProfileRequest struct {
	ShopName  string  `json:"shopName"`
	OwnerName string  `json:"ownerName"`
	Phone     string  `json:"phone"`
	Address   string  `json:"address"`
	GST       *string `json:"gst"`
	Turnover  string  `json:"turnover"`
	Role      string  `json:"role"`
	Language  string  `json:"language"`
}

func toResponse(p models.Profile) ProfileResponse {
	return ProfileResponse{
		ID:        p.ID,
		ShopName:  p.ShopName,
		OwnerName: p.OwnerName,
		Phone:     p.Phone,
		Address:   p.Address,
		GST:       p.GST,
		Turnover:  p.Turnover,
		Role:      string(p.Role),
		Language:  p.Language,
	}
}

// GET /api/profile
//
// Answers JSON null until a profile has been created.
func GetProfileHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var p models.Profile
		err := database.DB.Order("created_at asc").First(&p).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(nil)
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load profile")
		}
		return c.JSON(toResponse(p))
	}
}

// GET /api/all-profiles
func ListProfilesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var profiles []models.Profile
		if err := database.DB.Order("created_at asc").Find(&profiles).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list profiles")
		}

		res := make([]ProfileResponse, 0, len(profiles))
		for _, p := range profiles {
			res = append(res, toResponse(p))
		}
		return c.JSON(res)
	}
}

// POST /api/profile
func CreateProfileHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateProfileRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid data")
		}

		required := []struct {
			field string
			value *string
		}{
			{"shopName", &body.ShopName},
			{"ownerName", &body.OwnerName},
			{"phone", &body.Phone},
			{"address", &body.Address},
			{"turnover", &body.Turnover},
			{"role", &body.Role},
			{"language", &body.Language},
		}
		for _, r := range required {
			*r.value = strings.TrimSpace(*r.value)
			if *r.value == "" {
				return fiber.NewError(fiber.StatusBadRequest, r.field+" is required")
			}
		}

		role := models.ProfileRole(body.Role)
		if role != models.RoleShopOwner && role != models.RoleAgency {
			return fiber.NewError(fiber.StatusBadRequest, "role must be shop_owner or agency")
		}

		phone, err := domain.NormalizePhone(body.Phone)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Phone must contain 6 to 15 digits")
		}

		var gst *string
		if body.GST != nil && strings.TrimSpace(*body.GST) != "" {
			g := strings.ToUpper(strings.TrimSpace(*body.GST))
			gst = &g
		}

		p := models.Profile{
			ShopName:  body.ShopName,
			OwnerName: body.OwnerName,
			Phone:     phone,
			Address:   body.Address,
			GST:       gst,
			Turnover:  body.Turnover,
			Role:      role,
			Language:  body.Language,
		}
		if err := database.DB.Create(&p).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create profile")
		}

		if logErr := audit.WriteLog(audit.LogOptions{
			EntityType:  audit.EntityProfile,
			EntityID:    p.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Profile created: %s", p.ShopName),
			After:       p,
		}); logErr != nil {
			logrus.WithError(logErr).Warn("audit log not written")
		}

		return c.Status(fiber.StatusCreated).JSON(toResponse(p))
	}
}
