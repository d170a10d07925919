// Package server assembles the QuickOrder REST API.
package server

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/sirupsen/logrus"

	"quickorder/internal/audit"
	"quickorder/internal/config"
	"quickorder/internal/item"
	"quickorder/internal/metrics"
	"quickorder/internal/order"
	"quickorder/internal/profile"
	"quickorder/internal/vendor"
)

// New builds the app. database.DB must be initialised before requests are
// served.
func New(cfg *config.Config, log *logrus.Entry) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var e *fiber.Error
			if errors.As(err, &e) {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.WithError(err).WithField("path", c.Path()).Error("unexpected error")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Unexpected server error",
			})
		},
	})

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
	}))

	app.Use(requestMetrics())

	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	api := app.Group("/api")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Profile
	api.Get("/profile", profile.GetProfileHandler())
	api.Post("/profile", profile.CreateProfileHandler())
	api.Get("/all-profiles", profile.ListProfilesHandler())

	// Catalog
	api.Get("/items", item.ListItemsHandler())
	api.Post("/items", item.CreateItemHandler())
	api.Patch("/items/:id", item.UpdateItemHandler())
	api.Delete("/items/:id", item.DeleteItemHandler())

	// Vendors
	api.Get("/vendors", vendor.ListVendorsHandler())
	api.Post("/vendors", vendor.CreateVendorHandler())
	api.Patch("/vendors/:id", vendor.UpdateVendorHandler())
	api.Delete("/vendors/:id", vendor.DeleteVendorHandler())

	// Orders
	api.Get("/orders", order.ListOrdersHandler())
	api.Post("/orders", order.CreateOrderHandler())

	// Audit logs
	api.Get("/audit-logs", audit.ListAuditLogsHandler())
	api.Post("/audit-logs/:id/undo", audit.UndoAuditLogHandler())

	return app
}

// requestMetrics records every request under its route pattern.
func requestMetrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		var e *fiber.Error
		if errors.As(err, &e) {
			status = e.Code
		} else if err != nil {
			status = fiber.StatusInternalServerError
		}

		metrics.RecordHTTPRequest(c.Method(), c.Route().Path, status, time.Since(start))
		return err
	}
}
