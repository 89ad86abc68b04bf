package integrity

import (
	"timetable-sync/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for integrity checks.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the integrity routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/integrity")
	group.Get("/", h.HandleIntegrityCheck)
	group.Get("/schema", h.HandleSchemaCheck)
	group.Get("/storage", h.HandleStorageCheck)
	group.Get("/remote", h.HandleRemoteCheck)
}

// HandleIntegrityCheck runs all checks and returns the combined report.
// Responds 503 when a section fails.
func (h *Handler) HandleIntegrityCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Triggering all integrity checks")

	report := h.service.Report(c.UserContext())
	if !Healthy(report) {
		l.Warn("Integrity check found problems")
		return c.Status(fiber.StatusServiceUnavailable).JSON(report)
	}
	return c.JSON(report)
}

// HandleSchemaCheck checks and optionally migrates the snapshot table (?fix=true).
func (h *Handler) HandleSchemaCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	fix := c.Query("fix") == "true"

	report, err := h.service.CheckSchema(c.UserContext())
	if err != nil {
		l.Error("Schema check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	if !report.Matched && fix {
		l.Info("Attempting to migrate snapshot table")
		if err := h.service.FixSchema(c.UserContext()); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   "Failed to migrate schema",
				"details": err.Error(),
			})
		}
		if report, err = h.service.CheckSchema(c.UserContext()); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"status": "fixed", "report": report})
	}

	return c.JSON(report)
}

// HandleStorageCheck checks and optionally creates the bucket prefixes (?fix=true).
func (h *Handler) HandleStorageCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	fix := c.Query("fix") == "true"

	if !h.service.UsesStorage() {
		return c.JSON(fiber.Map{"status": StatusSkipped})
	}

	missing, err := h.service.CheckStorage(c.UserContext())
	if err != nil {
		l.Error("Storage check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	if len(missing) > 0 {
		l.Warn("Missing prefixes detected", zap.Strings("missing", missing))

		if fix {
			l.Info("Attempting to fix missing prefixes")
			if err := h.service.FixStorage(c.UserContext(), missing); err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error":   "Failed to fix storage",
					"details": err.Error(),
					"missing": missing,
				})
			}
			return c.JSON(fiber.Map{
				"status": "fixed",
				"fixed":  missing,
			})
		}
	}

	return c.JSON(fiber.Map{
		"status":  "checked",
		"missing": missing,
	})
}

// HandleRemoteCheck validates the remote calendar configuration.
func (h *Handler) HandleRemoteCheck(c *fiber.Ctx) error {
	return c.JSON(h.service.CheckRemote(c.UserContext()))
}
