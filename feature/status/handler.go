package status

import (
	"errors"

	"timetable-sync/core/logger"
	"timetable-sync/core/runlock"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for run status and the snapshot.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the status routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Get("/status", h.HandleStatus)
	app.Get("/events", h.HandleEvents)
	app.Post("/sync", h.HandleSync)
}

// HandleStatus returns the snapshot counters with the last and next run.
func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	report, err := h.service.Status(c.UserContext())
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Status failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(report)
}

// HandleEvents lists snapshot entries. ?tombstoned=true includes removed ones.
func (h *Handler) HandleEvents(c *fiber.Ctx) error {
	events, err := h.service.Events(c.UserContext(), c.QueryBool("tombstoned"))
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Listing events failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{
		"count":  len(events),
		"events": events,
	})
}

// HandleSync starts a run. By default it returns 202 immediately;
// ?wait=true blocks and returns the run summary.
func (h *Handler) HandleSync(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	if !c.QueryBool("wait") {
		l.Info("Sync triggered")
		h.service.TriggerAsync(c.UserContext())
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "accepted"})
	}

	summary, err := h.service.TriggerWait(c.UserContext())
	switch {
	case errors.Is(err, runlock.ErrRunInProgress):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case err != nil:
		l.Error("Sync failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   err.Error(),
			"summary": summary,
		})
	}
	return c.JSON(summary)
}
