package tracking

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/roncastellon/BWM-walker-app-sub000/internal/journal"
	"github.com/roncastellon/BWM-walker-app-sub000/internal/walk"
)

type StartRequest struct {
	AppointmentID string `json:"appointment_id" validate:"required"`
}

var validate = validator.New()

func RegisterRoutes(r fiber.Router, mgr *Manager, events *journal.Service) {
	r.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(mgr.Status())
	})

	r.Post("/start", func(c *fiber.Ctx) error {
		var req StartRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "appointment_id required")
		}
		status, err := mgr.Start(c.UserContext(), req.AppointmentID)
		if err != nil {
			return httpError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(status)
	})

	r.Post("/stop", func(c *fiber.Ctx) error {
		status, err := mgr.Stop(c.UserContext())
		if errors.Is(err, ErrInvalidState) || errors.Is(err, ErrNotWalker) {
			return httpError(err)
		}
		if err != nil {
			// The session is released either way; report the stop failure.
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error(), "session": status})
		}
		return c.JSON(status)
	})

	journal.RegisterRoutes(r, events)
}

func httpError(err error) error {
	switch {
	case walk.IsLocationError(err):
		if errors.Is(err, walk.ErrLocationUnsupported) {
			return fiber.NewError(fiber.StatusUnprocessableEntity, "location is not supported on this device")
		}
		return fiber.NewError(fiber.StatusUnprocessableEntity, "location unavailable: enable location services")
	case errors.Is(err, ErrSessionActive), errors.Is(err, ErrInvalidState):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, ErrNotWalker):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	case errors.Is(err, walk.ErrTrackingBackend):
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
