package journal

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service) {
	r.Get("/:appointmentID/events", func(c *fiber.Ctx) error {
		events, err := svc.Events(c.Context(), c.Params("appointmentID"))
		if errors.Is(err, ErrDisabled) {
			return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(events)
	})
}
