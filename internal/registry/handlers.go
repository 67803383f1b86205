package registry

import (
	"github.com/gofiber/fiber/v2"

	"github.com/roncastellon/BWM-walker-app-sub000/internal/route"
	"github.com/roncastellon/BWM-walker-app-sub000/internal/walk"
)

// SelectedView is what the dashboard shows for the open walk.
type SelectedView struct {
	Walk     walk.Summary            `json:"walk"`
	Detail   walk.Detail             `json:"detail"`
	Scene    route.FeatureCollection `json:"scene"`
	Distance string                  `json:"distance"`
	Duration string                  `json:"duration"`
	Warning  string                  `json:"warning,omitempty"`
}

func RegisterRoutes(r fiber.Router, reg *Registry, scenes *route.Set) {
	r.Get("/active", func(c *fiber.Ctx) error {
		return c.JSON(reg.Active())
	})

	r.Get("/completed", func(c *fiber.Ctx) error {
		return c.JSON(reg.Completed())
	})

	r.Post("/:id/select", func(c *fiber.Ctx) error {
		summary, ok := reg.FindWalk(c.Params("id"))
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "walk not found")
		}
		detail, err := reg.SelectWalk(c.UserContext(), summary)
		view := selectedView(summary, detail, scenes)
		if err != nil {
			view.Warning = err.Error()
		}
		return c.JSON(view)
	})

	r.Delete("/selection", func(c *fiber.Ctx) error {
		reg.ClearSelection()
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Get("/selected", func(c *fiber.Ctx) error {
		summary, ok := reg.Selected()
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "no walk selected")
		}
		detail, _ := reg.LiveDetail()
		return c.JSON(selectedView(summary, detail, scenes))
	})
}

func selectedView(s walk.Summary, d walk.Detail, scenes *route.Set) SelectedView {
	scene := scenes.For(s.ID).Update(route.InputFromDetail(d, d.IsTracking))
	meters := d.DistanceMeters
	if meters == 0 {
		meters = scene.DistanceM
	}
	return SelectedView{
		Walk:     s,
		Detail:   d,
		Scene:    scene.GeoJSON(),
		Distance: route.FormatDistance(meters),
		Duration: route.FormatDuration(d.DurationMinutes),
	}
}
