package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/healthplus/backend/internal/api/http/handler"
	"github.com/healthplus/backend/pkg/authorize"
)

func (r *Router) registerAppointmentRoutes(
	api fiber.Router,
	ah *handler.AppointmentHandler,
	authRequired fiber.Handler,
	requirePerm permFunc,
) {
	appts := api.Group("/appointments", authRequired)

	appts.Get("/", requirePerm(authorize.ResourceAppointment, authorize.ActionList), ah.List)
	appts.Post("/", requirePerm(authorize.ResourceAppointment, authorize.ActionCreate), ah.Book)

	appts.Get("/:id", requirePerm(authorize.ResourceAppointment, authorize.ActionRead), ah.Get)
	appts.Patch("/:id", requirePerm(authorize.ResourceAppointment, authorize.ActionUpdate), ah.Update)
	appts.Delete("/:id", requirePerm(authorize.ResourceAppointment, authorize.ActionDelete), ah.Delete)
}
