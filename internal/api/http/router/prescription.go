package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/healthplus/backend/internal/api/http/handler"
	"github.com/healthplus/backend/pkg/authorize"
)

func (r *Router) registerPrescriptionRoutes(
	api fiber.Router,
	h *handler.PrescriptionHandler,
	authRequired fiber.Handler,
	requirePerm permFunc,
) {
	rx := api.Group("/prescriptions", authRequired)

	rx.Get("/", requirePerm(authorize.ResourcePrescription, authorize.ActionList), h.List)
	rx.Post("/", requirePerm(authorize.ResourcePrescription, authorize.ActionCreate), h.Create)

	rx.Get("/:id", requirePerm(authorize.ResourcePrescription, authorize.ActionRead), h.Get)
	rx.Patch("/:id", requirePerm(authorize.ResourcePrescription, authorize.ActionUpdate), h.Update)
	rx.Delete("/:id", requirePerm(authorize.ResourcePrescription, authorize.ActionDelete), h.Delete)
}
