package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/healthplus/backend/internal/api/http/handler"
	"github.com/healthplus/backend/pkg/authorize"
)

func (r *Router) registerDoctorRoutes(
	api fiber.Router,
	h *handler.DoctorHandler,
	authRequired fiber.Handler,
	requirePerm permFunc,
) {
	profile := api.Group("/doctor/profile", authRequired)
	profile.Post("/", requirePerm(authorize.ResourceDoctorProfile, authorize.ActionCreate), h.CreateProfile)
	profile.Get("/", requirePerm(authorize.ResourceDoctorProfile, authorize.ActionRead), h.GetProfile)
	profile.Put("/", requirePerm(authorize.ResourceDoctorProfile, authorize.ActionUpdate), h.UpdateProfile)

	// Public directory of verified doctors
	public := api.Group("/doctors")
	public.Get("/", h.ListPublic)
	public.Get("/:id", h.GetPublic)
}
