package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/healthplus/backend/internal/api/http/handler"
	"github.com/healthplus/backend/pkg/authorize"
)

func (r *Router) registerAdminRoutes(
	api fiber.Router,
	vh *handler.VerificationHandler,
	ph *handler.PatientHandler,
	dh *handler.DashboardHandler,
	authRequired fiber.Handler,
	requirePerm permFunc,
) {
	// Doctor verification. Fixed paths go before /:id.
	doctors := api.Group("/admin/doctors", authRequired)
	doctors.Get("/", requirePerm(authorize.ResourceDoctor, authorize.ActionList), vh.List)
	doctors.Get("/pending", requirePerm(authorize.ResourceDoctor, authorize.ActionList), vh.ListPending)
	doctors.Get("/statistics", requirePerm(authorize.ResourceDoctor, authorize.ActionRead), vh.Statistics)
	doctors.Get("/:id", requirePerm(authorize.ResourceDoctor, authorize.ActionRead), vh.Get)
	doctors.Post("/:id/approve", requirePerm(authorize.ResourceDoctor, authorize.ActionApprove), vh.Approve)
	doctors.Post("/:id/reject", requirePerm(authorize.ResourceDoctor, authorize.ActionReject), vh.Reject)

	patients := api.Group("/admin/patients", authRequired)
	patients.Get("/", requirePerm(authorize.ResourcePatient, authorize.ActionList), ph.List)
	patients.Patch("/block/:id", requirePerm(authorize.ResourcePatient, authorize.ActionBlock), ph.Block)
	patients.Patch("/unblock/:id", requirePerm(authorize.ResourcePatient, authorize.ActionBlock), ph.Unblock)

	api.Group("/admin/dashboard", authRequired).
		Get("/summary", requirePerm(authorize.ResourceDashboard, authorize.ActionRead), dh.Summary)
}
