package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/healthplus/backend/internal/service/dashboard"
)

type DashboardHandler struct {
	svc dashboard.Service
}

func NewDashboardHandler(svc dashboard.Service) *DashboardHandler {
	return &DashboardHandler{svc: svc}
}

// GET /api/admin/dashboard/summary
func (h *DashboardHandler) Summary(c fiber.Ctx) error {
	s, err := h.svc.Summary(c.Context())
	if err != nil {
		return internalError(c)
	}
	return ok(c, s)
}
