package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/healthplus/backend/internal/service/patient"
)

type PatientHandler struct {
	svc patient.Service
}

func NewPatientHandler(svc patient.Service) *PatientHandler {
	return &PatientHandler{svc: svc}
}

func mapPatientError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, patient.ErrInvalidID):
		return badRequest(c, err.Error())
	case errors.Is(err, patient.ErrPatientNotFound):
		return notFound(c, err.Error())
	default:
		return internalError(c)
	}
}

// GET /api/admin/patients
func (h *PatientHandler) List(c fiber.Ctx) error {
	patients, err := h.svc.List(c.Context())
	if err != nil {
		return mapPatientError(c, err)
	}
	return ok(c, patients)
}

// PATCH /api/admin/patients/block/:id
func (h *PatientHandler) Block(c fiber.Ctx) error {
	u, err := h.svc.Block(c.Context(), c.Params("id"))
	if err != nil {
		return mapPatientError(c, err)
	}
	return ok(c, u)
}

// PATCH /api/admin/patients/unblock/:id
func (h *PatientHandler) Unblock(c fiber.Ctx) error {
	u, err := h.svc.Unblock(c.Context(), c.Params("id"))
	if err != nil {
		return mapPatientError(c, err)
	}
	return ok(c, u)
}
