package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/healthplus/backend/internal/service/appointment"
)

type AppointmentHandler struct {
	svc appointment.Service
}

func NewAppointmentHandler(svc appointment.Service) *AppointmentHandler {
	return &AppointmentHandler{svc: svc}
}

func mapAppointmentError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, appointment.ErrNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, appointment.ErrForbidden), errors.Is(err, appointment.ErrPatientCancelOnly):
		return errorWithStatus(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, appointment.ErrDoctorUnavailable),
		errors.Is(err, appointment.ErrInvalidDate),
		errors.Is(err, appointment.ErrInvalidTime),
		errors.Is(err, appointment.ErrInvalidStatus),
		errors.Is(err, appointment.ErrAlreadyCompleted),
		errors.Is(err, appointment.ErrAlreadyCancelled):
		return badRequest(c, err.Error())
	default:
		return internalError(c)
	}
}

// POST /api/appointments
func (h *AppointmentHandler) Book(c fiber.Ctx) error {
	who, valid := callerFrom(c)
	if !valid {
		return unauthorized(c)
	}

	var body struct {
		DoctorID string `json:"doctorId"`
		Date     string `json:"date"`
		Time     string `json:"time"`
		Notes    string `json:"notes"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	appt, err := h.svc.Book(c.Context(), who, appointment.BookRequest{
		DoctorID: body.DoctorID,
		Date:     body.Date,
		Time:     body.Time,
		Notes:    body.Notes,
	})
	if err != nil {
		return mapAppointmentError(c, err)
	}

	return created(c, appt)
}

// GET /api/appointments
func (h *AppointmentHandler) List(c fiber.Ctx) error {
	who, valid := callerFrom(c)
	if !valid {
		return unauthorized(c)
	}

	appts, err := h.svc.List(c.Context(), who)
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return ok(c, appts)
}

// GET /api/appointments/:id
func (h *AppointmentHandler) Get(c fiber.Ctx) error {
	who, valid := callerFrom(c)
	if !valid {
		return unauthorized(c)
	}

	appt, err := h.svc.Get(c.Context(), who, c.Params("id"))
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return ok(c, appt)
}

// PATCH /api/appointments/:id
func (h *AppointmentHandler) Update(c fiber.Ctx) error {
	who, valid := callerFrom(c)
	if !valid {
		return unauthorized(c)
	}

	var body struct {
		Status *string `json:"status"`
		Notes  *string `json:"notes"`
		Date   *string `json:"date"`
		Time   *string `json:"time"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	appt, err := h.svc.Update(c.Context(), who, c.Params("id"), appointment.UpdateRequest{
		Status: body.Status,
		Notes:  body.Notes,
		Date:   body.Date,
		Time:   body.Time,
	})
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return ok(c, appt)
}

// DELETE /api/appointments/:id
func (h *AppointmentHandler) Delete(c fiber.Ctx) error {
	if err := h.svc.Delete(c.Context(), c.Params("id")); err != nil {
		return mapAppointmentError(c, err)
	}
	return noContent(c)
}
