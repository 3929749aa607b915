package handler

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/healthplus/backend/internal/repo"
	"github.com/healthplus/backend/internal/service/prescription"
)

type PrescriptionHandler struct {
	svc prescription.Service
}

func NewPrescriptionHandler(svc prescription.Service) *PrescriptionHandler {
	return &PrescriptionHandler{svc: svc}
}

func mapPrescriptionError(c fiber.Ctx, err error) error {
	if resp, handled := mapUploadError(c, err); handled {
		return resp
	}
	switch {
	case errors.Is(err, prescription.ErrNotFound), errors.Is(err, prescription.ErrAppointmentNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, prescription.ErrNotAppointmentDoctor),
		errors.Is(err, prescription.ErrNotPrescriber),
		errors.Is(err, prescription.ErrForbidden):
		return errorWithStatus(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, prescription.ErrAlreadyExists):
		return conflict(c, err.Error())
	case errors.Is(err, prescription.ErrMedicinesRequired):
		return badRequest(c, err.Error())
	default:
		return internalError(c)
	}
}

// prescriptionBody is accepted as JSON, or as multipart with medicines as a
// JSON array field and an optional prescriptionFile.
type prescriptionBody struct {
	AppointmentID string          `json:"appointmentId"`
	Medicines     []repo.Medicine `json:"medicines"`
	Notes         *string         `json:"notes"`
}

func decodePrescription(c fiber.Ctx) (prescriptionBody, *multipart.FileHeader, error) {
	var body prescriptionBody

	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		err := c.Bind().JSON(&body)
		return body, nil, err
	}

	form, err := c.MultipartForm()
	if err != nil {
		return body, nil, err
	}
	if v, present := formValue(form, "appointmentId"); present {
		body.AppointmentID = v
	}
	if v, present := formValue(form, "notes"); present {
		body.Notes = &v
	}
	if v, present := formValue(form, "medicines"); present {
		if err := json.Unmarshal([]byte(v), &body.Medicines); err != nil {
			return body, nil, err
		}
	}
	return body, formFile(form, "prescriptionFile"), nil
}

// POST /api/prescriptions
func (h *PrescriptionHandler) Create(c fiber.Ctx) error {
	who, valid := callerFrom(c)
	if !valid {
		return unauthorized(c)
	}

	body, attachment, err := decodePrescription(c)
	if err != nil {
		return badRequest(c, "invalid request body")
	}

	req := prescription.CreateRequest{AppointmentID: body.AppointmentID, Medicines: body.Medicines}
	if body.Notes != nil {
		req.Notes = *body.Notes
	}

	p, err := h.svc.Create(c.Context(), who, req, attachment)
	if err != nil {
		return mapPrescriptionError(c, err)
	}
	return created(c, p)
}

// GET /api/prescriptions
func (h *PrescriptionHandler) List(c fiber.Ctx) error {
	who, valid := callerFrom(c)
	if !valid {
		return unauthorized(c)
	}

	out, err := h.svc.List(c.Context(), who)
	if err != nil {
		return mapPrescriptionError(c, err)
	}
	return ok(c, out)
}

// GET /api/prescriptions/:id
func (h *PrescriptionHandler) Get(c fiber.Ctx) error {
	who, valid := callerFrom(c)
	if !valid {
		return unauthorized(c)
	}

	p, err := h.svc.Get(c.Context(), who, c.Params("id"))
	if err != nil {
		return mapPrescriptionError(c, err)
	}
	return ok(c, p)
}

// PATCH /api/prescriptions/:id
func (h *PrescriptionHandler) Update(c fiber.Ctx) error {
	who, valid := callerFrom(c)
	if !valid {
		return unauthorized(c)
	}

	body, attachment, err := decodePrescription(c)
	if err != nil {
		return badRequest(c, "invalid request body")
	}

	p, err := h.svc.Update(c.Context(), who, c.Params("id"), prescription.UpdateRequest{
		Medicines: body.Medicines,
		Notes:     body.Notes,
	}, attachment)
	if err != nil {
		return mapPrescriptionError(c, err)
	}
	return ok(c, p)
}

// DELETE /api/prescriptions/:id
func (h *PrescriptionHandler) Delete(c fiber.Ctx) error {
	if err := h.svc.Delete(c.Context(), c.Params("id")); err != nil {
		return mapPrescriptionError(c, err)
	}
	return noContent(c)
}
