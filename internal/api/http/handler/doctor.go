package handler

import (
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/healthplus/backend/internal/repo"
	"github.com/healthplus/backend/internal/service/doctor"
)

type DoctorHandler struct {
	svc doctor.Service
}

func NewDoctorHandler(svc doctor.Service) *DoctorHandler {
	return &DoctorHandler{svc: svc}
}

func mapDoctorError(c fiber.Ctx, err error) error {
	if resp, handled := mapUploadError(c, err); handled {
		return resp
	}
	switch {
	case errors.Is(err, doctor.ErrDoctorNotFound), errors.Is(err, doctor.ErrProfileNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, doctor.ErrProfileExists):
		return conflict(c, err.Error())
	case errors.Is(err, doctor.ErrDocumentsRequired),
		errors.Is(err, doctor.ErrMissingFields),
		errors.Is(err, doctor.ErrInvalidExperience):
		return badRequest(c, err.Error())
	default:
		return internalError(c)
	}
}

type profileWriter func(ctx context.Context, doctorID string, in doctor.ProfileInput, files doctor.Files) (*repo.Doctor, error)

// POST /api/doctor/profile  (multipart)
func (h *DoctorHandler) CreateProfile(c fiber.Ctx) error {
	return h.saveProfile(c, h.svc.CreateProfile, fiber.StatusCreated)
}

// PUT /api/doctor/profile  (multipart)
func (h *DoctorHandler) UpdateProfile(c fiber.Ctx) error {
	return h.saveProfile(c, h.svc.UpdateProfile, fiber.StatusOK)
}

func (h *DoctorHandler) saveProfile(c fiber.Ctx, write profileWriter, status int) error {
	who, valid := callerFrom(c)
	if !valid {
		return unauthorized(c)
	}

	form, err := c.MultipartForm()
	if err != nil {
		return badRequest(c, "multipart form expected")
	}
	in, err := profileInputFromForm(form)
	if err != nil {
		return badRequest(c, err.Error())
	}

	d, err := write(c.Context(), who.ID.Hex(), in, profileFilesFromForm(form))
	if err != nil {
		return mapDoctorError(c, err)
	}

	return c.Status(status).JSON(fiber.Map{"data": d})
}

// GET /api/doctor/profile
func (h *DoctorHandler) GetProfile(c fiber.Ctx) error {
	who, valid := callerFrom(c)
	if !valid {
		return unauthorized(c)
	}

	d, err := h.svc.GetProfile(c.Context(), who.ID.Hex())
	if err != nil {
		return mapDoctorError(c, err)
	}
	return ok(c, d)
}

// GET /api/doctors
func (h *DoctorHandler) ListPublic(c fiber.Ctx) error {
	doctors, err := h.svc.ListVerified(c.Context())
	if err != nil {
		return mapDoctorError(c, err)
	}
	return ok(c, doctors)
}

// GET /api/doctors/:id
func (h *DoctorHandler) GetPublic(c fiber.Ctx) error {
	d, err := h.svc.GetPublic(c.Context(), c.Params("id"))
	if err != nil {
		return mapDoctorError(c, err)
	}
	return ok(c, d)
}

// ---------------------------------------------------------------------------
// Form decoding
// ---------------------------------------------------------------------------

// profileInputFromForm reads the text fields. Absent fields stay nil so an
// update leaves them untouched. qualifications may repeat or be
// comma-separated; clinic is a JSON object.
func profileInputFromForm(form *multipart.Form) (doctor.ProfileInput, error) {
	var in doctor.ProfileInput

	if v, present := formValue(form, "specialization"); present {
		in.Specialization = &v
	}
	if v, present := formValue(form, "licenseNumber"); present {
		in.LicenseNumber = &v
	}
	if v, present := formValue(form, "experience"); present {
		years, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return in, doctor.ErrInvalidExperience
		}
		in.Experience = &years
	}
	if vals, present := form.Value["qualifications"]; present {
		in.Qualifications = []string{}
		for _, v := range vals {
			in.Qualifications = append(in.Qualifications, strings.Split(v, ",")...)
		}
	}
	if v, present := formValue(form, "clinic"); present && strings.TrimSpace(v) != "" {
		var cl repo.Clinic
		if err := json.Unmarshal([]byte(v), &cl); err != nil {
			return in, errors.New("clinic must be a JSON object")
		}
		in.Clinic = &cl
	}
	return in, nil
}

func profileFilesFromForm(form *multipart.Form) doctor.Files {
	return doctor.Files{
		ProfilePhoto:   formFile(form, "profilePhoto"),
		License:        formFile(form, "license"),
		Certificate:    formFile(form, "certificate"),
		GovtID:         formFile(form, "govtId"),
		ExperienceCert: formFile(form, "experienceCert"),
	}
}

func formValue(form *multipart.Form, key string) (string, bool) {
	vals, present := form.Value[key]
	if !present || len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

func formFile(form *multipart.Form, key string) *multipart.FileHeader {
	if fhs := form.File[key]; len(fhs) > 0 {
		return fhs[0]
	}
	return nil
}
