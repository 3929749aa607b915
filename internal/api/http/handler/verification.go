package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/healthplus/backend/internal/repo"
	"github.com/healthplus/backend/internal/service/file"
	"github.com/healthplus/backend/internal/service/verification"
	"github.com/healthplus/backend/pkg/reqctx"
)

// VerificationHandler serves the admin side of the doctor verification
// workflow.
type VerificationHandler struct {
	svc   verification.Service
	files file.Service
}

func NewVerificationHandler(svc verification.Service, files file.Service) *VerificationHandler {
	return &VerificationHandler{svc: svc, files: files}
}

// doctorReview is the admin view of one doctor. Documents sit in a private
// bucket, so the reviewer gets short-lived signed links to them.
type doctorReview struct {
	*repo.Doctor
	DocumentLinks map[string]string `json:"documentLinks,omitempty"`
}

func mapVerificationError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, verification.ErrDoctorNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, verification.ErrInvalidStatus),
		errors.Is(err, verification.ErrReasonRequired),
		errors.Is(err, verification.ErrAlreadyVerified),
		errors.Is(err, verification.ErrAlreadyRejected):
		return badRequest(c, err.Error())
	case errors.Is(err, verification.ErrConcurrentUpdate):
		return conflict(c, err.Error())
	default:
		return internalError(c)
	}
}

// GET /api/admin/doctors?status=
func (h *VerificationHandler) List(c fiber.Ctx) error {
	doctors, err := h.svc.ListDoctors(c.Context(), c.Query("status"))
	if err != nil {
		return mapVerificationError(c, err)
	}
	return ok(c, doctors)
}

// GET /api/admin/doctors/pending
func (h *VerificationHandler) ListPending(c fiber.Ctx) error {
	doctors, err := h.svc.ListPending(c.Context())
	if err != nil {
		return mapVerificationError(c, err)
	}
	return ok(c, doctors)
}

// GET /api/admin/doctors/statistics
func (h *VerificationHandler) Statistics(c fiber.Ctx) error {
	stats, err := h.svc.Statistics(c.Context())
	if err != nil {
		return mapVerificationError(c, err)
	}
	return ok(c, stats)
}

// GET /api/admin/doctors/:id
func (h *VerificationHandler) Get(c fiber.Ctx) error {
	d, err := h.svc.GetDoctor(c.Context(), c.Params("id"))
	if err != nil {
		return mapVerificationError(c, err)
	}
	return ok(c, doctorReview{Doctor: d, DocumentLinks: h.documentLinks(c, d)})
}

func (h *VerificationHandler) documentLinks(c fiber.Ctx, d *repo.Doctor) map[string]string {
	if d.Profile == nil {
		return nil
	}
	docs := d.Profile.Documents
	links := make(map[string]string)
	for name, u := range map[string]string{
		"profilePhoto":   docs.ProfilePhoto,
		"license":        docs.License,
		"certificate":    docs.Certificate,
		"govtId":         docs.GovtID,
		"experienceCert": docs.ExperienceCert,
	} {
		if u == "" {
			continue
		}
		signed, err := h.files.GetDownloadURL(c.Context(), u)
		if err != nil {
			reqctx.Logger(c.Context()).Warn("sign document link failed", "doctor_id", d.ID.Hex(), "document", name, "err", err)
			continue
		}
		links[name] = signed
	}
	return links
}

// POST /api/admin/doctors/:id/approve
func (h *VerificationHandler) Approve(c fiber.Ctx) error {
	d, err := h.svc.Approve(c.Context(), c.Params("id"))
	if err != nil {
		return mapVerificationError(c, err)
	}
	return ok(c, d)
}

// POST /api/admin/doctors/:id/reject
func (h *VerificationHandler) Reject(c fiber.Ctx) error {
	var body struct {
		Reason string `json:"reason"`
	}
	// an empty or missing body is a missing reason, not a malformed request
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&body); err != nil {
			return badRequest(c, "invalid request body")
		}
	}

	d, err := h.svc.Reject(c.Context(), c.Params("id"), body.Reason)
	if err != nil {
		return mapVerificationError(c, err)
	}
	return ok(c, d)
}
