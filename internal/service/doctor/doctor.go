package doctor

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/healthplus/backend/internal/repo"
	"github.com/healthplus/backend/internal/service/file"
	"github.com/healthplus/backend/pkg/reqctx"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

// ProfileInput carries the text fields of a profile submission. Nil fields
// are left unchanged on update.
type ProfileInput struct {
	Specialization *string
	Experience     *int
	Qualifications []string
	LicenseNumber  *string
	Clinic         *repo.Clinic
}

// Files carries the uploaded documents. Nil entries were not uploaded.
type Files struct {
	ProfilePhoto   *multipart.FileHeader
	License        *multipart.FileHeader
	Certificate    *multipart.FileHeader
	GovtID         *multipart.FileHeader
	ExperienceCert *multipart.FileHeader
}

// PublicDoctor is what patients see. Credential documents are never exposed.
type PublicDoctor struct {
	ID             string      `json:"id"`
	FullName       string      `json:"fullName"`
	Specialization string      `json:"specialization"`
	Experience     int         `json:"experience"`
	Qualifications []string    `json:"qualifications"`
	ProfilePhoto   string      `json:"profilePhoto,omitempty"`
	Clinic         repo.Clinic `json:"clinic"`
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	CreateProfile(ctx context.Context, doctorID string, in ProfileInput, files Files) (*repo.Doctor, error)
	GetProfile(ctx context.Context, doctorID string) (*repo.Doctor, error)
	UpdateProfile(ctx context.Context, doctorID string, in ProfileInput, files Files) (*repo.Doctor, error)
	ListVerified(ctx context.Context) ([]PublicDoctor, error)
	GetPublic(ctx context.Context, id string) (*PublicDoctor, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type doctorService struct {
	doctors repo.DoctorRepository
	files   file.Service
}

func New(doctors repo.DoctorRepository, files file.Service) Service {
	return &doctorService{doctors: doctors, files: files}
}

func (s *doctorService) CreateProfile(ctx context.Context, doctorID string, in ProfileInput, files Files) (*repo.Doctor, error) {
	d, err := s.load(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if d.Profile != nil {
		return nil, ErrProfileExists
	}

	if in.Specialization == nil || strings.TrimSpace(*in.Specialization) == "" ||
		in.LicenseNumber == nil || strings.TrimSpace(*in.LicenseNumber) == "" ||
		in.Experience == nil {
		return nil, ErrMissingFields
	}
	if files.License == nil || files.Certificate == nil {
		return nil, ErrDocumentsRequired
	}

	p := &repo.DoctorProfile{Qualifications: []string{}}
	if err := apply(p, in); err != nil {
		return nil, err
	}
	added, _, err := s.upload(ctx, d.ID, &p.Documents, files)
	if err != nil {
		return nil, err
	}

	updated, err := s.doctors.SaveProfile(ctx, d.ID, p)
	if err != nil {
		file.Discard(ctx, s.files, added...)
		return nil, saveErr(err)
	}
	reqctx.Logger(ctx).Info("doctor profile created", "doctor_id", d.ID.Hex())
	return updated, nil
}

func (s *doctorService) GetProfile(ctx context.Context, doctorID string) (*repo.Doctor, error) {
	d, err := s.load(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if d.Profile == nil {
		return nil, ErrProfileNotFound
	}
	return d, nil
}

func (s *doctorService) UpdateProfile(ctx context.Context, doctorID string, in ProfileInput, files Files) (*repo.Doctor, error) {
	d, err := s.GetProfile(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	p := *d.Profile
	if err := apply(&p, in); err != nil {
		return nil, err
	}
	added, replaced, err := s.upload(ctx, d.ID, &p.Documents, files)
	if err != nil {
		return nil, err
	}

	// A rejected doctor who resubmits goes back into the review queue, and so
	// does a verified one whose credentials no longer match what was approved.
	reset := []repo.VerificationStatus{repo.StatusRejected}
	if credentialsChanged(d.Profile, &p) {
		reset = append(reset, repo.StatusVerified)
	}
	updated, err := s.doctors.SaveProfile(ctx, d.ID, &p, reset...)
	if err != nil {
		file.Discard(ctx, s.files, added...)
		return nil, saveErr(err)
	}
	file.Discard(ctx, s.files, replaced...)
	if updated.VerificationStatus != d.VerificationStatus {
		reqctx.Logger(ctx).Info("doctor profile returned to review",
			"doctor_id", d.ID.Hex(), "from", d.VerificationStatus)
	}
	return updated, nil
}

func (s *doctorService) ListVerified(ctx context.Context) ([]PublicDoctor, error) {
	st := repo.StatusVerified
	docs, err := s.doctors.List(ctx, &st)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	withProfile := lo.Filter(docs, func(d repo.Doctor, _ int) bool { return d.Profile != nil })
	return lo.Map(withProfile, func(d repo.Doctor, _ int) PublicDoctor { return toPublic(&d) }), nil
}

func (s *doctorService) GetPublic(ctx context.Context, id string) (*PublicDoctor, error) {
	d, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.VerificationStatus != repo.StatusVerified || d.Profile == nil {
		return nil, ErrDoctorNotFound
	}
	out := toPublic(d)
	return &out, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (s *doctorService) load(ctx context.Context, id string) (*repo.Doctor, error) {
	oid, err := repo.ParseID(id)
	if err != nil {
		return nil, ErrDoctorNotFound
	}
	d, err := s.doctors.FindByID(ctx, oid)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrDoctorNotFound
		}
		return nil, fmt.Errorf("get doctor: %w", err)
	}
	return d, nil
}

func apply(p *repo.DoctorProfile, in ProfileInput) error {
	if in.Specialization != nil {
		p.Specialization = strings.TrimSpace(*in.Specialization)
	}
	if in.Experience != nil {
		if *in.Experience < 0 {
			return ErrInvalidExperience
		}
		p.Experience = *in.Experience
	}
	if in.Qualifications != nil {
		p.Qualifications = lo.Compact(lo.Map(in.Qualifications, func(q string, _ int) string {
			return strings.TrimSpace(q)
		}))
	}
	if in.LicenseNumber != nil {
		p.LicenseNumber = strings.TrimSpace(*in.LicenseNumber)
	}
	if in.Clinic != nil {
		p.Clinic = *in.Clinic
	}
	return nil
}

// upload stores every provided document and points docs at the new URLs.
// It returns the URLs it added and the ones they replaced. When an upload
// fails the files added so far are removed and docs is left as it was.
func (s *doctorService) upload(ctx context.Context, doctorID primitive.ObjectID, docs *repo.Documents, files Files) (added, replaced []string, err error) {
	folder := "doctors/" + doctorID.Hex()
	slots := []struct {
		fh  *multipart.FileHeader
		dst *string
	}{
		{files.ProfilePhoto, &docs.ProfilePhoto},
		{files.License, &docs.License},
		{files.Certificate, &docs.Certificate},
		{files.GovtID, &docs.GovtID},
		{files.ExperienceCert, &docs.ExperienceCert},
	}

	next := make([]string, len(slots))
	for i, slot := range slots {
		if slot.fh == nil {
			continue
		}
		res, err := s.files.Upload(ctx, folder, slot.fh)
		if err != nil {
			file.Discard(ctx, s.files, added...)
			return nil, nil, err
		}
		next[i] = res.URL
		added = append(added, res.URL)
	}

	for i, slot := range slots {
		if next[i] == "" {
			continue
		}
		if *slot.dst != "" {
			replaced = append(replaced, *slot.dst)
		}
		*slot.dst = next[i]
	}
	return added, replaced, nil
}

// credentialsChanged reports whether anything an admin checks during
// verification differs between two versions of a profile.
func credentialsChanged(before, after *repo.DoctorProfile) bool {
	b, a := before.Documents, after.Documents
	return before.LicenseNumber != after.LicenseNumber ||
		b.License != a.License ||
		b.Certificate != a.Certificate ||
		b.GovtID != a.GovtID ||
		b.ExperienceCert != a.ExperienceCert
}

func saveErr(err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return ErrDoctorNotFound
	}
	return fmt.Errorf("save profile: %w", err)
}

func toPublic(d *repo.Doctor) PublicDoctor {
	return PublicDoctor{
		ID:             d.ID.Hex(),
		FullName:       d.FullName,
		Specialization: d.Profile.Specialization,
		Experience:     d.Profile.Experience,
		Qualifications: d.Profile.Qualifications,
		ProfilePhoto:   d.Profile.Documents.ProfilePhoto,
		Clinic:         d.Profile.Clinic,
	}
}
