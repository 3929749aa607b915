package doctor

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/healthplus/backend/config"
	"github.com/healthplus/backend/internal/repo"
	"github.com/healthplus/backend/internal/repo/memrepo"
	"github.com/healthplus/backend/internal/service/file"
	"github.com/healthplus/backend/internal/service/servicetest"
)

func setup(t *testing.T) (Service, *repo.Store) {
	t.Helper()
	svc, store, _ := setupWithObjects(t)
	return svc, store
}

func setupWithObjects(t *testing.T) (Service, *repo.Store, *servicetest.Storage) {
	t.Helper()
	store := memrepo.New()
	objects := servicetest.NewStorage()
	files := file.New(objects, config.UploadConfig{MaxSizeMB: 10})
	return New(store.Doctors, files), store, objects
}

func addDoctor(t *testing.T, store *repo.Store, status repo.VerificationStatus, reason *string) *repo.Doctor {
	t.Helper()
	d := &repo.Doctor{FullName: "Dr Mehta", Email: primitive.NewObjectID().Hex() + "@x.io", VerificationStatus: status, RejectionReason: reason}
	require.NoError(t, store.Doctors.Create(context.Background(), d))
	return d
}

func ptr[T any](v T) *T { return &v }

func fullInput() ProfileInput {
	return ProfileInput{
		Specialization: ptr("Cardiology"),
		Experience:     ptr(12),
		Qualifications: []string{"MBBS", " MD ", ""},
		LicenseNumber:  ptr("MCI-12345"),
		Clinic:         &repo.Clinic{Name: "Heart Care", City: "Pune"},
	}
}

func fullFiles(t *testing.T) Files {
	return Files{
		ProfilePhoto: servicetest.FileHeader(t, "me.png", servicetest.PNG),
		License:      servicetest.FileHeader(t, "license.pdf", servicetest.PDF),
		Certificate:  servicetest.FileHeader(t, "cert.pdf", servicetest.PDF),
	}
}

func TestCreateProfile(t *testing.T) {
	svc, store := setup(t)
	ctx := context.Background()
	d := addDoctor(t, store, repo.StatusPending, nil)

	got, err := svc.CreateProfile(ctx, d.ID.Hex(), fullInput(), fullFiles(t))
	require.NoError(t, err)
	require.NotNil(t, got.Profile)
	assert.Equal(t, "Cardiology", got.Profile.Specialization)
	assert.Equal(t, 12, got.Profile.Experience)
	assert.Equal(t, []string{"MBBS", "MD"}, got.Profile.Qualifications)
	assert.Contains(t, got.Profile.Documents.License, "uploads/doctors/"+d.ID.Hex())
	assert.NotEmpty(t, got.Profile.Documents.Certificate)
	assert.NotEmpty(t, got.Profile.Documents.ProfilePhoto)
	assert.Empty(t, got.Profile.Documents.GovtID)
	assert.Equal(t, repo.StatusPending, got.VerificationStatus)

	_, err = svc.CreateProfile(ctx, d.ID.Hex(), fullInput(), fullFiles(t))
	assert.ErrorIs(t, err, ErrProfileExists)
}

func TestCreateProfileValidation(t *testing.T) {
	svc, store := setup(t)
	ctx := context.Background()
	d := addDoctor(t, store, repo.StatusPending, nil)

	files := fullFiles(t)
	files.Certificate = nil
	_, err := svc.CreateProfile(ctx, d.ID.Hex(), fullInput(), files)
	assert.ErrorIs(t, err, ErrDocumentsRequired)

	in := fullInput()
	in.LicenseNumber = nil
	_, err = svc.CreateProfile(ctx, d.ID.Hex(), in, fullFiles(t))
	assert.ErrorIs(t, err, ErrMissingFields)

	in = fullInput()
	in.Experience = ptr(-1)
	_, err = svc.CreateProfile(ctx, d.ID.Hex(), in, fullFiles(t))
	assert.ErrorIs(t, err, ErrInvalidExperience)

	_, err = svc.CreateProfile(ctx, primitive.NewObjectID().Hex(), fullInput(), fullFiles(t))
	assert.ErrorIs(t, err, ErrDoctorNotFound)

	stored, _ := store.Doctors.FindByID(ctx, d.ID)
	assert.Nil(t, stored.Profile)
}

func TestGetProfile(t *testing.T) {
	svc, store := setup(t)
	ctx := context.Background()
	d := addDoctor(t, store, repo.StatusPending, nil)

	_, err := svc.GetProfile(ctx, d.ID.Hex())
	assert.ErrorIs(t, err, ErrProfileNotFound)

	_, err = svc.CreateProfile(ctx, d.ID.Hex(), fullInput(), fullFiles(t))
	require.NoError(t, err)

	got, err := svc.GetProfile(ctx, d.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "MCI-12345", got.Profile.LicenseNumber)
}

func TestUpdateProfilePartial(t *testing.T) {
	svc, store, objects := setupWithObjects(t)
	ctx := context.Background()
	d := addDoctor(t, store, repo.StatusPending, nil)
	created, err := svc.CreateProfile(ctx, d.ID.Hex(), fullInput(), fullFiles(t))
	require.NoError(t, err)
	oldLicense := created.Profile.Documents.License
	require.Len(t, objects.Objects, 3)

	got, err := svc.UpdateProfile(ctx, d.ID.Hex(),
		ProfileInput{Experience: ptr(13)},
		Files{License: servicetest.FileHeader(t, "new.pdf", servicetest.PDF)})
	require.NoError(t, err)
	assert.Equal(t, 13, got.Profile.Experience)
	assert.Equal(t, "Cardiology", got.Profile.Specialization)
	assert.NotEqual(t, oldLicense, got.Profile.Documents.License)
	assert.Equal(t, created.Profile.Documents.Certificate, got.Profile.Documents.Certificate)

	// the replaced license is removed from storage
	assert.Len(t, objects.Objects, 3)
	assert.NotContains(t, objects.Objects, strings.TrimPrefix(oldLicense, "https://files.test/"))
}

func TestUpdateProfileVerifiedDoctor(t *testing.T) {
	svc, store := setup(t)
	ctx := context.Background()
	d := addDoctor(t, store, repo.StatusPending, nil)
	_, err := svc.CreateProfile(ctx, d.ID.Hex(), fullInput(), fullFiles(t))
	require.NoError(t, err)
	_, err = store.Doctors.Transition(ctx, d.ID, repo.StatusPending, repo.StatusVerified, nil)
	require.NoError(t, err)

	// non-credential edits keep the approval
	got, err := svc.UpdateProfile(ctx, d.ID.Hex(), ProfileInput{Experience: ptr(14)},
		Files{ProfilePhoto: servicetest.FileHeader(t, "me.png", servicetest.PNG)})
	require.NoError(t, err)
	assert.Equal(t, repo.StatusVerified, got.VerificationStatus)

	// a new license needs a fresh review
	got, err = svc.UpdateProfile(ctx, d.ID.Hex(), ProfileInput{},
		Files{License: servicetest.FileHeader(t, "license2.pdf", servicetest.PDF)})
	require.NoError(t, err)
	assert.Equal(t, repo.StatusPending, got.VerificationStatus)

	_, err = store.Doctors.Transition(ctx, d.ID, repo.StatusPending, repo.StatusVerified, nil)
	require.NoError(t, err)
	got, err = svc.UpdateProfile(ctx, d.ID.Hex(), ProfileInput{LicenseNumber: ptr("MCI-99999")}, Files{})
	require.NoError(t, err)
	assert.Equal(t, repo.StatusPending, got.VerificationStatus)
}

func TestCreateProfileCleansUpOnFailedUpload(t *testing.T) {
	svc, store, objects := setupWithObjects(t)
	ctx := context.Background()
	d := addDoctor(t, store, repo.StatusPending, nil)

	files := fullFiles(t)
	files.Certificate = servicetest.FileHeader(t, "cert.pdf", []byte("<html>not a pdf</html>"))
	_, err := svc.CreateProfile(ctx, d.ID.Hex(), fullInput(), files)
	assert.ErrorIs(t, err, file.ErrUnsupportedType)
	assert.Empty(t, objects.Objects)

	stored, _ := store.Doctors.FindByID(ctx, d.ID)
	assert.Nil(t, stored.Profile)
}

func TestUpdateProfileResubmitsRejected(t *testing.T) {
	svc, store := setup(t)
	ctx := context.Background()
	d := addDoctor(t, store, repo.StatusPending, nil)
	_, err := svc.CreateProfile(ctx, d.ID.Hex(), fullInput(), fullFiles(t))
	require.NoError(t, err)

	_, err = store.Doctors.Transition(ctx, d.ID, repo.StatusPending, repo.StatusRejected, ptr("certificate unreadable"))
	require.NoError(t, err)

	got, err := svc.UpdateProfile(ctx, d.ID.Hex(), ProfileInput{},
		Files{Certificate: servicetest.FileHeader(t, "cert2.pdf", servicetest.PDF)})
	require.NoError(t, err)
	assert.Equal(t, repo.StatusPending, got.VerificationStatus)
	assert.Nil(t, got.RejectionReason)
}

func TestPublicListing(t *testing.T) {
	svc, store := setup(t)
	ctx := context.Background()

	verified := addDoctor(t, store, repo.StatusPending, nil)
	_, err := svc.CreateProfile(ctx, verified.ID.Hex(), fullInput(), fullFiles(t))
	require.NoError(t, err)
	_, err = store.Doctors.Transition(ctx, verified.ID, repo.StatusPending, repo.StatusVerified, nil)
	require.NoError(t, err)

	pending := addDoctor(t, store, repo.StatusPending, nil)
	_, err = svc.CreateProfile(ctx, pending.ID.Hex(), fullInput(), fullFiles(t))
	require.NoError(t, err)

	list, err := svc.ListVerified(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, verified.ID.Hex(), list[0].ID)
	assert.Equal(t, "Heart Care", list[0].Clinic.Name)

	_, err = svc.GetPublic(ctx, verified.ID.Hex())
	require.NoError(t, err)
	_, err = svc.GetPublic(ctx, pending.ID.Hex())
	assert.ErrorIs(t, err, ErrDoctorNotFound)
	_, err = svc.GetPublic(ctx, "zzz")
	assert.ErrorIs(t, err, ErrDoctorNotFound)
}
