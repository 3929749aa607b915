package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthplus/backend/config"
	"github.com/healthplus/backend/internal/api/http/router"
	"github.com/healthplus/backend/internal/repo/memrepo"
	"github.com/healthplus/backend/internal/service/appointment"
	"github.com/healthplus/backend/internal/service/auth"
	"github.com/healthplus/backend/internal/service/dashboard"
	"github.com/healthplus/backend/internal/service/doctor"
	"github.com/healthplus/backend/internal/service/file"
	"github.com/healthplus/backend/internal/service/patient"
	"github.com/healthplus/backend/internal/service/prescription"
	"github.com/healthplus/backend/internal/service/servicetest"
	"github.com/healthplus/backend/internal/service/verification"
	"github.com/healthplus/backend/pkg/authorize"
	"github.com/healthplus/backend/pkg/cache"
	"github.com/healthplus/backend/pkg/events"
	"github.com/healthplus/backend/pkg/session"
	"github.com/healthplus/backend/pkg/util/otp"
)

const (
	adminEmail    = "admin@healthplus.test"
	adminPassword = "admin-pass-1"
)

type testServer struct {
	app     *fiber.App
	mailer  *servicetest.Mailer
	bus     *events.Memory
	doctors doctor.Service
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()

	cfg := &config.Config{
		Server: config.ServerConfig{Port: 5000, TimeoutSeconds: 5, Environment: "test"},
		Authentication: config.AuthenticationConfig{
			OTPTTLSeconds:     60,
			OTPMaxAttempts:    5,
			MinPasswordLength: 8,
			DefaultRegion:     "IN",
		},
		Upload: config.UploadConfig{
			MaxSizeMB:    1,
			AllowedTypes: []string{"image/png", "application/pdf"},
		},
	}

	store := memrepo.New()
	kv := cache.NewMemory(1000, time.Hour)
	sessions := session.NewStore(kv, time.Hour)
	mailer := &servicetest.Mailer{}
	bus := events.NewMemory()
	t.Cleanup(func() { _ = bus.Close() })

	enforcer, err := authorize.NewEnforcer("")
	require.NoError(t, err)
	authz, err := authorize.NewAuthorization(enforcer)
	require.NoError(t, err)
	require.NoError(t, authorize.SeedDefaultPolicies(ctx, authz))

	gen, err := otp.NewGenerator(otp.DefaultConfig())
	require.NoError(t, err)
	pasetoMgr := servicetest.Paseto(t)

	authSvc := auth.New(auth.Deps{
		Store:    store,
		Pending:  kv,
		Sessions: sessions,
		Paseto:   pasetoMgr,
		Hasher:   servicetest.Hasher(),
		OTP:      gen,
		Mailer:   mailer,
		Config:   cfg.Authentication,
	})
	_, err = authSvc.EnsureAdmin(ctx, "Root", adminEmail, adminPassword)
	require.NoError(t, err)

	files := file.New(servicetest.NewStorage(), cfg.Upload)
	doctorSvc := doctor.New(store.Doctors, files)

	r := router.NewRouter(router.Params{
		Cfg:             cfg,
		Auth:            authz,
		PasetoMgr:       pasetoMgr,
		Sessions:        sessions,
		AuthSvc:         authSvc,
		VerificationSvc: verification.New(store.Doctors, bus, nil),
		PatientSvc:      patient.New(store.Users, sessions),
		DoctorSvc:       doctorSvc,
		AppointmentSvc:  appointment.New(store, bus, nil),
		PrescriptionSvc: prescription.New(store, files),
		DashboardSvc:    dashboard.New(store),
		FileSvc:         files,
	})

	return &testServer{app: NewApp(cfg, r, nil, false), mailer: mailer, bus: bus, doctors: doctorSvc}
}

// do sends a JSON request and decodes the response envelope.
func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := s.app.Test(req, fiber.TestConfig{Timeout: 5 * time.Second})
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), "body: %s", raw)
	}
	return resp.StatusCode, out
}

func (s *testServer) login(t *testing.T, path, email, pass string) string {
	t.Helper()
	status, body := s.do(t, fiber.MethodPost, path, "", fiber.Map{"email": email, "password": pass})
	require.Equal(t, fiber.StatusOK, status, "login body: %v", body)

	data := body["data"].(map[string]any)
	tokens := data["tokens"].(map[string]any)
	return tokens["accessToken"].(string)
}

// registerDoctor creates a pending doctor and returns its id and access token.
func (s *testServer) registerDoctor(t *testing.T, email string) (string, string) {
	t.Helper()
	status, body := s.do(t, fiber.MethodPost, "/api/doctor/auth/register", "", fiber.Map{
		"fullName": "Dr. Asha Rao",
		"email":    email,
		"password": "doctor-pass-1",
	})
	require.Equal(t, fiber.StatusCreated, status, "register body: %v", body)
	id := body["data"].(map[string]any)["id"].(string)
	return id, s.login(t, "/api/doctor/auth/login", email, "doctor-pass-1")
}

// signupPatient runs the OTP signup flow and returns the patient access token.
func (s *testServer) signupPatient(t *testing.T, email string) string {
	t.Helper()
	status, body := s.do(t, fiber.MethodPost, "/api/auth/signup", "", fiber.Map{
		"fullName": "Ravi Kumar",
		"email":    email,
		"password": "patient-pass-1",
		"role":     "patient",
	})
	require.Equal(t, fiber.StatusOK, status, "signup body: %v", body)

	code := servicetest.OTPFromMailer(t, s.mailer)
	status, body = s.do(t, fiber.MethodPost, "/api/auth/verify-otp", "", fiber.Map{"email": email, "otp": code})
	require.Equal(t, fiber.StatusCreated, status, "verify body: %v", body)

	return s.login(t, "/api/auth/login", email, "patient-pass-1")
}

func TestLiveness(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(fiber.MethodGet, "/livez", nil)
	resp, err := s.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))
}

func TestAdminRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, fiber.MethodGet, "/api/admin/doctors", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Contains(t, body, "error")

	status, _ = s.do(t, fiber.MethodGet, "/api/admin/doctors", "not-a-token", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestPatientLoginRejectsAdmin(t *testing.T) {
	s := newTestServer(t)

	status, _ := s.do(t, fiber.MethodPost, "/api/auth/login", "", fiber.Map{"email": adminEmail, "password": adminPassword})
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = s.do(t, fiber.MethodPost, "/api/admin/auth/login", "", fiber.Map{"email": adminEmail, "password": "wrong-pass"})
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestNonAdminCannotReachAdminRoutes(t *testing.T) {
	s := newTestServer(t)
	patientToken := s.signupPatient(t, "ravi@example.com")
	_, doctorToken := s.registerDoctor(t, "asha@example.com")

	for _, token := range []string{patientToken, doctorToken} {
		status, _ := s.do(t, fiber.MethodGet, "/api/admin/doctors/pending", token, nil)
		assert.Equal(t, fiber.StatusForbidden, status)
		status, _ = s.do(t, fiber.MethodGet, "/api/admin/dashboard/summary", token, nil)
		assert.Equal(t, fiber.StatusForbidden, status)
	}
}

func TestDoctorVerificationFlow(t *testing.T) {
	s := newTestServer(t)
	adminToken := s.login(t, "/api/admin/auth/login", adminEmail, adminPassword)
	doctorID, _ := s.registerDoctor(t, "asha@example.com")

	status, body := s.do(t, fiber.MethodGet, "/api/admin/doctors/pending", adminToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["data"], 1)

	// Reject without a reason is refused and leaves the doctor pending.
	status, _ = s.do(t, fiber.MethodPost, "/api/admin/doctors/"+doctorID+"/reject", adminToken, fiber.Map{"reason": "  "})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = s.do(t, fiber.MethodPost, "/api/admin/doctors/"+doctorID+"/approve", adminToken, nil)
	require.Equal(t, fiber.StatusOK, status, "approve body: %v", body)
	assert.Equal(t, "verified", body["data"].(map[string]any)["verificationStatus"])

	status, _ = s.do(t, fiber.MethodPost, "/api/admin/doctors/"+doctorID+"/approve", adminToken, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = s.do(t, fiber.MethodPost, "/api/admin/doctors/"+doctorID+"/reject", adminToken, fiber.Map{"reason": "license expired"})
	require.Equal(t, fiber.StatusOK, status)
	data := body["data"].(map[string]any)
	assert.Equal(t, "rejected", data["verificationStatus"])
	assert.Equal(t, "license expired", data["rejectionReason"])

	status, body = s.do(t, fiber.MethodGet, "/api/admin/doctors/statistics", adminToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	stats := body["data"].(map[string]any)
	assert.EqualValues(t, 1, stats["total"])
	assert.EqualValues(t, 1, stats["rejected"])

	status, _ = s.do(t, fiber.MethodGet, "/api/admin/doctors/"+"0123456789abcdef01234567", adminToken, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestAdminDoctorViewSignsDocuments(t *testing.T) {
	s := newTestServer(t)
	adminToken := s.login(t, "/api/admin/auth/login", adminEmail, adminPassword)
	doctorID, _ := s.registerDoctor(t, "asha@example.com")

	specialization, license, experience := "Dermatology", "MCI-777", 6
	_, err := s.doctors.CreateProfile(context.Background(), doctorID, doctor.ProfileInput{
		Specialization: &specialization,
		LicenseNumber:  &license,
		Experience:     &experience,
	}, doctor.Files{
		License:     servicetest.FileHeader(t, "license.pdf", servicetest.PDF),
		Certificate: servicetest.FileHeader(t, "cert.pdf", servicetest.PDF),
	})
	require.NoError(t, err)

	status, body := s.do(t, fiber.MethodGet, "/api/admin/doctors/"+doctorID, adminToken, nil)
	require.Equal(t, fiber.StatusOK, status, "body: %v", body)
	data := body["data"].(map[string]any)
	assert.Equal(t, "Dr. Asha Rao", data["fullName"])
	assert.Equal(t, "pending", data["verificationStatus"])

	links := data["documentLinks"].(map[string]any)
	assert.Len(t, links, 2)
	assert.Contains(t, links["license"], "?signed=1")
	assert.Contains(t, links["certificate"], "?signed=1")
}

func TestPatientBooksVerifiedDoctor(t *testing.T) {
	s := newTestServer(t)
	adminToken := s.login(t, "/api/admin/auth/login", adminEmail, adminPassword)
	doctorID, doctorToken := s.registerDoctor(t, "asha@example.com")
	patientToken := s.signupPatient(t, "ravi@example.com")

	booking := fiber.Map{"doctorId": doctorID, "date": "2030-01-15", "time": "10:30", "notes": "follow-up"}

	// Pending doctors cannot be booked.
	status, _ := s.do(t, fiber.MethodPost, "/api/appointments", patientToken, booking)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = s.do(t, fiber.MethodPost, "/api/admin/doctors/"+doctorID+"/approve", adminToken, nil)
	require.Equal(t, fiber.StatusOK, status)

	status, body := s.do(t, fiber.MethodPost, "/api/appointments", patientToken, booking)
	require.Equal(t, fiber.StatusCreated, status, "book body: %v", body)
	apptID := body["data"].(map[string]any)["id"].(string)

	status, body = s.do(t, fiber.MethodGet, "/api/appointments", doctorToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["data"], 1)

	status, body = s.do(t, fiber.MethodPatch, "/api/appointments/"+apptID, doctorToken, fiber.Map{"status": "approved"})
	require.Equal(t, fiber.StatusOK, status, "update body: %v", body)
	assert.Equal(t, "approved", body["data"].(map[string]any)["status"])

	// Patients may only cancel.
	status, _ = s.do(t, fiber.MethodPatch, "/api/appointments/"+apptID, patientToken, fiber.Map{"status": "completed"})
	assert.Equal(t, fiber.StatusForbidden, status)

	// Admins cannot book on a patient's behalf.
	status, _ = s.do(t, fiber.MethodPost, "/api/appointments", adminToken, booking)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, body = s.do(t, fiber.MethodGet, "/api/admin/dashboard/summary", adminToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	summary := body["data"].(map[string]any)
	assert.EqualValues(t, 1, summary["doctors"])
	assert.EqualValues(t, 1, summary["patients"])
	assert.EqualValues(t, 1, summary["appointments"])
}

func TestLogoutRevokesSession(t *testing.T) {
	s := newTestServer(t)
	token := s.signupPatient(t, "ravi@example.com")

	status, _ := s.do(t, fiber.MethodGet, "/api/appointments", token, nil)
	require.Equal(t, fiber.StatusOK, status)

	status, _ = s.do(t, fiber.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, fiber.StatusNoContent, status)

	status, _ = s.do(t, fiber.MethodGet, "/api/appointments", token, nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestPatientBlocking(t *testing.T) {
	s := newTestServer(t)
	adminToken := s.login(t, "/api/admin/auth/login", adminEmail, adminPassword)
	patientToken := s.signupPatient(t, "ravi@example.com")

	status, _ := s.do(t, fiber.MethodGet, "/api/appointments", patientToken, nil)
	require.Equal(t, fiber.StatusOK, status)

	status, body := s.do(t, fiber.MethodGet, "/api/admin/patients", adminToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	list := body["data"].([]any)
	require.Len(t, list, 1)
	patientID := list[0].(map[string]any)["id"].(string)

	status, _ = s.do(t, fiber.MethodPatch, "/api/admin/patients/block/"+patientID, adminToken, nil)
	require.Equal(t, fiber.StatusOK, status)

	// tokens issued before the block stop working
	status, _ = s.do(t, fiber.MethodGet, "/api/appointments", patientToken, nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = s.do(t, fiber.MethodPost, "/api/auth/login", "", fiber.Map{"email": "ravi@example.com", "password": "patient-pass-1"})
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = s.do(t, fiber.MethodPatch, "/api/admin/patients/unblock/"+patientID, adminToken, nil)
	require.Equal(t, fiber.StatusOK, status)

	status, _ = s.do(t, fiber.MethodPatch, "/api/admin/patients/block/not-an-id", adminToken, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
}
