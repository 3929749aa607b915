package app

import (
	"go.uber.org/fx"

	"github.com/healthplus/backend/config"
	"github.com/healthplus/backend/internal/repo"
	"github.com/healthplus/backend/internal/service/appointment"
	"github.com/healthplus/backend/internal/service/auth"
	"github.com/healthplus/backend/internal/service/dashboard"
	"github.com/healthplus/backend/internal/service/doctor"
	svcfile "github.com/healthplus/backend/internal/service/file"
	"github.com/healthplus/backend/internal/service/patient"
	"github.com/healthplus/backend/internal/service/prescription"
	"github.com/healthplus/backend/internal/service/verification"
	"github.com/healthplus/backend/pkg/cache"
	"github.com/healthplus/backend/pkg/email"
	"github.com/healthplus/backend/pkg/events"
	"github.com/healthplus/backend/pkg/observability"
	pasetotoken "github.com/healthplus/backend/pkg/paseto"
	s3pkg "github.com/healthplus/backend/pkg/s3"
	"github.com/healthplus/backend/pkg/session"
	"github.com/healthplus/backend/pkg/util/otp"
	"github.com/healthplus/backend/pkg/util/password"
)

// ServiceModule provides all application service dependencies.
var ServiceModule = fx.Module("services",
	fx.Provide(
		ProvidePasetoManager,
		ProvidePasswordHasher,
		ProvideOTPGenerator,
		ProvideFileService,
		ProvideAuthService,
		ProvideVerificationService,
		ProvideDoctorService,
		ProvidePatientService,
		ProvideAppointmentService,
		ProvidePrescriptionService,
		ProvideDashboardService,
	),
)

func ProvidePasetoManager(cfg *config.Config) (*pasetotoken.Manager, error) {
	return pasetotoken.NewPasetoManager(cfg)
}

func ProvidePasswordHasher(cfg *config.Config) *password.Hasher {
	return password.NewHasher(password.FromCentralConfig(cfg.Password))
}

func ProvideOTPGenerator(cfg *config.Config) (*otp.Generator, error) {
	return otp.NewGenerator(otp.FromCentralConfig(cfg.OTP))
}

func ProvideFileService(s3 *s3pkg.Client, cfg *config.Config) svcfile.Service {
	return svcfile.New(s3, cfg.Upload)
}

type authParams struct {
	fx.In

	Cfg      *config.Config
	Store    *repo.Store
	Cache    cache.Store
	Sessions *session.Store
	Paseto   *pasetotoken.Manager
	Hasher   *password.Hasher
	OTP      *otp.Generator
	Mailer   *email.Client
	Metrics  *observability.Metrics
}

func ProvideAuthService(p authParams) auth.Service {
	return auth.New(auth.Deps{
		Store:    p.Store,
		Pending:  p.Cache,
		Sessions: p.Sessions,
		Paseto:   p.Paseto,
		Hasher:   p.Hasher,
		OTP:      p.OTP,
		Mailer:   p.Mailer,
		Metrics:  p.Metrics,
		Config:   p.Cfg.Authentication,
	})
}

func ProvideVerificationService(store *repo.Store, bus events.Bus, metrics *observability.Metrics) verification.Service {
	return verification.New(store.Doctors, bus, metrics)
}

func ProvideDoctorService(store *repo.Store, files svcfile.Service) doctor.Service {
	return doctor.New(store.Doctors, files)
}

func ProvidePatientService(store *repo.Store, sessions *session.Store) patient.Service {
	return patient.New(store.Users, sessions)
}

func ProvideAppointmentService(store *repo.Store, bus events.Bus, metrics *observability.Metrics) appointment.Service {
	return appointment.New(store, bus, metrics)
}

func ProvidePrescriptionService(store *repo.Store, files svcfile.Service) prescription.Service {
	return prescription.New(store, files)
}

func ProvideDashboardService(store *repo.Store) dashboard.Service {
	return dashboard.New(store)
}
