package router

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/fx"

	"github.com/healthplus/backend/config"
	"github.com/healthplus/backend/internal/api/http/handler"
	"github.com/healthplus/backend/internal/api/http/middleware"
	"github.com/healthplus/backend/internal/service/appointment"
	"github.com/healthplus/backend/internal/service/auth"
	"github.com/healthplus/backend/internal/service/dashboard"
	"github.com/healthplus/backend/internal/service/doctor"
	"github.com/healthplus/backend/internal/service/file"
	"github.com/healthplus/backend/internal/service/patient"
	"github.com/healthplus/backend/internal/service/prescription"
	"github.com/healthplus/backend/internal/service/verification"
	"github.com/healthplus/backend/pkg/authorize"
	"github.com/healthplus/backend/pkg/database"
	"github.com/healthplus/backend/pkg/observability"
	pasetotoken "github.com/healthplus/backend/pkg/paseto"
	"github.com/healthplus/backend/pkg/session"
)

// Module provides the Router to the fx graph.
var Module = fx.Module("router", fx.Provide(NewRouter))

type Params struct {
	fx.In

	Cfg       *config.Config
	Redis     *redis.Client `optional:"true"`
	Mongo     *mongo.Client `optional:"true"`
	Auth      authorize.IAuthorization
	PasetoMgr *pasetotoken.Manager
	Sessions  *session.Store

	AuthSvc         auth.Service
	VerificationSvc verification.Service
	PatientSvc      patient.Service
	DoctorSvc       doctor.Service
	AppointmentSvc  appointment.Service
	PrescriptionSvc prescription.Service
	DashboardSvc    dashboard.Service
	FileSvc         file.Service
}

type Router struct {
	p Params
}

func NewRouter(p Params) *Router {
	return &Router{p: p}
}

// permFunc builds the casbin guard for one route.
type permFunc func(authorize.Resource, authorize.Action) fiber.Handler

func (r *Router) Register(app *fiber.App) {
	// 1. Health & Metrics
	r.registerSystemRoutes(app)

	// 2. Initialize Middlewares
	authRequired := middleware.AuthRequired(r.p.PasetoMgr, r.p.Sessions)
	_, authLimit := middleware.Limiters(r.p.Cfg.Server.RateLimit, r.p.Redis)

	requirePerm := func(res authorize.Resource, act authorize.Action) fiber.Handler {
		return middleware.RequirePermission(r.p.Auth, res, act)
	}

	// 3. Initialize Handlers
	authH := handler.NewAuthHandler(r.p.AuthSvc)
	verificationH := handler.NewVerificationHandler(r.p.VerificationSvc, r.p.FileSvc)
	patientH := handler.NewPatientHandler(r.p.PatientSvc)
	dashboardH := handler.NewDashboardHandler(r.p.DashboardSvc)
	doctorH := handler.NewDoctorHandler(r.p.DoctorSvc)
	appointmentH := handler.NewAppointmentHandler(r.p.AppointmentSvc)
	prescriptionH := handler.NewPrescriptionHandler(r.p.PrescriptionSvc)

	api := app.Group("/api")

	// 4. Delegate to sub-files
	r.registerAuthRoutes(api, authH, authRequired, authLimit, requirePerm)
	r.registerAdminRoutes(api, verificationH, patientH, dashboardH, authRequired, requirePerm)
	r.registerDoctorRoutes(api, doctorH, authRequired, requirePerm)
	r.registerAppointmentRoutes(api, appointmentH, authRequired, requirePerm)
	r.registerPrescriptionRoutes(api, prescriptionH, authRequired, requirePerm)
}

func (r *Router) registerSystemRoutes(app *fiber.App) {
	app.Get(healthcheck.LivenessEndpoint, healthcheck.New())
	app.Get(healthcheck.ReadinessEndpoint, healthcheck.New(healthcheck.Config{
		Probe: func(c fiber.Ctx) bool { return r.ready(c.Context()) },
	}))
	app.Get(healthcheck.StartupEndpoint, healthcheck.New())

	if r.p.Cfg.Observability.Enabled && r.p.Cfg.Observability.Metrics.Enabled {
		path := r.p.Cfg.Observability.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		app.Get(path, adaptor.HTTPHandler(observability.Handler()))
	}
}

// ready reports whether the backing stores answer within a second.
func (r *Router) ready(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	if r.p.Mongo != nil && database.Ping(ctx, r.p.Mongo) != nil {
		return false
	}
	if r.p.Redis != nil && r.p.Redis.Ping(ctx).Err() != nil {
		return false
	}
	return true
}
