package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/healthplus/backend/internal/api/http/handler"
	"github.com/healthplus/backend/pkg/authorize"
)

func (r *Router) registerAuthRoutes(
	api fiber.Router,
	h *handler.AuthHandler,
	authRequired fiber.Handler,
	limit fiber.Handler,
	requirePerm permFunc,
) {
	group := api.Group("/auth", limit)
	group.Post("/signup", h.Signup)
	group.Post("/verify-otp", h.VerifyOTP)
	group.Post("/resend-otp", h.ResendOTP)
	group.Post("/login", h.Login)
	group.Post("/refresh", h.Refresh)
	group.Post("/logout", authRequired, requirePerm(authorize.ResourceSession, authorize.ActionDelete), h.Logout)

	api.Group("/admin/auth", limit).Post("/login", h.AdminLogin)

	doctorAuth := api.Group("/doctor/auth", limit)
	doctorAuth.Post("/register", h.DoctorRegister)
	doctorAuth.Post("/login", h.DoctorLogin)
}
