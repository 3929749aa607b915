package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/healthplus/backend/internal/service/actor"
	"github.com/healthplus/backend/internal/service/file"
)

func ok(c fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{"data": data})
}

func created(c fiber.Ctx, data any) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": data})
}

func noContent(c fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}

func badRequest(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

func unauthorized(c fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
}

func notFound(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": msg})
}

func conflict(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": msg})
}

func tooManyRequests(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": msg})
}

func internalError(c fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
}

func errorWithStatus(c fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

// callerFrom returns the authenticated caller set by AuthRequired.
func callerFrom(c fiber.Ctx) (actor.Actor, bool) {
	who, err := actor.FromContext(c.Context())
	return who, err == nil
}

func mapUploadError(c fiber.Ctx, err error) (error, bool) {
	switch {
	case errors.Is(err, file.ErrFileTooLarge), errors.Is(err, file.ErrUnsupportedType), errors.Is(err, file.ErrEmptyFile):
		return badRequest(c, err.Error()), true
	}
	return nil, false
}
