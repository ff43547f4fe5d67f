package middleware

import (
	"org-portal-backend/lib/session"
	"org-portal-backend/models"
	apimodels "org-portal-backend/models/api"

	"github.com/gofiber/fiber/v2"
)

const forbiddenMsg = "العملية غير متاحة"

func AdminRequired() fiber.Handler {
	return func(ctx *fiber.Ctx) (err error) {
		user := session.FromFiberCtx(ctx).User()
		if user == nil || !user.IsAdmin {
			return ctx.Status(fiber.StatusForbidden).JSON(apimodels.NewError(forbiddenMsg))
		}
		return ctx.Next()
	}
}

func GetUserID(ctx *fiber.Ctx) string {
	if user := session.FromFiberCtx(ctx).User(); user != nil {
		return user.ID
	}
	return ""
}

func GetUserRole(ctx *fiber.Ctx) models.UserRole {
	if user := session.FromFiberCtx(ctx).User(); user != nil {
		return user.Role
	}
	return ""
}
