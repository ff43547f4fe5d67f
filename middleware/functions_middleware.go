package middleware

import (
	"crypto/subtle"

	functionsclient "org-portal-backend/lib/functions/client"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// ServiceKeyRequired guards the functions API, an empty key disables it
func ServiceKeyRequired(serviceKey string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		got := ctx.Get(functionsclient.KeyHeader)
		if serviceKey == "" || subtle.ConstantTimeCompare([]byte(got), []byte(serviceKey)) != 1 {
			log.WithField("path", ctx.Path()).Warn("function call with invalid service key")
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   "invalid service key",
			})
		}
		return ctx.Next()
	}
}
