package middleware

import (
	"org-portal-backend/config"
	"org-portal-backend/lib/session"
	apimodels "org-portal-backend/models/api"

	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"
)

const unauthorizedMsg = "انتهت صلاحية الجلسة، يرجى تسجيل الدخول مرة أخرى"

// AuthorizationRequired validates the bearer token and initializes the request session
func AuthorizationRequired() fiber.Handler {
	return authorization("header:Authorization")
}

// WsAuthorizationRequired also accepts the token in the query, browsers cannot
// set headers on a websocket upgrade
func WsAuthorizationRequired() fiber.Handler {
	return authorization("header:Authorization,query:token")
}

func authorization(tokenLookup string) fiber.Handler {
	return jwtware.New(jwtware.Config{
		Claims:      jwt.MapClaims{},
		TokenLookup: tokenLookup,
		SigningKey: jwtware.SigningKey{
			JWTAlg: "HS256",
			Key:    []byte(config.Conf.Auth.JWTSecret),
		},
		ErrorHandler: func(ctx *fiber.Ctx, err error) error {
			return ctx.Status(fiber.StatusUnauthorized).JSON(apimodels.NewError(unauthorizedMsg))
		},
		SuccessHandler: InitSession,
	})
}

// InitSession turns the parsed token into a session context, a revoked
// session or a disabled user gets 401
func InitSession(ctx *fiber.Ctx) error {
	token, ok := ctx.Locals("user").(*jwt.Token)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(apimodels.NewError(unauthorizedMsg))
	}
	sess, err := session.Instance.Initialize(ctx.UserContext(), token.Raw)
	if err != nil {
		log.WithError(err).Debug("session initialize failed")
		return ctx.Status(fiber.StatusUnauthorized).JSON(apimodels.NewError(unauthorizedMsg))
	}
	session.SetFiberCtx(ctx, sess)
	return ctx.Next()
}
