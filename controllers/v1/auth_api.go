package apiv1

import (
	"errors"

	"org-portal-backend/controllers"
	usershandler "org-portal-backend/lib/users"
	"org-portal-backend/middleware"
	apimodels "org-portal-backend/models/api"
	authapimodels "org-portal-backend/models/api/auth"

	"github.com/gofiber/fiber/v2"
)

const (
	invalidCredentialsMsg = "البريد الإلكتروني أو كلمة المرور غير صحيحة"
	sessionExpiredMsg     = "انتهت صلاحية الجلسة، يرجى تسجيل الدخول مرة أخرى"
)

type authApiController struct {
	controllers.BaseAPIController
}

func InitAuthApiRouters(app *fiber.App) {
	controller := authApiController{}
	app.Route("auth", func(router fiber.Router) {
		router.Post("login", controller.login)
		router.Post("refresh", controller.refreshToken)
		router.Use(middleware.AuthorizationRequired())
		router.Get("me", controller.me)
		router.Post("logout", controller.logout)
	})
}

// @Summary Login
// @Tags Auth
// @Description Login with email and password, opens a session
// @Param	body				body		authapimodels.LoginRequest	true	"request body"
// @Success 200 {object} apimodels.Response{data=authapimodels.JWTResponse}
// @Failure 400 {object} apimodels.Response
// @Failure 401 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/auth/login [post]
func (c *authApiController) login(ctx *fiber.Ctx) error {
	var payload authapimodels.LoginRequest
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err := payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	resp, err := usershandler.Instance.Login(ctx.UserContext(), payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, usershandler.ErrUnauthorized) {
			return ctx.Status(fiber.StatusUnauthorized).JSON(apimodels.NewError(invalidCredentialsMsg))
		}
		return c.SendError(ctx, c.GetLogger(ctx), err, "تعذر تسجيل الدخول")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(resp))
}

// @Summary Refresh tokens
// @Tags Auth
// @Description Issue a new token pair for a live session
// @Param	body				body		authapimodels.JWTRefreshRequest	true	"request body"
// @Success 200 {object} apimodels.Response{data=authapimodels.JWTResponse}
// @Failure 400 {object} apimodels.Response
// @Failure 401 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/auth/refresh [post]
func (c *authApiController) refreshToken(ctx *fiber.Ctx) error {
	var payload authapimodels.JWTRefreshRequest
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err := payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	resp, err := usershandler.Instance.RefreshToken(ctx.UserContext(), payload.RefreshToken)
	if err != nil {
		if errors.Is(err, usershandler.ErrUnauthorized) {
			return ctx.Status(fiber.StatusUnauthorized).JSON(apimodels.NewError(sessionExpiredMsg))
		}
		return c.SendError(ctx, c.GetLogger(ctx), err, "تعذر تحديث الجلسة")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(resp))
}

// @Summary Current user
// @Tags Auth
// @Param   Authorization		header		string	true	"Authorization token"
// @Success 200 {object} apimodels.Response{data=session.User}
// @Failure 401 {object} apimodels.Response
// @router /api/v1/auth/me [get]
func (c *authApiController) me(ctx *fiber.Ctx) error {
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(c.GetUser(ctx)))
}

// @Summary Logout
// @Tags Auth
// @Description Tears the session down, its refresh token stops working
// @Param   Authorization		header		string	true	"Authorization token"
// @Success 200 {object} apimodels.Response
// @Failure 401 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/auth/logout [post]
func (c *authApiController) logout(ctx *fiber.Ctx) error {
	sess := c.GetSession(ctx)
	if err := usershandler.Instance.Logout(ctx.UserContext(), sess.ID()); err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "تعذر تسجيل الخروج")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(nil))
}
