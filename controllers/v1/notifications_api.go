package apiv1

import (
	"org-portal-backend/controllers"
	notificationhandler "org-portal-backend/lib/notification"
	apimodels "org-portal-backend/models/api"
	notificationapimodels "org-portal-backend/models/api/notification"

	"github.com/gofiber/fiber/v2"
)

type notificationsApiController struct {
	controllers.BaseAPIController
}

func InitNotificationsApiRouters(app *fiber.App) {
	controller := notificationsApiController{}
	app.Route("notifications", func(router fiber.Router) {
		router.Get("list", controller.list)
		router.Put("read", controller.read)
	})
}

// @Summary Notifications list
// @Tags Notifications
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   unread				query		bool	false	"only unread"
// @Success 200 {object} apimodels.Response{data=[]notificationapimodels.NotificationView}
// @Failure 500 {object} apimodels.Response
// @router /api/v1/notifications/list [get]
func (c *notificationsApiController) list(ctx *fiber.Ctx) error {
	list, err := notificationhandler.Instance.List(ctx.UserContext(), c.GetUser(ctx).ID, ctx.QueryBool("unread"))
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "تعذر تحميل الإشعارات")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(list))
}

// @Summary Mark notifications read
// @Tags Notifications
// @Param   Authorization		header		string									true	"Authorization token"
// @Param	body				body		notificationapimodels.MarkReadRequest	true	"request body"
// @Success 200 {object} apimodels.Response{data=int}
// @Failure 400 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/notifications/read [put]
func (c *notificationsApiController) read(ctx *fiber.Ctx) error {
	var payload notificationapimodels.MarkReadRequest
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err := payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	updated, err := notificationhandler.Instance.MarkRead(ctx.UserContext(), c.GetUser(ctx).ID, payload.IDs)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "تعذر تحديث الإشعارات")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(updated))
}
