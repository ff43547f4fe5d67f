package functionsapi

import (
	"errors"

	"org-portal-backend/config"
	"org-portal-backend/controllers"
	approvalhandler "org-portal-backend/lib/approval"
	notificationhandler "org-portal-backend/lib/notification"
	"org-portal-backend/lib/reminder"
	usershandler "org-portal-backend/lib/users"
	workspacehandler "org-portal-backend/lib/workspace"
	"org-portal-backend/middleware"
	notificationapimodels "org-portal-backend/models/api/notification"
	userapimodels "org-portal-backend/models/api/user"
	workspaceapimodels "org-portal-backend/models/api/workspace"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// Response is the envelope every function answers with
type Response struct {
	Success bool        `json:"success"`
	Error   string      `json:"error,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type fixStatusRequest struct {
	RequestID string `json:"requestId"`
}

type getWorkspaceRequest struct {
	WorkspaceID string `json:"workspaceId"`
}

type functionsApiController struct {
	controllers.BaseAPIController
}

func InitFunctionsApiRouters(app *fiber.App) {
	InitFunctionsApiRoutersWithKey(app, config.Conf.Functions.ServiceKey)
}

func InitFunctionsApiRoutersWithKey(app *fiber.App, serviceKey string) {
	controller := functionsApiController{}
	app.Use(cors.New(cors.Config{
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Function-Key",
		AllowMethods: "POST, OPTIONS",
	}))
	app.Use(middleware.ServiceKeyRequired(serviceKey))
	app.Post("delete-workspace", controller.deleteWorkspace)
	app.Post("send-notification", controller.sendNotification)
	app.Post("resend-notification", controller.resendNotification)
	app.Post("schedule-notifications", controller.scheduleNotifications)
	app.Post("manage-users", controller.manageUsers)
	app.Post("fix-request-status", controller.fixRequestStatus)
	app.Post("get-workspace", controller.getWorkspace)
}

func fail(ctx *fiber.Ctx, status int, msg string) error {
	return ctx.Status(status).JSON(Response{Error: msg})
}

func ok(ctx *fiber.Ctx, data interface{}) error {
	return ctx.Status(fiber.StatusOK).JSON(Response{Success: true, Data: data})
}

func (c *functionsApiController) internalError(ctx *fiber.Ctx, err error, msg string) error {
	c.GetLogger(ctx).WithError(err).WithField("user_msg", msg).Error("function failed")
	return fail(ctx, fiber.StatusInternalServerError, msg)
}

// @Summary delete-workspace
// @Tags Functions
// @Description Fallback path of the workspace delete, statements run one by one
// @Param   X-Function-Key		header		string									true	"service key"
// @Param	body				body		workspaceapimodels.DeleteFunctionRequest	true	"request body"
// @Success 200 {object} workspaceapimodels.DeleteFunctionResponse
// @Failure 400 {object} workspaceapimodels.DeleteFunctionResponse
// @Failure 401
// @Failure 500 {object} workspaceapimodels.DeleteFunctionResponse
// @router /functions/v1/delete-workspace [post]
func (c *functionsApiController) deleteWorkspace(ctx *fiber.Ctx) error {
	var payload workspaceapimodels.DeleteFunctionRequest
	if err := c.BodyParser(ctx, &payload); err != nil {
		return fail(ctx, fiber.StatusBadRequest, err.Error())
	}
	if err := payload.Validate(); err != nil {
		return fail(ctx, fiber.StatusBadRequest, err.Error())
	}
	hMsg, err := workspacehandler.Instance.DeleteAsService(ctx.UserContext(), payload.WorkspaceID, payload.UserID)
	if err != nil {
		return c.internalError(ctx, err, "تعذر حذف مساحة العمل")
	}
	if hMsg != "" {
		return fail(ctx, fiber.StatusBadRequest, hMsg)
	}
	return ctx.Status(fiber.StatusOK).JSON(workspaceapimodels.DeleteFunctionResponse{Success: true})
}

// @Summary send-notification
// @Tags Functions
// @Description Stores the notification and delivers it over the requested channels
// @Param   X-Function-Key		header		string								true	"service key"
// @Param	body				body		notificationapimodels.SendRequest	true	"request body"
// @Success 200 {object} Response{data=notificationapimodels.SendResult}
// @Failure 400 {object} Response
// @Failure 401
// @Failure 500 {object} Response
// @router /functions/v1/send-notification [post]
func (c *functionsApiController) sendNotification(ctx *fiber.Ctx) error {
	var payload notificationapimodels.SendRequest
	if err := c.BodyParser(ctx, &payload); err != nil {
		return fail(ctx, fiber.StatusBadRequest, err.Error())
	}
	if err := payload.Validate(); err != nil {
		return fail(ctx, fiber.StatusBadRequest, err.Error())
	}
	result, err := notificationhandler.Instance.Send(ctx.UserContext(), payload)
	if err != nil {
		return c.internalError(ctx, err, "تعذر إرسال الإشعار")
	}
	return ok(ctx, result)
}

// @Summary resend-notification
// @Tags Functions
// @Description Delivers again over the channels that failed before
// @Param   X-Function-Key		header		string								true	"service key"
// @Param	body				body		notificationapimodels.ResendRequest	true	"request body"
// @Success 200 {object} Response{data=notificationapimodels.SendResult}
// @Failure 400 {object} Response
// @Failure 401
// @Failure 500 {object} Response
// @router /functions/v1/resend-notification [post]
func (c *functionsApiController) resendNotification(ctx *fiber.Ctx) error {
	var payload notificationapimodels.ResendRequest
	if err := c.BodyParser(ctx, &payload); err != nil {
		return fail(ctx, fiber.StatusBadRequest, err.Error())
	}
	if err := payload.Validate(); err != nil {
		return fail(ctx, fiber.StatusBadRequest, err.Error())
	}
	result, hMsg, err := notificationhandler.Instance.Resend(ctx.UserContext(), payload)
	if err != nil {
		return c.internalError(ctx, err, "تعذر إعادة إرسال الإشعار")
	}
	if hMsg != "" {
		return fail(ctx, fiber.StatusBadRequest, hMsg)
	}
	return ok(ctx, result)
}

// @Summary schedule-notifications
// @Tags Functions
// @Description Runs one deadline reminder pass
// @Param   X-Function-Key		header		string	true	"service key"
// @Success 200 {object} Response{data=notificationapimodels.ReminderRunResult}
// @Failure 401
// @Failure 500 {object} Response
// @router /functions/v1/schedule-notifications [post]
func (c *functionsApiController) scheduleNotifications(ctx *fiber.Ctx) error {
	result, err := reminder.Instance.RunOnce(ctx.UserContext())
	if err != nil {
		return c.internalError(ctx, err, "تعذر تشغيل التذكير بالمواعيد")
	}
	return ok(ctx, result)
}

// @Summary manage-users
// @Tags Functions
// @Param   X-Function-Key		header		string						true	"service key"
// @Param	body				body		userapimodels.ManageRequest	true	"request body"
// @Success 200 {object} Response
// @Failure 400 {object} Response
// @Failure 401
// @Failure 500 {object} Response
// @router /functions/v1/manage-users [post]
func (c *functionsApiController) manageUsers(ctx *fiber.Ctx) error {
	var payload userapimodels.ManageRequest
	if err := c.BodyParser(ctx, &payload); err != nil {
		return fail(ctx, fiber.StatusBadRequest, err.Error())
	}
	if err := payload.Validate(); err != nil {
		return fail(ctx, fiber.StatusBadRequest, err.Error())
	}
	var hMsg string
	var err error
	switch payload.Action {
	case userapimodels.ManageAssignRole:
		hMsg, err = usershandler.Instance.AssignRole(ctx.UserContext(), payload.UserID, payload.RoleID)
	case userapimodels.ManageSoftDelete:
		hMsg, err = usershandler.Instance.SoftDelete(ctx.UserContext(), payload.UserID)
	}
	if err != nil {
		return c.internalError(ctx, err, "تعذر تحديث المستخدم")
	}
	if hMsg != "" {
		return fail(ctx, fiber.StatusBadRequest, hMsg)
	}
	return ok(ctx, nil)
}

// @Summary fix-request-status
// @Tags Functions
// @Param   X-Function-Key		header		string				true	"service key"
// @Param	body				body		fixStatusRequest	true	"request body"
// @Success 200 {object} Response{data=requestapimodels.FixStatusResult}
// @Failure 400 {object} Response
// @Failure 401
// @Failure 500 {object} Response
// @router /functions/v1/fix-request-status [post]
func (c *functionsApiController) fixRequestStatus(ctx *fiber.Ctx) error {
	var payload fixStatusRequest
	if err := c.BodyParser(ctx, &payload); err != nil {
		return fail(ctx, fiber.StatusBadRequest, err.Error())
	}
	if payload.RequestID == "" {
		return fail(ctx, fiber.StatusBadRequest, "requestId is required")
	}
	result, hMsg, err := approvalhandler.Instance.FixStatus(ctx.UserContext(), payload.RequestID)
	if err != nil {
		return c.internalError(ctx, err, "تعذر تصحيح حالة الطلب")
	}
	if hMsg != "" {
		return fail(ctx, fiber.StatusBadRequest, hMsg)
	}
	return ok(ctx, result)
}

// @Summary get-workspace
// @Tags Functions
// @Param   X-Function-Key		header		string				true	"service key"
// @Param	body				body		getWorkspaceRequest	true	"request body"
// @Success 200 {object} Response{data=workspaceapimodels.WorkspaceView}
// @Failure 400 {object} Response
// @Failure 401
// @Failure 404 {object} Response
// @Failure 500 {object} Response
// @router /functions/v1/get-workspace [post]
func (c *functionsApiController) getWorkspace(ctx *fiber.Ctx) error {
	var payload getWorkspaceRequest
	if err := c.BodyParser(ctx, &payload); err != nil {
		return fail(ctx, fiber.StatusBadRequest, err.Error())
	}
	if payload.WorkspaceID == "" {
		return fail(ctx, fiber.StatusBadRequest, "workspaceId is required")
	}
	view, err := workspacehandler.Instance.Get(ctx.UserContext(), payload.WorkspaceID)
	if err != nil {
		if errors.Is(err, workspacehandler.ErrNotFound) {
			return fail(ctx, fiber.StatusNotFound, workspacehandler.ErrNotFound.Error())
		}
		return c.internalError(ctx, err, "تعذر تحميل مساحة العمل")
	}
	return ok(ctx, view)
}
