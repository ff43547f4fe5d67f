package apiv1

import (
	"org-portal-backend/controllers"
	taskhandler "org-portal-backend/lib/task"
	apimodels "org-portal-backend/models/api"
	taskapimodels "org-portal-backend/models/api/task"

	"github.com/gofiber/fiber/v2"
)

type tasksApiController struct {
	controllers.BaseAPIController
}

func InitTasksApiRouters(app *fiber.App) {
	controller := tasksApiController{}
	app.Route("tasks", func(router fiber.Router) {
		router.Post("", controller.create)
		router.Route(":id", func(idRoute fiber.Router) {
			idRoute.Delete("", controller.delete)
			idRoute.Post("attachments", controller.uploadAttachment)
			idRoute.Get("attachments", controller.listAttachments)
		})
	})
}

// @Summary Create task
// @Tags Tasks
// @Param   Authorization		header		string						true	"Authorization token"
// @Param	body				body		taskapimodels.CreateRequest	true	"request body"
// @Success 200 {object} apimodels.Response{data=string}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/tasks [post]
func (c *tasksApiController) create(ctx *fiber.Ctx) error {
	var payload taskapimodels.CreateRequest
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err := payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	id, err := taskhandler.Instance.Create(ctx.UserContext(), c.GetUser(ctx), payload)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "تعذر إنشاء المهمة")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(id))
}

// @Summary Delete task
// @Tags Tasks
// @Description Subtasks, attachments and comments are removed best effort before the task
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id					path		string	true	"task ID"
// @Success 200 {object} apimodels.Response
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/tasks/{id} [delete]
func (c *tasksApiController) delete(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	hMsg, err := taskhandler.Instance.Delete(ctx.UserContext(), id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "تعذر حذف المهمة")
	}
	if hMsg != "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(hMsg))
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(nil))
}

// @Summary Upload task attachment
// @Tags Tasks
// @Accept	multipart/form-data
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id					path		string	true	"task ID"
// @Param   file				formData	file	true	"attachment"
// @Success 200 {object} apimodels.Response{data=taskapimodels.AttachmentView}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/tasks/{id}/attachments [post]
func (c *tasksApiController) uploadAttachment(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	header, err := ctx.FormFile("file")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError("يجب إرفاق ملف"))
	}
	file, err := header.Open()
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "تعذر قراءة الملف")
	}
	defer file.Close()

	view, hMsg, err := taskhandler.Instance.UploadAttachment(ctx.UserContext(), id, header.Filename,
		header.Header.Get(fiber.HeaderContentType), header.Size, file)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "تعذر رفع المرفق")
	}
	if hMsg != "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(hMsg))
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(view))
}

// @Summary Task attachments
// @Tags Tasks
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id					path		string	true	"task ID"
// @Success 200 {object} apimodels.Response{data=[]taskapimodels.AttachmentView}
// @Failure 400 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/tasks/{id}/attachments [get]
func (c *tasksApiController) listAttachments(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	list, err := taskhandler.Instance.ListAttachments(ctx.UserContext(), id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "تعذر تحميل المرفقات")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(list))
}
