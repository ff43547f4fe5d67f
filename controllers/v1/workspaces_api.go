package apiv1

import (
	"errors"

	"org-portal-backend/controllers"
	taskhandler "org-portal-backend/lib/task"
	workspacehandler "org-portal-backend/lib/workspace"
	apimodels "org-portal-backend/models/api"
	workspaceapimodels "org-portal-backend/models/api/workspace"

	"github.com/gofiber/fiber/v2"
)

type workspacesApiController struct {
	controllers.BaseAPIController
}

func InitWorkspacesApiRouters(app *fiber.App) {
	controller := workspacesApiController{}
	app.Route("workspaces", func(router fiber.Router) {
		router.Post("", controller.create)
		router.Get("list", controller.list)
		router.Route(":id", func(idRoute fiber.Router) {
			idRoute.Get("", controller.get)
			idRoute.Delete("", controller.delete)
			idRoute.Post("members", controller.addMember)
			idRoute.Get("tasks", controller.tasks)
		})
	})
}

// @Summary Create workspace
// @Tags Workspaces
// @Param   Authorization		header		string								true	"Authorization token"
// @Param	body				body		workspaceapimodels.CreateRequest	true	"request body"
// @Success 200 {object} apimodels.Response{data=string}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/workspaces [post]
func (c *workspacesApiController) create(ctx *fiber.Ctx) error {
	var payload workspaceapimodels.CreateRequest
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err := payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	id, err := workspacehandler.Instance.Create(ctx.UserContext(), c.GetUser(ctx), payload)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "تعذر إنشاء مساحة العمل")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(id))
}

// @Summary Workspaces list
// @Tags Workspaces
// @Param   Authorization		header		string	true	"Authorization token"
// @Success 200 {object} apimodels.Response{data=[]workspaceapimodels.WorkspaceView}
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/workspaces/list [get]
func (c *workspacesApiController) list(ctx *fiber.Ctx) error {
	list, err := workspacehandler.Instance.List(ctx.UserContext(), c.GetUser(ctx))
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "تعذر تحميل مساحات العمل")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(list))
}

// @Summary Workspace
// @Tags Workspaces
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id					path		string	true	"workspace ID"
// @Success 200 {object} apimodels.Response{data=workspaceapimodels.WorkspaceView}
// @Failure 400 {object} apimodels.Response
// @Failure 404 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/workspaces/{id} [get]
func (c *workspacesApiController) get(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	view, err := workspacehandler.Instance.Get(ctx.UserContext(), id)
	if err != nil {
		if errors.Is(err, workspacehandler.ErrNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(apimodels.NewError(workspacehandler.ErrNotFound.Error()))
		}
		return c.SendError(ctx, c.GetLogger(ctx), err, "تعذر تحميل مساحة العمل")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(view))
}

// @Summary Delete workspace
// @Tags Workspaces
// @Description Deletes the workspace with its tasks, projects and members. The name must be typed as confirmation
// @Param   Authorization		header		string								true	"Authorization token"
// @Param   id					path		string								true	"workspace ID"
// @Param	body				body		workspaceapimodels.DeleteRequest	true	"request body"
// @Success 200 {object} apimodels.Response{data=workspaceapimodels.DeleteResult}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/workspaces/{id} [delete]
func (c *workspacesApiController) delete(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	var payload workspaceapimodels.DeleteRequest
	if err = c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err = payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	result, hMsg, err := workspacehandler.Instance.Delete(ctx.UserContext(), c.GetUser(ctx), id, payload.Confirmation)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "تعذر حذف مساحة العمل")
	}
	if hMsg != "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(hMsg))
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(result))
}

// @Summary Add workspace member
// @Tags Workspaces
// @Param   Authorization		header		string								true	"Authorization token"
// @Param   id					path		string								true	"workspace ID"
// @Param	body				body		workspaceapimodels.MemberAddRequest	true	"request body"
// @Success 200 {object} apimodels.Response
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/workspaces/{id}/members [post]
func (c *workspacesApiController) addMember(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	var payload workspaceapimodels.MemberAddRequest
	if err = c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err = payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	hMsg, err := workspacehandler.Instance.AddMember(ctx.UserContext(), c.GetUser(ctx), id, payload)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "تعذر إضافة العضو")
	}
	if hMsg != "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(hMsg))
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(nil))
}

// @Summary Workspace tasks
// @Tags Tasks
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id					path		string	true	"workspace ID"
// @Success 200 {object} apimodels.Response{data=[]taskapimodels.TaskView}
// @Failure 400 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/workspaces/{id}/tasks [get]
func (c *workspacesApiController) tasks(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	list, err := taskhandler.Instance.List(ctx.UserContext(), id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "تعذر تحميل المهام")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(list))
}
