package apiv1

import (
	"org-portal-backend/controllers"
	usershandler "org-portal-backend/lib/users"
	apimodels "org-portal-backend/models/api"
	userapimodels "org-portal-backend/models/api/user"

	"github.com/gofiber/fiber/v2"
)

type usersApiController struct {
	controllers.BaseAPIController
}

func InitUsersApiRouters(app *fiber.App) {
	controller := usersApiController{}
	app.Route("users", func(router fiber.Router) {
		router.Get("roles", controller.roles)
		router.Route(":id", func(idRoute fiber.Router) {
			idRoute.Put("role", controller.assignRole)
			idRoute.Delete("", controller.softDelete)
		})
	})
}

// @Summary Roles
// @Tags Users
// @Param   Authorization		header		string	true	"Authorization token"
// @Success 200 {object} apimodels.Response{data=[]dbmodels.Role}
// @Failure 500 {object} apimodels.Response
// @router /api/v1/users/roles [get]
func (c *usersApiController) roles(ctx *fiber.Ctx) error {
	list, err := usershandler.Instance.ListRoles()
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "تعذر تحميل الأدوار")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(list))
}

// @Summary Assign role
// @Tags Users
// @Param   Authorization		header		string								true	"Authorization token"
// @Param   id					path		string								true	"user ID"
// @Param	body				body		userapimodels.AssignRoleRequest		true	"request body"
// @Success 200 {object} apimodels.Response
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/users/{id}/role [put]
func (c *usersApiController) assignRole(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	var payload userapimodels.AssignRoleRequest
	if err = c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err = payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	hMsg, err := usershandler.Instance.AssignRole(ctx.UserContext(), id, payload.RoleID)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "تعذر تعيين الدور")
	}
	if hMsg != "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(hMsg))
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(nil))
}

// @Summary Delete user
// @Tags Users
// @Description Soft delete, the user's sessions are revoked. Admins cannot delete themselves
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id					path		string	true	"user ID"
// @Success 200 {object} apimodels.Response
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/users/{id} [delete]
func (c *usersApiController) softDelete(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	hMsg, err := usershandler.Instance.SoftDelete(ctx.UserContext(), id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "تعذر حذف المستخدم")
	}
	if hMsg != "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(hMsg))
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(nil))
}
