package apiv1

import (
	"errors"
	"fmt"

	"org-portal-backend/controllers"
	approvalhandler "org-portal-backend/lib/approval"
	requesthandler "org-portal-backend/lib/request"
	apimodels "org-portal-backend/models/api"
	requestapimodels "org-portal-backend/models/api/request"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

type requestsApiController struct {
	controllers.BaseAPIController
}

func InitRequestsApiRouters(app *fiber.App) {
	controller := requestsApiController{}
	app.Route("requests", func(router fiber.Router) {
		router.Post("list", controller.list)
		router.Get("incoming", controller.incoming)
		router.Get("workflows", controller.workflows)
		router.Post("", controller.create)
		router.Route(":id", func(idRoute fiber.Router) {
			idRoute.Get("", controller.get)
			idRoute.Post("decision", controller.decide)
			idRoute.Put("fix_status", controller.fixStatus)
			idRoute.Get("history", controller.history)
			idRoute.Get("history/export", controller.exportHistory)
		})
	})
}

// @Summary Requests list
// @Tags Requests
// @Description Non admin users only see their own requests
// @Param   Authorization		header		string							true	"Authorization token"
// @Param	body				body		requestapimodels.RequestFilter	true	"request body"
// @Success 200 {object} apimodels.ScrollerResponse{data=[]requestapimodels.RequestView}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/requests/list [post]
func (c *requestsApiController) list(ctx *fiber.Ctx) error {
	var payload requestapimodels.RequestFilter
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	list, rowCount, err := requesthandler.Instance.ListRequests(ctx.UserContext(), c.GetUser(ctx), payload)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "تعذر تحميل قائمة الطلبات")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewScrollerResponse(list, rowCount))
}

// @Summary Incoming requests
// @Tags Requests
// @Description Requests waiting for a decision of the current user
// @Param   Authorization		header		string	true	"Authorization token"
// @Success 200 {object} apimodels.Response{data=[]requestapimodels.RequestView}
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/requests/incoming [get]
func (c *requestsApiController) incoming(ctx *fiber.Ctx) error {
	list, err := requesthandler.Instance.ListIncoming(ctx.UserContext(), c.GetUser(ctx))
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "تعذر تحميل الطلبات الواردة")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(list))
}

// @Summary Workflows
// @Tags Requests
// @Param   Authorization		header		string	true	"Authorization token"
// @Success 200 {object} apimodels.Response{data=[]requestapimodels.WorkflowView}
// @Failure 500 {object} apimodels.Response
// @router /api/v1/requests/workflows [get]
func (c *requestsApiController) workflows(ctx *fiber.Ctx) error {
	list, err := requesthandler.Instance.ListWorkflows(ctx.UserContext())
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "تعذر تحميل مسارات الاعتماد")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(list))
}

// @Summary Create request
// @Tags Requests
// @Param   Authorization		header		string								true	"Authorization token"
// @Param	body				body		requestapimodels.RequestCreateData	true	"request body"
// @Success 200 {object} apimodels.Response{data=string}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/requests [post]
func (c *requestsApiController) create(ctx *fiber.Ctx) error {
	var payload requestapimodels.RequestCreateData
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err := payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	id, hMsg, err := requesthandler.Instance.Create(ctx.UserContext(), c.GetUser(ctx), payload)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "تعذر إنشاء الطلب")
	}
	if hMsg != "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(hMsg))
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(id))
}

// @Summary Request details
// @Tags Requests
// @Description Details with workflow, current step, requester and approvals. The view is logged in background
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id					path		string	true	"request ID"
// @Param   X-Timezone			header		string	false	"client time zone"
// @Param   X-Screen-Size		header		string	false	"client screen size"
// @Success 200 {object} apimodels.Response{data=requestapimodels.RequestDetailsWithAccess}
// @Failure 400 {object} apimodels.Response
// @Failure 404 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/requests/{id} [get]
func (c *requestsApiController) get(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	user := c.GetUser(ctx)
	details, err := requesthandler.Instance.GetForUser(ctx.UserContext(), id, user)
	if err != nil {
		if errors.Is(err, requesthandler.ErrNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(apimodels.NewError(requesthandler.ErrNotFound.Error()))
		}
		return c.SendError(ctx, c.GetLogger(ctx), err, "تعذر تحميل تفاصيل الطلب")
	}
	// params and headers point into the request buffer, the view is written after the handler returns
	requesthandler.Instance.LogView(ctx.UserContext(), utils.CopyString(id), user.ID, requestapimodels.ViewMeta{
		UserAgent:  utils.CopyString(ctx.Get(fiber.HeaderUserAgent)),
		Locale:     utils.CopyString(ctx.Get(fiber.HeaderAcceptLanguage)),
		TimeZone:   utils.CopyString(ctx.Get("X-Timezone")),
		ScreenSize: utils.CopyString(ctx.Get("X-Screen-Size")),
	})
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(details))
}

// @Summary Decide on request
// @Tags Requests
// @Description Approval, rejection or a non binding opinion on the current step
// @Param   Authorization		header		string						true	"Authorization token"
// @Param   id					path		string						true	"request ID"
// @Param	body				body		requestapimodels.Decision	true	"request body"
// @Success 200 {object} apimodels.Response{data=requestapimodels.DecisionResult}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/requests/{id}/decision [post]
func (c *requestsApiController) decide(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	var payload requestapimodels.Decision
	if err = c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err = payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if payload.UserAgent == "" {
		payload.UserAgent = ctx.Get(fiber.HeaderUserAgent)
	}
	result, hMsg, err := approvalhandler.Instance.Decide(ctx.UserContext(), c.GetUser(ctx), id, payload)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "تعذر تسجيل القرار")
	}
	if hMsg != "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(hMsg))
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(result))
}

// @Summary Fix request status
// @Tags Requests
// @Description Recomputes status and current step from the recorded approvals
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id					path		string	true	"request ID"
// @Success 200 {object} apimodels.Response{data=requestapimodels.FixStatusResult}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/requests/{id}/fix_status [put]
func (c *requestsApiController) fixStatus(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	result, hMsg, err := approvalhandler.Instance.FixStatus(ctx.UserContext(), id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "تعذر تصحيح حالة الطلب")
	}
	if hMsg != "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(hMsg))
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(result))
}

// @Summary Request history
// @Tags Requests
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id					path		string	true	"request ID"
// @Success 200 {object} apimodels.Response{data=[]requestapimodels.HistoryItem}
// @Failure 400 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/requests/{id}/history [get]
func (c *requestsApiController) history(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	list, err := approvalhandler.Instance.History(ctx.UserContext(), id)
	if err != nil {
		if errors.Is(err, requesthandler.ErrNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(apimodels.NewError(requesthandler.ErrNotFound.Error()))
		}
		return c.SendError(ctx, c.GetLogger(ctx), err, "تعذر تحميل سجل الاعتماد")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(list))
}

// @Summary Export request history
// @Tags Requests
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id					path		string	true	"request ID"
// @Success 200 {file} file
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/requests/{id}/history/export [get]
func (c *requestsApiController) exportHistory(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	file, err := approvalhandler.Instance.ExportHistory(ctx.UserContext(), id)
	if err != nil {
		if errors.Is(err, requesthandler.ErrNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(apimodels.NewError(requesthandler.ErrNotFound.Error()))
		}
		return c.SendError(ctx, c.GetLogger(ctx), err, "تعذر تصدير سجل الاعتماد")
	}
	ctx.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="request-%v-history.xlsx"`, id))
	return ctx.Status(fiber.StatusOK).SendStream(file, file.Len())
}
