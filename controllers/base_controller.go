package controllers

import (
	"org-portal-backend/lib/session"
	"org-portal-backend/lib/utils/errmsg"
	apimodels "org-portal-backend/models/api"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type BaseAPIController struct{}

func (c *BaseAPIController) BodyParser(ctx *fiber.Ctx, out interface{}) error {
	if err := ctx.BodyParser(out); err != nil {
		log.WithError(err).Error("request body parse failed")
		return errors.New("تعذر قراءة بيانات الطلب")
	}
	return nil
}

func (c *BaseAPIController) GetID(ctx *fiber.Ctx) (string, error) {
	return c.GetIDByKey(ctx, "id")
}

func (c *BaseAPIController) GetIDByKey(ctx *fiber.Ctx, key string) (string, error) {
	id := ctx.Params(key)
	if _, err := uuid.Parse(id); err != nil {
		return "", errors.Errorf("معرّف غير صالح: %v", key)
	}
	return id, nil
}

func (c *BaseAPIController) GetSession(ctx *fiber.Ctx) *session.Context {
	return session.FromFiberCtx(ctx)
}

func (c *BaseAPIController) GetUser(ctx *fiber.Ctx) *session.User {
	return session.FromFiberCtx(ctx).User()
}

func (c *BaseAPIController) GetLogger(ctx *fiber.Ctx) *log.Entry {
	logger := log.
		WithField("method", ctx.Method()).
		WithField("path", ctx.Path())
	if user := c.GetUser(ctx); user != nil {
		logger = logger.WithField("user_id", user.ID)
	}
	return logger
}

// SendError logs err and answers 500 with the most specific message known for it
func (c *BaseAPIController) SendError(ctx *fiber.Ctx, logger *log.Entry, err error, msg string) error {
	logger.WithError(err).WithField("user_msg", msg).Error("request failed")
	return ctx.Status(fiber.StatusInternalServerError).JSON(apimodels.NewError(errmsg.ToHuman(err, msg)))
}
