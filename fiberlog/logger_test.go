package fiberlog

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := logrus.New()
	logger.SetOutput(buf)
	logger.SetFormatter(&logrus.JSONFormatter{})

	app := fiber.New()
	app.Use(New(Config{
		Logger:        logger,
		Tags:          []string{TagStatus, TagMethod, TagPath, TagBody},
		SkipBodyPaths: []string{"/auth/login"},
	}))
	app.Post("/auth/login", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Post("/requests", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusBadRequest) })

	_, err := app.Test(httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"password":"secret"}`)))
	require.NoError(t, err)
	_, err = app.Test(httptest.NewRequest(http.MethodPost, "/requests", strings.NewReader(`{"title":"x"}`)))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	login := map[string]interface{}{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &login))
	require.Equal(t, "info", login["level"])
	require.Equal(t, "/auth/login", login[TagPath])
	require.NotContains(t, login, TagBody)

	create := map[string]interface{}{}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &create))
	require.Equal(t, "warning", create["level"])
	require.EqualValues(t, fiber.StatusBadRequest, create[TagStatus])
	require.Equal(t, `{"title":"x"}`, create[TagBody])
}
