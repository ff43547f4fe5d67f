package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	functionsclient "org-portal-backend/lib/functions/client"
	"org-portal-backend/lib/rbac"
	"org-portal-backend/lib/session"
	"org-portal-backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func withUser(user *session.User) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if user != nil {
			session.SetFiberCtx(c, session.NewContext("s1", user))
		}
		return c.Next()
	}
}

func ok(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusOK)
}

func TestServiceKeyRequired(t *testing.T) {
	app := fiber.New()
	app.Post("/functions/v1/get-workspace", ServiceKeyRequired("secret"), ok)

	req := httptest.NewRequest(http.MethodPost, "/functions/v1/get-workspace", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest(http.MethodPost, "/functions/v1/get-workspace", nil)
	req.Header.Set(functionsclient.KeyHeader, "secret")
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	disabled := fiber.New()
	disabled.Post("/f", ServiceKeyRequired(""), ok)
	req = httptest.NewRequest(http.MethodPost, "/f", nil)
	req.Header.Set(functionsclient.KeyHeader, "")
	resp, err = disabled.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAdminRequired(t *testing.T) {
	cases := []struct {
		name   string
		user   *session.User
		status int
	}{
		{"no session", nil, fiber.StatusForbidden},
		{"employee", &session.User{ID: "u1", Role: models.EmployeeRole}, fiber.StatusForbidden},
		{"admin", &session.User{ID: "u1", Role: models.AdminRole, IsAdmin: true}, fiber.StatusOK},
	}
	for _, c := range cases {
		app := fiber.New()
		app.Get("/admin", withUser(c.user), AdminRequired(), ok)
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/admin", nil))
		require.NoError(t, err)
		require.Equal(t, c.status, resp.StatusCode, c.name)
	}
}

func TestRbacMiddleware(t *testing.T) {
	rbac.NewHandler()
	newApp := func(user *session.User) *fiber.App {
		app := fiber.New()
		app.Use(withUser(user), RbacMiddleware())
		app.Put("/api/v1/requests/:id/fix_status", ok)
		app.Get("/api/v1/requests/incoming", ok)
		return app
	}

	employee := &session.User{ID: "u1", Role: models.EmployeeRole}
	resp, err := newApp(employee).Test(httptest.NewRequest(http.MethodPut, "/api/v1/requests/r1/fix_status", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, err = newApp(employee).Test(httptest.NewRequest(http.MethodGet, "/api/v1/requests/incoming", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	admin := &session.User{ID: "u2", Role: models.AdminRole, IsAdmin: true}
	resp, err = newApp(admin).Test(httptest.NewRequest(http.MethodPut, "/api/v1/requests/r1/fix_status", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = newApp(nil).Test(httptest.NewRequest(http.MethodGet, "/api/v1/requests/incoming", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestWithBodyLimit(t *testing.T) {
	app := fiber.New()
	app.Use(WithBodyLimit(10))
	app.Post("/api/v1/requests", ok)
	app.Post("/api/v1/tasks/t1/attachments", ok)

	body := strings.Repeat("x", 20)
	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/requests", strings.NewReader(body)))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusRequestEntityTooLarge, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/tasks/t1/attachments", strings.NewReader(body)))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}
