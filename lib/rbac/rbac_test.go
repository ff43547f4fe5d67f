package rbac

import (
	"testing"

	"org-portal-backend/models"

	"github.com/stretchr/testify/require"
)

func TestRbac(t *testing.T) {
	t.Run(`pathToRegex check`, func(t *testing.T) {
		path, method, err := parseSwaggerPattern("/api/v1/requests/{id}/decision [post]")
		require.Nil(t, err)
		require.Equal(t, POST, method)
		r1, err := pathToRegex(path)
		require.Nil(t, err)

		require.True(t, r1.MatchString("/api/v1/requests/123-321/decision"))
		require.False(t, r1.MatchString("/api/v1/requests/decision"))

		path, method, err = parseSwaggerPattern("/api/v1/workspaces/{id}/members/{userId} [delete]")
		require.Nil(t, err)
		require.Equal(t, DELETE, method)
		r2, err := pathToRegex(path)
		require.Nil(t, err)

		require.True(t, r2.MatchString("/api/v1/workspaces/w-1/members/u-2"))
		require.False(t, r2.MatchString("/api/v1/workspaces/w-1/members"))
		require.Equal(t, []string{"", "id", "userId"}, r2.SubexpNames())
	})

	t.Run(`pattern without method`, func(t *testing.T) {
		_, _, err := parseSwaggerPattern("/api/v1/requests")
		require.Error(t, err)
	})

	t.Run(`rules`, func(t *testing.T) {
		NewHandler()

		fixStatus, params, found := Instance.GetRuleFunc("put", "/api/v1/requests/r1/fix_status/")
		require.True(t, found)
		require.Equal(t, map[string]string{"id": "r1"}, params)
		require.True(t, fixStatus("u1", models.AdminRole, params))
		require.False(t, fixStatus("u1", models.ManagerRole, params))

		list, params, found := Instance.GetRuleFunc("POST", "/api/v1/requests/list")
		require.True(t, found)
		require.Empty(t, params)
		require.True(t, list("u1", models.EmployeeRole, params))

		deleteUser, params, found := Instance.GetRuleFunc("DELETE", "/api/v1/users/u2")
		require.True(t, found)
		require.True(t, deleteUser("u1", models.AdminRole, params))
		require.False(t, deleteUser("u2", models.AdminRole, params))
		require.False(t, deleteUser("u1", models.EmployeeRole, params))

		_, _, found = Instance.GetRuleFunc("GET", "/api/v1/unknown")
		require.False(t, found)

		permissions := Instance.GetPermissions(models.AdminRole)
		require.Contains(t, permissions[models.UsersModule], models.ManagePermission)
		require.NotContains(t, Instance.GetPermissions(models.EmployeeRole)[models.UsersModule], models.ManagePermission)
	})

	t.Run(`duplicate rule is refused`, func(t *testing.T) {
		NewHandler()

		err := Instance.RegisterRule(models.RequestsModule, models.ViewPermission, AllRoles, "/api/v1/requests/{id} [get]", nil)
		require.Error(t, err)
		err = Instance.RegisterRule(models.RequestsModule, models.ViewPermission, AllRoles, "/api/v1/requests/list [post]", nil)
		require.Error(t, err)
		err = Instance.RegisterRule(models.RequestsModule, models.ViewPermission, AllRoles, "/api/v1/requests/{id} [patch]", nil)
		require.NoError(t, err)
	})
}
