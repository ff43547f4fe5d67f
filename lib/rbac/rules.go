package rbac

import (
	"org-portal-backend/models"
)

var (
	AdminRoleSet        = []models.UserRole{models.AdminRole}
	AdminManagerRoleSet = []models.UserRole{models.AdminRole, models.ManagerRole}
	AllRoles            = []models.UserRole{models.AdminRole, models.ManagerRole, models.EmployeeRole}
)

func (i *impl) initRules() {
	i.addUsersRbac()
	i.addRequestsRbac()
	i.addWorkspacesRbac()
	i.addTasksRbac()
	i.addNotificationsRbac()
}

func (i *impl) addUsersRbac() {
	//VIEW
	i.mustRegister(models.UsersModule, models.ViewPermission, AllRoles, "/api/v1/users/roles [get]", nil)
	//MANAGE
	i.mustRegister(models.UsersModule, models.ManagePermission, AdminRoleSet, "/api/v1/users/{id}/role [put]", nil)
	i.mustRegister(models.UsersModule, models.ManagePermission, AdminRoleSet, "/api/v1/users/{id} [delete]", NotSelfFunc(AdminRoleSet, "id"))
}

func (i *impl) addRequestsRbac() {
	//VIEW
	i.mustRegister(models.RequestsModule, models.ViewPermission, AllRoles, "/api/v1/requests/list [post]", nil)
	i.mustRegister(models.RequestsModule, models.ViewPermission, AllRoles, "/api/v1/requests/incoming [get]", nil)
	i.mustRegister(models.RequestsModule, models.ViewPermission, AllRoles, "/api/v1/requests/workflows [get]", nil)
	i.mustRegister(models.RequestsModule, models.ViewPermission, AllRoles, "/api/v1/requests/{id} [get]", nil)
	i.mustRegister(models.RequestsModule, models.ViewPermission, AllRoles, "/api/v1/requests/{id}/history [get]", nil)
	//CREATE
	i.mustRegister(models.RequestsModule, models.CreatePermission, AllRoles, "/api/v1/requests [post]", nil)
	//FLOW, approver check is done by the handler
	i.mustRegister(models.RequestsModule, models.FlowPermission, AllRoles, "/api/v1/requests/{id}/decision [post]", nil)
	//EXPORT
	i.mustRegister(models.RequestsModule, models.ExportPermission, AdminManagerRoleSet, "/api/v1/requests/{id}/history/export [get]", nil)
	//MANAGE
	i.mustRegister(models.RequestsModule, models.ManagePermission, AdminRoleSet, "/api/v1/requests/{id}/fix_status [put]", nil)
}

func (i *impl) addWorkspacesRbac() {
	i.mustRegister(models.WorkspacesModule, models.ViewPermission, AllRoles, "/api/v1/workspaces/list [get]", nil)
	i.mustRegister(models.WorkspacesModule, models.ViewPermission, AllRoles, "/api/v1/workspaces/{id} [get]", nil)
	i.mustRegister(models.WorkspacesModule, models.CreatePermission, AdminManagerRoleSet, "/api/v1/workspaces [post]", nil)
	// owner check is done by the handler
	i.mustRegister(models.WorkspacesModule, models.EditPermission, AdminManagerRoleSet, "/api/v1/workspaces/{id} [delete]", nil)
	i.mustRegister(models.WorkspacesModule, models.EditPermission, AdminManagerRoleSet, "/api/v1/workspaces/{id}/members [post]", nil)
}

func (i *impl) addTasksRbac() {
	i.mustRegister(models.TasksModule, models.ViewPermission, AllRoles, "/api/v1/workspaces/{id}/tasks [get]", nil)
	i.mustRegister(models.TasksModule, models.ViewPermission, AllRoles, "/api/v1/tasks/{id}/attachments [get]", nil)
	i.mustRegister(models.TasksModule, models.CreatePermission, AllRoles, "/api/v1/tasks [post]", nil)
	i.mustRegister(models.TasksModule, models.EditPermission, AllRoles, "/api/v1/tasks/{id}/attachments [post]", nil)
	i.mustRegister(models.TasksModule, models.EditPermission, AdminManagerRoleSet, "/api/v1/tasks/{id} [delete]", nil)
}

func (i *impl) addNotificationsRbac() {
	i.mustRegister(models.NotificationModule, models.ViewPermission, AllRoles, "/api/v1/notifications/list [get]", nil)
	i.mustRegister(models.NotificationModule, models.EditPermission, AllRoles, "/api/v1/notifications/read [put]", nil)
}

func (i *impl) mustRegister(module models.Module, permission models.Permission, roles []models.UserRole, swaggerPattern string, handler models.RbacFunc) {
	if err := i.RegisterRule(module, permission, roles, swaggerPattern, handler); err != nil {
		panic(err.Error())
	}
}
