package models

// RbacFunc decides access, params holds the named segments of the matched route
type RbacFunc func(userID string, role UserRole, params map[string]string) bool

type Module string

const (
	UsersModule        Module = "USERS"
	RequestsModule     Module = "REQUESTS"
	WorkspacesModule   Module = "WORKSPACES"
	TasksModule        Module = "TASKS"
	NotificationModule Module = "NOTIFICATIONS"
)

type Permission string

const (
	CreatePermission Permission = "CREATE"
	EditPermission   Permission = "EDIT"
	ViewPermission   Permission = "VIEW"
	ManagePermission Permission = "MANAGE"
	FlowPermission   Permission = "FLOW"
	ExportPermission Permission = "EXPORT"
)
