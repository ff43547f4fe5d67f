package dbmodels

import (
	"time"

	"org-portal-backend/models"
)

type Workspace struct {
	BaseModel
	Name         string `gorm:"type:varchar(255)"`
	Description  string
	OwnerID      string `gorm:"type:varchar(36);index"`
	MembersCount int
}

type WorkspaceMember struct {
	BaseModel
	WorkspaceID string `gorm:"type:varchar(36);uniqueIndex:idx_workspace_member"`
	UserID      string `gorm:"type:varchar(36);uniqueIndex:idx_workspace_member"`
	User        *User  `gorm:"foreignKey:UserID"`
	Role        string `gorm:"type:varchar(50)"`
}

type Project struct {
	BaseModel
	WorkspaceID string `gorm:"type:varchar(36);index"`
	Name        string `gorm:"type:varchar(255)"`
	Description string
}

type Task struct {
	BaseModel
	WorkspaceID  string            `gorm:"type:varchar(36);index"`
	ProjectID    string            `gorm:"type:varchar(36);index"`
	Title        string            `gorm:"type:varchar(255)"`
	Description  string
	Status       models.TaskStatus `gorm:"type:varchar(30);index"`
	AssigneeID   *string           `gorm:"type:varchar(36)"`
	DeadlineDate *time.Time
}

type Subtask struct {
	BaseModel
	TaskID string `gorm:"type:varchar(36);index"`
	Title  string `gorm:"type:varchar(255)"`
	IsDone bool
}

type TaskAttachment struct {
	BaseModel
	TaskID      string `gorm:"type:varchar(36);index"`
	FileName    string `gorm:"type:varchar(255)"`
	ObjectKey   string `gorm:"type:varchar(512)"`
	ContentType string `gorm:"type:varchar(100)"`
	Size        int64
}

type TaskComment struct {
	BaseModel
	TaskID  string `gorm:"type:varchar(36);index"`
	UserID  string `gorm:"type:varchar(36)"`
	Content string
}
