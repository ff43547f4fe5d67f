package dbmodels

import (
	"time"

	"org-portal-backend/models"
)

type Request struct {
	BaseModel
	Title         string `gorm:"type:varchar(255)"`
	Description   string
	RequestType   string               `gorm:"type:varchar(100)"`
	RequesterID   string               `gorm:"type:varchar(36);index"`
	Requester     *User                `gorm:"foreignKey:RequesterID"`
	WorkflowID    string               `gorm:"type:varchar(36);index"`
	Workflow      *Workflow            `gorm:"foreignKey:WorkflowID"`
	CurrentStepID *string              `gorm:"type:varchar(36);index"`
	CurrentStep   *WorkflowStep        `gorm:"foreignKey:CurrentStepID"`
	Status        models.RequestStatus `gorm:"type:varchar(30);index"`
	FormData      JSONMap              `gorm:"type:jsonb"`
	DeadlineDate  *time.Time
	CompletedAt   *time.Time
}

type Approval struct {
	BaseModel
	RequestID  string                `gorm:"type:varchar(36);uniqueIndex:idx_approval_step_approver"`
	StepID     string                `gorm:"type:varchar(36);uniqueIndex:idx_approval_step_approver"`
	Step       *WorkflowStep         `gorm:"foreignKey:StepID"`
	ApproverID string                `gorm:"type:varchar(36);uniqueIndex:idx_approval_step_approver"`
	Approver   *User                 `gorm:"foreignKey:ApproverID"`
	Status     models.ApprovalStatus `gorm:"type:varchar(30)"`
	Comments   string
	ApprovedAt *time.Time
}

// RequestOpinion is a non-binding comment attached to a request step
type RequestOpinion struct {
	BaseModel
	RequestID string          `gorm:"type:varchar(36);index"`
	StepID    string          `gorm:"type:varchar(36)"`
	UserID    string          `gorm:"type:varchar(36)"`
	User      *User           `gorm:"foreignKey:UserID"`
	Comments  string
	UserRole  models.UserRole `gorm:"type:varchar(50)"`
	IsAdmin   bool
	UserAgent string
}

type RequestView struct {
	BaseModel
	RequestID  string `gorm:"type:varchar(36);index"`
	UserID     string `gorm:"type:varchar(36)"`
	UserAgent  string
	Locale     string `gorm:"type:varchar(20)"`
	TimeZone   string `gorm:"type:varchar(64)"`
	ScreenSize string `gorm:"type:varchar(20)"`
}
