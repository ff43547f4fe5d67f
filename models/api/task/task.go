package taskapimodels

import (
	"time"

	"org-portal-backend/lib/utils/helpers"
	"org-portal-backend/models"
	dbmodels "org-portal-backend/models/db"

	"github.com/pkg/errors"
)

type CreateRequest struct {
	WorkspaceID  string     `json:"workspace_id"`
	ProjectID    string     `json:"project_id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	AssigneeID   *string    `json:"assignee_id"`
	DeadlineDate *time.Time `json:"deadline_date"`
}

func (r CreateRequest) Validate() error {
	if r.WorkspaceID == "" {
		return errors.New("يجب اختيار مساحة العمل")
	}
	if helpers.IsBlank(r.Title) {
		return errors.New("عنوان المهمة مطلوب")
	}
	return nil
}

type TaskView struct {
	ID           string            `json:"id"`
	WorkspaceID  string            `json:"workspace_id"`
	ProjectID    string            `json:"project_id"`
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	Status       models.TaskStatus `json:"status"`
	AssigneeID   *string           `json:"assignee_id"`
	DeadlineDate *time.Time        `json:"deadline_date"`
	CreatedAt    time.Time         `json:"created_at"`
}

func TaskConvert(rec dbmodels.Task) TaskView {
	return TaskView{
		ID:           rec.ID,
		WorkspaceID:  rec.WorkspaceID,
		ProjectID:    rec.ProjectID,
		Title:        rec.Title,
		Description:  rec.Description,
		Status:       rec.Status,
		AssigneeID:   rec.AssigneeID,
		DeadlineDate: rec.DeadlineDate,
		CreatedAt:    rec.CreatedAt,
	}
}

type AttachmentView struct {
	ID          string `json:"id"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

func AttachmentConvert(rec dbmodels.TaskAttachment) AttachmentView {
	return AttachmentView{
		ID:          rec.ID,
		FileName:    rec.FileName,
		ContentType: rec.ContentType,
		Size:        rec.Size,
	}
}
