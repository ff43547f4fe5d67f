package taskstore

import (
	"org-portal-backend/models"
	dbmodels "org-portal-backend/models/db"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Provider interface {
	Create(rec dbmodels.Task) (id string, err error)
	GetByID(id string) (rec *dbmodels.Task, err error)
	List(workspaceID string) (list []dbmodels.Task, err error)
	ListWithDeadline() (list []dbmodels.Task, err error)
	DeleteSubtasks(taskID string) error
	AddAttachment(rec dbmodels.TaskAttachment) (id string, err error)
	ListAttachments(taskID string) (list []dbmodels.TaskAttachment, err error)
	DeleteAttachments(taskID string) error
	DeleteComments(taskID string) error
	Delete(id string) error
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Create(rec dbmodels.Task) (id string, err error) {
	err = i.db.
		Omit(clause.Associations).
		Save(&rec).
		Error
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (i impl) GetByID(id string) (*dbmodels.Task, error) {
	rec := dbmodels.Task{}
	err := i.db.
		Where("id = ?", id).
		First(&rec).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (i impl) List(workspaceID string) (list []dbmodels.Task, err error) {
	list = []dbmodels.Task{}
	err = i.db.
		Where("workspace_id = ?", workspaceID).
		Order("created_at DESC").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) ListWithDeadline() (list []dbmodels.Task, err error) {
	list = []dbmodels.Task{}
	err = i.db.
		Where("status NOT IN ?", models.TaskTerminalStatuses).
		Where("deadline_date IS NOT NULL").
		Where("assignee_id IS NOT NULL").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) DeleteSubtasks(taskID string) error {
	return i.db.
		Where("task_id = ?", taskID).
		Delete(&dbmodels.Subtask{}).
		Error
}

func (i impl) AddAttachment(rec dbmodels.TaskAttachment) (id string, err error) {
	err = i.db.
		Create(&rec).
		Error
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (i impl) ListAttachments(taskID string) (list []dbmodels.TaskAttachment, err error) {
	list = []dbmodels.TaskAttachment{}
	err = i.db.
		Where("task_id = ?", taskID).
		Order("created_at ASC").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) DeleteAttachments(taskID string) error {
	return i.db.
		Where("task_id = ?", taskID).
		Delete(&dbmodels.TaskAttachment{}).
		Error
}

func (i impl) DeleteComments(taskID string) error {
	return i.db.
		Where("task_id = ?", taskID).
		Delete(&dbmodels.TaskComment{}).
		Error
}

func (i impl) Delete(id string) error {
	tx := i.db.
		Where("id = ?", id).
		Delete(&dbmodels.Task{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return errors.New("task not found")
	}
	return nil
}
