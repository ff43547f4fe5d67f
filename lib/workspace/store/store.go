package workspacestore

import (
	dbmodels "org-portal-backend/models/db"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Provider interface {
	Create(rec dbmodels.Workspace) (id string, err error)
	GetByID(id string) (rec *dbmodels.Workspace, err error)
	ListForUser(userID string) (list []dbmodels.Workspace, err error)
	Update(id string, updMap map[string]interface{}) error
	// DeleteCascade removes the workspace with its tasks, projects and members.
	// Returns the storage keys of removed attachments
	DeleteCascade(id string) (objectKeys []string, err error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Create(rec dbmodels.Workspace) (id string, err error) {
	err = i.db.
		Omit(clause.Associations).
		Save(&rec).
		Error
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (i impl) GetByID(id string) (*dbmodels.Workspace, error) {
	rec := dbmodels.Workspace{}
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

func (i impl) ListForUser(userID string) (list []dbmodels.Workspace, err error) {
	list = []dbmodels.Workspace{}
	err = i.db.
		Where("owner_id = ?", userID).
		Or("id IN (?)", i.db.Model(&dbmodels.WorkspaceMember{}).Select("workspace_id").Where("user_id = ?", userID)).
		Order("name ASC").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) Update(id string, updMap map[string]interface{}) error {
	if len(updMap) == 0 {
		return nil
	}
	return i.db.
		Model(&dbmodels.Workspace{}).
		Where("id = ?", id).
		Updates(updMap).
		Error
}

func (i impl) DeleteCascade(id string) (objectKeys []string, err error) {
	taskIDs := i.db.Model(&dbmodels.Task{}).Select("id").Where("workspace_id = ?", id)
	err = i.db.
		Model(&dbmodels.TaskAttachment{}).
		Where("task_id IN (?)", taskIDs).
		Pluck("object_key", &objectKeys).
		Error
	if err != nil {
		return nil, errors.Wrap(err, "attachment keys lookup failed")
	}
	steps := []struct {
		name  string
		model interface{}
		query string
		arg   interface{}
	}{
		{"subtasks", &dbmodels.Subtask{}, "task_id IN (?)", taskIDs},
		{"task comments", &dbmodels.TaskComment{}, "task_id IN (?)", taskIDs},
		{"task attachments", &dbmodels.TaskAttachment{}, "task_id IN (?)", taskIDs},
		{"tasks", &dbmodels.Task{}, "workspace_id = ?", id},
		{"projects", &dbmodels.Project{}, "workspace_id = ?", id},
		{"members", &dbmodels.WorkspaceMember{}, "workspace_id = ?", id},
	}
	for _, step := range steps {
		if err = i.db.Where(step.query, step.arg).Delete(step.model).Error; err != nil {
			return nil, errors.Wrapf(err, "%v delete failed", step.name)
		}
	}
	tx := i.db.Where("id = ?", id).Delete(&dbmodels.Workspace{})
	if tx.Error != nil {
		return nil, errors.Wrap(tx.Error, "workspace delete failed")
	}
	if tx.RowsAffected == 0 {
		return nil, errors.New("workspace not found")
	}
	return objectKeys, nil
}
