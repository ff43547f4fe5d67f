package memberstore

import (
	dbmodels "org-portal-backend/models/db"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Provider interface {
	// Add relies on the (workspace_id, user_id) unique index, a second add fails with duplicate key
	Add(rec dbmodels.WorkspaceMember) (id string, err error)
	Count(workspaceID string) (int64, error)
	ListUserIDs(workspaceID string) ([]string, error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Add(rec dbmodels.WorkspaceMember) (id string, err error) {
	err = i.db.
		Omit(clause.Associations).
		Create(&rec).
		Error
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (i impl) Count(workspaceID string) (count int64, err error) {
	err = i.db.
		Model(&dbmodels.WorkspaceMember{}).
		Where("workspace_id = ?", workspaceID).
		Count(&count).
		Error
	return count, err
}

func (i impl) ListUserIDs(workspaceID string) (list []string, err error) {
	err = i.db.
		Model(&dbmodels.WorkspaceMember{}).
		Where("workspace_id = ?", workspaceID).
		Pluck("user_id", &list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}
