package workflowstore

import (
	dbmodels "org-portal-backend/models/db"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type Provider interface {
	GetByID(id string) (rec *dbmodels.Workflow, err error)
	List() (list []dbmodels.Workflow, err error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) GetByID(id string) (*dbmodels.Workflow, error) {
	rec := dbmodels.Workflow{}
	err := i.db.
		Where("id = ?", id).
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("step_order ASC")
		}).
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

func (i impl) List() (list []dbmodels.Workflow, err error) {
	list = []dbmodels.Workflow{}
	err = i.db.
		Where("is_active = ?", true).
		Order("name ASC").
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("step_order ASC")
		}).
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}
