package viewstore

import (
	dbmodels "org-portal-backend/models/db"

	"gorm.io/gorm"
)

type Provider interface {
	Create(rec dbmodels.RequestView) error
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Create(rec dbmodels.RequestView) error {
	return i.db.
		Create(&rec).
		Error
}
