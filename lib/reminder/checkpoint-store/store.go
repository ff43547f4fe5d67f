package checkpointstore

import (
	"errors"

	dbmodels "org-portal-backend/models/db"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Provider interface {
	Get(jobName string) (*dbmodels.JobCheckpoint, error)
	Save(rec dbmodels.JobCheckpoint) error
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Get(jobName string) (*dbmodels.JobCheckpoint, error) {
	var rec dbmodels.JobCheckpoint
	err := i.db.
		Where("job_name = ?", jobName).
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

func (i impl) Save(rec dbmodels.JobCheckpoint) error {
	return i.db.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "job_name"}},
			UpdateAll: true,
		}).
		Create(&rec).
		Error
}
