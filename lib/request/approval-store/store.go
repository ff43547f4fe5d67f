package approvalstore

import (
	"time"

	"org-portal-backend/models"
	dbmodels "org-portal-backend/models/db"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Provider interface {
	// CreatePending adds pending rows, rows already present for the same
	// (request, step, approver) are left untouched
	CreatePending(requestID, stepID string, approverIDs []string) error
	Create(rec dbmodels.Approval) (id string, err error)
	Get(requestID, stepID, approverID string) (rec *dbmodels.Approval, err error)
	// Decide moves a pending row to status, false when the row was already decided
	Decide(id string, status models.ApprovalStatus, comments string, at time.Time) (bool, error)
	List(requestID string) (list []dbmodels.Approval, err error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) CreatePending(requestID, stepID string, approverIDs []string) error {
	if len(approverIDs) == 0 {
		return nil
	}
	list := make([]dbmodels.Approval, 0, len(approverIDs))
	for _, approverID := range approverIDs {
		list = append(list, dbmodels.Approval{
			RequestID:  requestID,
			StepID:     stepID,
			ApproverID: approverID,
			Status:     models.ApprovalStatusPending,
		})
	}
	return i.db.
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&list).
		Error
}

func (i impl) Create(rec dbmodels.Approval) (id string, err error) {
	err = i.db.
		Omit(clause.Associations).
		Create(&rec).
		Error
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (i impl) Get(requestID, stepID, approverID string) (*dbmodels.Approval, error) {
	rec := dbmodels.Approval{}
	err := i.db.
		Where("request_id = ?", requestID).
		Where("step_id = ?", stepID).
		Where("approver_id = ?", approverID).
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

func (i impl) Decide(id string, status models.ApprovalStatus, comments string, at time.Time) (bool, error) {
	tx := i.db.
		Model(&dbmodels.Approval{}).
		Where("id = ?", id).
		Where("status = ?", models.ApprovalStatusPending).
		Updates(map[string]interface{}{
			"status":      status,
			"comments":    comments,
			"approved_at": at,
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected == 1, nil
}

func (i impl) List(requestID string) (list []dbmodels.Approval, err error) {
	list = []dbmodels.Approval{}
	err = i.db.
		Where("request_id = ?", requestID).
		Order("created_at ASC").
		Preload("Approver").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}
