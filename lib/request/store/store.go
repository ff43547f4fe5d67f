package requeststore

import (
	"org-portal-backend/models"
	requestapimodels "org-portal-backend/models/api/request"
	dbmodels "org-portal-backend/models/db"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Provider interface {
	Create(rec dbmodels.Request) (id string, err error)
	GetByID(id string) (rec *dbmodels.Request, err error)
	// GetForUpdate locks the row until the surrounding transaction ends
	GetForUpdate(id string) (rec *dbmodels.Request, err error)
	Update(id string, updMap map[string]interface{}) error
	List(filter requestapimodels.RequestFilter) (list []dbmodels.Request, rowCount int64, err error)
	ListIncoming(userID string) (list []dbmodels.Request, err error)
	ListWithDeadline() (list []dbmodels.Request, err error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Create(rec dbmodels.Request) (id string, err error) {
	err = i.db.
		Omit(clause.Associations).
		Save(&rec).
		Error
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (i impl) GetByID(id string) (*dbmodels.Request, error) {
	return i.get(i.db, id)
}

func (i impl) GetForUpdate(id string) (*dbmodels.Request, error) {
	return i.get(i.db.Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: clause.CurrentTable}}), id)
}

func (i impl) get(tx *gorm.DB, id string) (*dbmodels.Request, error) {
	rec := dbmodels.Request{}
	err := tx.
		Where("id = ?", id).
		Preload("Requester").
		Preload("CurrentStep").
		Preload("CurrentStep.Approver").
		Preload("Workflow").
		Preload("Workflow.Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("step_order ASC")
		}).
		Preload("Workflow.Steps.Approver").
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

func (i impl) Update(id string, updMap map[string]interface{}) error {
	if len(updMap) == 0 {
		return nil
	}
	tx := i.db.
		Model(&dbmodels.Request{}).
		Where("id = ?", id).
		Updates(updMap)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return errors.New("request not found")
	}
	return nil
}

func (i impl) List(filter requestapimodels.RequestFilter) (list []dbmodels.Request, rowCount int64, err error) {
	list = []dbmodels.Request{}
	tx := i.db.Model(&dbmodels.Request{})
	if filter.Status != "" {
		tx = tx.Where("status = ?", filter.Status)
	}
	if filter.RequesterID != "" {
		tx = tx.Where("requester_id = ?", filter.RequesterID)
	}
	if filter.Search != "" {
		tx = tx.Where("title ILIKE ?", "%"+filter.Search+"%")
	}
	if err = tx.Count(&rowCount).Error; err != nil {
		return nil, 0, err
	}
	page, limit := filter.GetPage()
	err = tx.
		Preload("Requester").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&list).
		Error
	if err != nil {
		return nil, 0, err
	}
	return list, rowCount, nil
}

// ListIncoming returns open requests whose current step waits for userID
func (i impl) ListIncoming(userID string) (list []dbmodels.Request, err error) {
	list = []dbmodels.Request{}
	err = i.db.
		Where("status NOT IN ?", models.RequestTerminalStatuses).
		Where("current_step_id IS NOT NULL").
		Where(i.db.
			Where("current_step_id IN (?)", i.db.Model(&dbmodels.WorkflowStep{}).Select("id").Where("approver_id = ?", userID)).
			Or("EXISTS (?)", i.db.Model(&dbmodels.Approval{}).
				Select("1").
				Where("approvals.request_id = requests.id").
				Where("approvals.step_id = requests.current_step_id").
				Where("approvals.approver_id = ?", userID).
				Where("approvals.status = ?", models.ApprovalStatusPending))).
		Preload("Requester").
		Preload("CurrentStep").
		Order("created_at DESC").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) ListWithDeadline() (list []dbmodels.Request, err error) {
	list = []dbmodels.Request{}
	err = i.db.
		Where("status NOT IN ?", models.RequestTerminalStatuses).
		Where("deadline_date IS NOT NULL").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}
