package notificationstore

import (
	"errors"

	dbmodels "org-portal-backend/models/db"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Provider interface {
	// Create inserts rec. For a non-empty DedupKey an existing row with the same
	// (related_entity_id, notification_type, dedup_key) wins and created is false
	Create(rec dbmodels.Notification) (id string, created bool, err error)
	GetByID(id string) (*dbmodels.Notification, error)
	List(userID string, unreadOnly bool) ([]dbmodels.Notification, error)
	ListNotPushed(userID string) ([]dbmodels.Notification, error)
	MarkRead(userID string, ids []string) (int64, error)
	MarkPushed(ids []string) error
	UpdateFlags(id string, updMap map[string]interface{}) error
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Create(rec dbmodels.Notification) (string, bool, error) {
	tx := i.db.Omit(clause.Associations)
	if rec.DedupKey != "" {
		tx = tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "related_entity_id"},
				{Name: "notification_type"},
				{Name: "dedup_key"},
			},
			TargetWhere: clause.Where{Exprs: []clause.Expression{clause.Expr{SQL: "dedup_key <> ''"}}},
			DoNothing:   true,
		})
	}
	result := tx.Create(&rec)
	if result.Error != nil {
		return "", false, result.Error
	}
	if result.RowsAffected == 0 {
		return "", false, nil
	}
	return rec.ID, true, nil
}

func (i impl) GetByID(id string) (*dbmodels.Notification, error) {
	var rec dbmodels.Notification
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

func (i impl) List(userID string, unreadOnly bool) (list []dbmodels.Notification, err error) {
	list = []dbmodels.Notification{}
	tx := i.db.
		Where("user_id = ?", userID)
	if unreadOnly {
		tx = tx.Where("is_read = false")
	}
	err = tx.
		Order("created_at DESC").
		Limit(200).
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) ListNotPushed(userID string) (list []dbmodels.Notification, err error) {
	list = []dbmodels.Notification{}
	err = i.db.
		Where("user_id = ?", userID).
		Where("is_pushed = false").
		Where("is_read = false").
		Order("created_at ASC").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) MarkRead(userID string, ids []string) (int64, error) {
	result := i.db.
		Model(&dbmodels.Notification{}).
		Where("user_id = ?", userID).
		Where("id in (?)", ids).
		Update("is_read", true)
	return result.RowsAffected, result.Error
}

func (i impl) MarkPushed(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return i.db.
		Model(&dbmodels.Notification{}).
		Where("id in (?)", ids).
		Update("is_pushed", true).
		Error
}

func (i impl) UpdateFlags(id string, updMap map[string]interface{}) error {
	if len(updMap) == 0 {
		return nil
	}
	return i.db.
		Model(&dbmodels.Notification{}).
		Where("id = ?", id).
		Updates(updMap).
		Error
}
