package dbmodels

import (
	"time"

	"org-portal-backend/models"
)

// Notification rows with a non-empty DedupKey are unique per
// (related_entity_id, notification_type, dedup_key), see db.AutoMigrateDB
type Notification struct {
	BaseModel
	UserID            string                  `gorm:"type:varchar(36);index"`
	Title             string                  `gorm:"type:varchar(255)"`
	Message           string
	NotificationType  models.NotificationType `gorm:"type:varchar(50)"`
	RelatedEntityID   string                  `gorm:"type:varchar(36)"`
	RelatedEntityType models.EntityType       `gorm:"type:varchar(30)"`
	DedupKey          string                  `gorm:"type:varchar(50)"`
	IsRead            bool
	IsPushed          bool // delivered over the websocket
	SentWhatsApp      bool
	SentEmail         bool
	SentSms           bool
}

type JobCheckpoint struct {
	JobName       string `gorm:"primaryKey;type:varchar(100)"`
	LastRunAt     *time.Time
	LastSuccessAt *time.Time
	LastError     string
	UpdatedAt     time.Time
}
