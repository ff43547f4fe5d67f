package notificationapimodels

import (
	"time"

	"org-portal-backend/models"
	dbmodels "org-portal-backend/models/db"

	"github.com/pkg/errors"
)

// SendRequest is the body of the send-notification function
type SendRequest struct {
	UserID            string                       `json:"user_id"`
	Title             string                       `json:"title"`
	Message           string                       `json:"message"`
	NotificationType  models.NotificationType      `json:"notification_type"`
	RelatedEntityID   string                       `json:"related_entity_id"`
	RelatedEntityType models.EntityType            `json:"related_entity_type"`
	DedupKey          string                       `json:"dedup_key"`
	Channels          []models.NotificationChannel `json:"channels"`
}

func (r SendRequest) Validate() error {
	if r.UserID == "" {
		return errors.New("user_id is required")
	}
	if r.Title == "" && r.Message == "" {
		return errors.New("title or message is required")
	}
	for _, ch := range r.Channels {
		switch ch {
		case models.ChannelWhatsApp, models.ChannelEmail, models.ChannelSms:
		default:
			return errors.Errorf("unknown channel %v", ch)
		}
	}
	return nil
}

type ResendRequest struct {
	NotificationID string                       `json:"notification_id"`
	Channels       []models.NotificationChannel `json:"channels"`
}

func (r ResendRequest) Validate() error {
	if r.NotificationID == "" {
		return errors.New("notification_id is required")
	}
	return nil
}

type MarkReadRequest struct {
	IDs []string `json:"ids"`
}

func (r MarkReadRequest) Validate() error {
	if len(r.IDs) == 0 {
		return errors.New("لم يتم تحديد أي إشعار")
	}
	return nil
}

type SendResult struct {
	ID           string `json:"id"`
	Created      bool   `json:"created"` // false when the dedup key already existed
	SentWhatsApp bool   `json:"sent_whatsapp"`
	SentEmail    bool   `json:"sent_email"`
	SentSms      bool   `json:"sent_sms"`
}

type NotificationView struct {
	ID                string                  `json:"id"`
	Title             string                  `json:"title"`
	Message           string                  `json:"message"`
	NotificationType  models.NotificationType `json:"notification_type"`
	RelatedEntityID   string                  `json:"related_entity_id"`
	RelatedEntityType models.EntityType       `json:"related_entity_type"`
	IsRead            bool                    `json:"is_read"`
	CreatedAt         time.Time               `json:"created_at"`
}

func NotificationConvert(rec dbmodels.Notification) NotificationView {
	return NotificationView{
		ID:                rec.ID,
		Title:             rec.Title,
		Message:           rec.Message,
		NotificationType:  rec.NotificationType,
		RelatedEntityID:   rec.RelatedEntityID,
		RelatedEntityType: rec.RelatedEntityType,
		IsRead:            rec.IsRead,
		CreatedAt:         rec.CreatedAt,
	}
}

type ReminderRunResult struct {
	Executed bool `json:"executed"` // false when another instance ran the pass
	Checked  int  `json:"checked"`
	Inserted int  `json:"inserted"`
	Skipped  int  `json:"skipped"`
}
