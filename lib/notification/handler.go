package notificationhandler

import (
	"context"
	"time"

	"org-portal-backend/db"
	notificationstore "org-portal-backend/lib/notification/store"
	smsclient "org-portal-backend/lib/sms"
	"org-portal-backend/lib/smtp"
	usersstore "org-portal-backend/lib/users/store"
	"org-portal-backend/lib/utils/lock"
	whatsappclient "org-portal-backend/lib/whatsapp/client"
	connectionhub "org-portal-backend/lib/ws/hub/connection-hub"
	"org-portal-backend/models"
	notificationapimodels "org-portal-backend/models/api/notification"
	dbmodels "org-portal-backend/models/db"
	wsmodels "org-portal-backend/models/ws"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	notFoundMsg   = "الإشعار غير موجود"
	resendBusyMsg = "جارٍ إرسال هذا الإشعار، حاول لاحقاً"

	resendLockWait = 5 * time.Second
)

type Provider interface {
	// Notify stores an in-app notification and pushes it to the websocket
	Notify(ctx context.Context, userID string, data models.NotificationData, entityID string, entityType models.EntityType) error
	// Send stores a notification and delivers it over the requested channels.
	// A channel failure only clears its sent flag, the row is kept
	Send(ctx context.Context, data notificationapimodels.SendRequest) (notificationapimodels.SendResult, error)
	// Resend delivers again over the channels whose sent flag is false
	Resend(ctx context.Context, data notificationapimodels.ResendRequest) (result notificationapimodels.SendResult, hMsg string, err error)
	List(ctx context.Context, userID string, unreadOnly bool) ([]notificationapimodels.NotificationView, error)
	MarkRead(ctx context.Context, userID string, ids []string) (int64, error)
}

// Channels are the external senders, a nil sender means the channel is off
type Channels struct {
	WhatsApp whatsappclient.Provider
	Email    smtp.Provider
	Sms      smsclient.Provider
}

var Instance Provider

func NewHandler() {
	Instance = New(
		notificationstore.NewInstance(db.DB),
		usersstore.NewInstance(db.DB),
		connectionhub.Instance,
		Channels{
			WhatsApp: whatsappclient.Instance,
			Email:    smtp.Instance,
			Sms:      smsclient.Instance,
		},
	)
}

func New(store notificationstore.Provider, users usersstore.Provider, hub connectionhub.Provider, channels Channels) Provider {
	return impl{
		store:    store,
		users:    users,
		hub:      hub,
		channels: channels,
	}
}

type impl struct {
	store    notificationstore.Provider
	users    usersstore.Provider
	hub      connectionhub.Provider
	channels Channels
}

func (i impl) Notify(ctx context.Context, userID string, data models.NotificationData, entityID string, entityType models.EntityType) error {
	_, err := i.Send(ctx, notificationapimodels.SendRequest{
		UserID:            userID,
		Title:             data.Title,
		Message:           data.Msg,
		NotificationType:  data.Type,
		RelatedEntityID:   entityID,
		RelatedEntityType: entityType,
	})
	return err
}

func (i impl) Send(ctx context.Context, data notificationapimodels.SendRequest) (notificationapimodels.SendResult, error) {
	logger := log.
		WithField("user_id", data.UserID).
		WithField("notification_type", data.NotificationType)
	notificationType := data.NotificationType
	if notificationType == "" {
		notificationType = models.NotificationGeneral
	}
	rec := dbmodels.Notification{
		UserID:            data.UserID,
		Title:             data.Title,
		Message:           data.Message,
		NotificationType:  notificationType,
		RelatedEntityID:   data.RelatedEntityID,
		RelatedEntityType: data.RelatedEntityType,
		DedupKey:          data.DedupKey,
	}
	id, created, err := i.store.Create(rec)
	if err != nil {
		return notificationapimodels.SendResult{}, errors.Wrap(err, "notification create failed")
	}
	if !created {
		logger.WithField("dedup_key", data.DedupKey).Debug("notification already exists")
		return notificationapimodels.SendResult{}, nil
	}
	rec.ID = id
	rec.CreatedAt = time.Now()
	i.push(rec)

	result := notificationapimodels.SendResult{ID: id, Created: true}
	if len(data.Channels) == 0 {
		return result, nil
	}
	i.deliver(ctx, &rec, data.Channels)
	result.SentWhatsApp = rec.SentWhatsApp
	result.SentEmail = rec.SentEmail
	result.SentSms = rec.SentSms
	return result, nil
}

func (i impl) Resend(ctx context.Context, data notificationapimodels.ResendRequest) (notificationapimodels.SendResult, string, error) {
	var result notificationapimodels.SendResult
	var hMsg string
	// the flags are read under the lock so a concurrent resend sees the first one's outcome
	locked, err := lock.WithDelay(ctx, "notification-resend:"+data.NotificationID, resendLockWait, func() error {
		rec, err := i.store.GetByID(data.NotificationID)
		if err != nil {
			return errors.Wrap(err, "notification lookup failed")
		}
		if rec == nil {
			hMsg = notFoundMsg
			return nil
		}
		pending := []models.NotificationChannel{}
		for _, channel := range data.Channels {
			if !isSent(rec, channel) {
				pending = append(pending, channel)
			}
		}
		if len(pending) > 0 {
			i.deliver(ctx, rec, pending)
		}
		result = notificationapimodels.SendResult{
			ID:           rec.ID,
			SentWhatsApp: rec.SentWhatsApp,
			SentEmail:    rec.SentEmail,
			SentSms:      rec.SentSms,
		}
		return nil
	})
	if err != nil {
		return notificationapimodels.SendResult{}, "", err
	}
	if !locked {
		return notificationapimodels.SendResult{}, resendBusyMsg, nil
	}
	return result, hMsg, nil
}

func (i impl) List(ctx context.Context, userID string, unreadOnly bool) ([]notificationapimodels.NotificationView, error) {
	list, err := i.store.List(userID, unreadOnly)
	if err != nil {
		return nil, errors.Wrap(err, "notification list failed")
	}
	result := make([]notificationapimodels.NotificationView, 0, len(list))
	for _, rec := range list {
		result = append(result, notificationapimodels.NotificationConvert(rec))
	}
	return result, nil
}

func (i impl) MarkRead(ctx context.Context, userID string, ids []string) (int64, error) {
	count, err := i.store.MarkRead(userID, ids)
	if err != nil {
		return 0, errors.Wrap(err, "notification update failed")
	}
	return count, nil
}

func (i impl) push(rec dbmodels.Notification) {
	if i.hub == nil {
		return
	}
	// the hub marks the row pushed once the frame is written
	i.hub.SendMessage(wsmodels.ServerMessage{
		ToUserID: rec.UserID,
		ID:       rec.ID,
		Time:     rec.CreatedAt.Format(time.RFC3339),
		Code:     wsmodels.CodeNotification,
		Title:    rec.Title,
		Msg:      rec.Message,
	})
}

// deliver sends rec over channels and stores the resulting sent flags on rec
func (i impl) deliver(ctx context.Context, rec *dbmodels.Notification, channels []models.NotificationChannel) {
	logger := log.WithField("notification_id", rec.ID)
	user, err := i.users.GetByID(rec.UserID)
	if err != nil || user == nil {
		logger.WithError(err).Warn("notification recipient not found, channels skipped")
		return
	}
	updMap := map[string]interface{}{}
	for _, channel := range channels {
		if err = i.sendChannel(ctx, channel, user, rec); err != nil {
			logger.WithField("channel", channel).WithError(err).Warn("notification channel failed")
			continue
		}
		switch channel {
		case models.ChannelWhatsApp:
			rec.SentWhatsApp = true
			updMap["sent_whats_app"] = true
		case models.ChannelEmail:
			rec.SentEmail = true
			updMap["sent_email"] = true
		case models.ChannelSms:
			rec.SentSms = true
			updMap["sent_sms"] = true
		}
	}
	if err = i.store.UpdateFlags(rec.ID, updMap); err != nil {
		logger.WithError(err).Error("notification flags update failed")
	}
}

func (i impl) sendChannel(ctx context.Context, channel models.NotificationChannel, user *dbmodels.User, rec *dbmodels.Notification) error {
	text := rec.Message
	if rec.Title != "" {
		text = rec.Title + "\n" + rec.Message
	}
	switch channel {
	case models.ChannelWhatsApp:
		if i.channels.WhatsApp == nil {
			return whatsappclient.ErrNotConfigured
		}
		return i.channels.WhatsApp.SendTextMessage(ctx, user.Phone, text)
	case models.ChannelEmail:
		if i.channels.Email == nil {
			return smtp.ErrNotConfigured
		}
		return i.channels.Email.SendEMail(user.Email, rec.Title, rec.Message)
	case models.ChannelSms:
		if i.channels.Sms == nil {
			return smsclient.ErrNotConfigured
		}
		return i.channels.Sms.Send(ctx, user.Phone, text)
	}
	return errors.Errorf("unknown channel %v", channel)
}

func isSent(rec *dbmodels.Notification, channel models.NotificationChannel) bool {
	switch channel {
	case models.ChannelWhatsApp:
		return rec.SentWhatsApp
	case models.ChannelEmail:
		return rec.SentEmail
	case models.ChannelSms:
		return rec.SentSms
	}
	return false
}

// PendingStore exposes not pushed notifications to the websocket hub
func PendingStore(store notificationstore.Provider) connectionhub.PendingStore {
	return pendingStore{store: store}
}

type pendingStore struct {
	store notificationstore.Provider
}

func (p pendingStore) ListNotPushed(userID string) ([]connectionhub.PendingMessage, error) {
	list, err := p.store.ListNotPushed(userID)
	if err != nil {
		return nil, err
	}
	result := make([]connectionhub.PendingMessage, 0, len(list))
	for _, rec := range list {
		result = append(result, connectionhub.PendingMessage{
			ID:        rec.ID,
			Title:     rec.Title,
			Msg:       rec.Message,
			CreatedAt: rec.CreatedAt,
		})
	}
	return result, nil
}

func (p pendingStore) MarkPushed(ids []string) error {
	return p.store.MarkPushed(ids)
}
