package notificationhandler_test

import (
	"context"
	"sync"
	"testing"

	notificationhandler "org-portal-backend/lib/notification"
	"org-portal-backend/lib/notification/notificationtest"
	"org-portal-backend/lib/request/requesttest"
	connectionhub "org-portal-backend/lib/ws/hub/connection-hub"
	"org-portal-backend/models"
	notificationapimodels "org-portal-backend/models/api/notification"
	wsmodels "org-portal-backend/models/ws"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type fakeHub struct {
	connectionhub.Provider
	mu     sync.Mutex
	online map[string]bool
	sent   []wsmodels.ServerMessage
}

func (h *fakeHub) SendMessage(msg wsmodels.ServerMessage) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.online[msg.ToUserID] {
		return false
	}
	h.sent = append(h.sent, msg)
	return true
}

type fakeWhatsApp struct {
	err  error
	sent []string
}

func (f *fakeWhatsApp) SendTextMessage(ctx context.Context, recipient, msg string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, recipient)
	return nil
}

type fakeEmail struct {
	sent []string
}

func (f *fakeEmail) SendEMail(to, subject, message string) error {
	f.sent = append(f.sent, to)
	return nil
}

type fixture struct {
	handler  notificationhandler.Provider
	store    *notificationtest.Store
	hub      *fakeHub
	whatsapp *fakeWhatsApp
	email    *fakeEmail
}

func newFixture() fixture {
	mem := requesttest.NewMemory()
	user := mem.AddUser("u1", models.EmployeeRole)
	user.Email = "u1@org.sa"
	user.Phone = "+966500000001"
	f := fixture{
		store:    &notificationtest.Store{},
		hub:      &fakeHub{online: map[string]bool{"u1": true}},
		whatsapp: &fakeWhatsApp{},
		email:    &fakeEmail{},
	}
	f.handler = notificationhandler.New(f.store, mem.Stores().Users, f.hub, notificationhandler.Channels{
		WhatsApp: f.whatsapp,
		Email:    f.email,
	})
	return f
}

func TestSend(t *testing.T) {
	ctx := context.Background()

	t.Run(`channels set sent flags, failures keep the row`, func(t *testing.T) {
		f := newFixture()
		f.whatsapp.err = errors.New("graph api down")
		res, err := f.handler.Send(ctx, notificationapimodels.SendRequest{
			UserID:   "u1",
			Title:    "عنوان",
			Message:  "نص",
			Channels: []models.NotificationChannel{models.ChannelWhatsApp, models.ChannelEmail, models.ChannelSms},
		})
		require.NoError(t, err)
		require.True(t, res.Created)
		require.False(t, res.SentWhatsApp)
		require.True(t, res.SentEmail)
		require.False(t, res.SentSms)
		require.Equal(t, []string{"u1@org.sa"}, f.email.sent)

		rec, err := f.store.GetByID(res.ID)
		require.NoError(t, err)
		require.True(t, rec.SentEmail)
		require.Len(t, f.hub.sent, 1)
		require.False(t, rec.IsPushed)
		require.Equal(t, models.NotificationGeneral, rec.NotificationType)
	})

	t.Run(`dedup key inserts once`, func(t *testing.T) {
		f := newFixture()
		req := notificationapimodels.SendRequest{
			UserID:           "u1",
			Title:            "تذكير",
			NotificationType: models.NotificationDeadlineReminder,
			RelatedEntityID:  "task-1",
			DedupKey:         "due_in_2",
		}
		first, err := f.handler.Send(ctx, req)
		require.NoError(t, err)
		require.True(t, first.Created)
		second, err := f.handler.Send(ctx, req)
		require.NoError(t, err)
		require.False(t, second.Created)
		require.Equal(t, 1, f.store.Count())
		require.Len(t, f.hub.sent, 1)
	})

	t.Run(`offline user keeps the notification for replay`, func(t *testing.T) {
		f := newFixture()
		f.hub.online["u1"] = false
		require.NoError(t, f.handler.Notify(ctx, "u1", models.GetRequestCompleted("إجازة"), "r1", models.EntityRequest))
		pending, err := f.store.ListNotPushed("u1")
		require.NoError(t, err)
		require.Len(t, pending, 1)
		require.Equal(t, models.NotificationRequestCompleted, pending[0].NotificationType)
	})
}

func TestResend(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.whatsapp.err = errors.New("timeout")
	res, err := f.handler.Send(ctx, notificationapimodels.SendRequest{
		UserID:   "u1",
		Message:  "نص",
		Channels: []models.NotificationChannel{models.ChannelWhatsApp, models.ChannelEmail},
	})
	require.NoError(t, err)
	require.False(t, res.SentWhatsApp)

	f.whatsapp.err = nil
	res, hMsg, err := f.handler.Resend(ctx, notificationapimodels.ResendRequest{
		NotificationID: res.ID,
		Channels:       []models.NotificationChannel{models.ChannelWhatsApp, models.ChannelEmail},
	})
	require.NoError(t, err)
	require.Empty(t, hMsg)
	require.True(t, res.SentWhatsApp)
	require.True(t, res.SentEmail)
	require.Len(t, f.email.sent, 1)
	require.Equal(t, []string{"+966500000001"}, f.whatsapp.sent)

	_, hMsg, err = f.handler.Resend(ctx, notificationapimodels.ResendRequest{NotificationID: "missing"})
	require.NoError(t, err)
	require.NotEmpty(t, hMsg)
}

func TestListAndMarkRead(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	require.NoError(t, f.handler.Notify(ctx, "u1", models.GetRequestAssigned("إجازة", "المدير"), "r1", models.EntityRequest))
	require.NoError(t, f.handler.Notify(ctx, "u1", models.GetRequestApproved("إجازة", "أحمد"), "r1", models.EntityRequest))
	require.NoError(t, f.handler.Notify(ctx, "u2", models.GetRequestApproved("سفر", "أحمد"), "r2", models.EntityRequest))

	list, err := f.handler.List(ctx, "u1", true)
	require.NoError(t, err)
	require.Len(t, list, 2)

	count, err := f.handler.MarkRead(ctx, "u2", []string{list[0].ID})
	require.NoError(t, err)
	require.Zero(t, count)
	count, err = f.handler.MarkRead(ctx, "u1", []string{list[0].ID})
	require.NoError(t, err)
	require.EqualValues(t, 1, count)

	list, err = f.handler.List(ctx, "u1", true)
	require.NoError(t, err)
	require.Len(t, list, 1)
	list, err = f.handler.List(ctx, "u1", false)
	require.NoError(t, err)
	require.Len(t, list, 2)
}
