package connectionhub

import (
	"sync"
	"time"

	wsmodels "org-portal-backend/models/ws"

	log "github.com/sirupsen/logrus"
)

// PendingStore holds notifications saved while the user was offline
type PendingStore interface {
	ListNotPushed(userID string) ([]PendingMessage, error)
	MarkPushed(ids []string) error
}

type PendingMessage struct {
	ID        string
	Title     string
	Msg       string
	CreatedAt time.Time
}

type Provider interface {
	AddClient(userID string, conn Conn)
	// DeleteClient drops the user's session if it still belongs to conn
	DeleteClient(userID string, conn Conn)
	// SendMessage queues msg for msg.ToUserID, false when the user is offline.
	// A notification is marked pushed only after it is written to the connection
	SendMessage(msg wsmodels.ServerMessage) bool
	Broadcast(msg wsmodels.ServerMessage)
	SendClose(userID string)
	IsConnected(userID string) bool
}

var Instance Provider

func Init(store PendingStore) {
	Instance = New(store)
}

func New(store PendingStore) Provider {
	return &impl{
		clients: map[string]*clientSession{},
		store:   store,
	}
}

type impl struct {
	mu      sync.RWMutex
	clients map[string]*clientSession //map[userID]
	store   PendingStore
}

func (i *impl) DeleteClient(userID string, conn Conn) {
	i.mu.Lock()
	sess, ok := i.clients[userID]
	ok = ok && sess.conn == conn
	if ok {
		delete(i.clients, userID)
	}
	i.mu.Unlock()
	if ok {
		sess.stop()
	}
}

func (i *impl) AddClient(userID string, conn Conn) {
	i.mu.Lock()
	oldSess, ok := i.clients[userID]
	i.clients[userID] = newSession(conn, i.delivered)
	i.mu.Unlock()
	if ok {
		oldSess.stop()
	}
	go i.sendDelayedMessages(userID)
}

func (i *impl) SendMessage(msg wsmodels.ServerMessage) bool {
	i.mu.RLock()
	sess, ok := i.clients[msg.ToUserID]
	i.mu.RUnlock()
	if !ok {
		return false
	}
	return sess.enqueue(msg)
}

func (i *impl) Broadcast(msg wsmodels.ServerMessage) {
	i.mu.RLock()
	sessions := make([]*clientSession, 0, len(i.clients))
	for _, sess := range i.clients {
		sessions = append(sessions, sess)
	}
	i.mu.RUnlock()
	for _, sess := range sessions {
		sess.enqueue(msg)
	}
}

func (i *impl) SendClose(userID string) {
	i.mu.RLock()
	sess, ok := i.clients[userID]
	i.mu.RUnlock()
	if ok {
		sess.stop()
	}
}

func (i *impl) IsConnected(userID string) bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	sess, ok := i.clients[userID]
	return ok && sess.conn != nil
}

func (i *impl) sendDelayedMessages(userID string) {
	if i.store == nil {
		return
	}
	logger := log.WithField("user_id", userID)
	list, err := i.store.ListNotPushed(userID)
	if err != nil {
		logger.WithError(err).Error("pending notifications lookup failed")
		return
	}
	for _, item := range list {
		msg := wsmodels.ServerMessage{
			ToUserID: userID,
			ID:       item.ID,
			Time:     item.CreatedAt.Format(time.RFC3339),
			Code:     wsmodels.CodeNotification,
			Title:    item.Title,
			Msg:      item.Msg,
		}
		if !i.SendMessage(msg) {
			// the rest stays pending for the next connect
			break
		}
	}
}

func (i *impl) delivered(msg any) {
	serverMsg, ok := msg.(wsmodels.ServerMessage)
	if !ok || serverMsg.Code != wsmodels.CodeNotification || serverMsg.ID == "" || i.store == nil {
		return
	}
	if err := i.store.MarkPushed([]string{serverMsg.ID}); err != nil {
		log.WithField("notification_id", serverMsg.ID).WithError(err).Error("notification push flag update failed")
	}
}
