package connectionhub

import (
	"sync"
	"testing"
	"time"

	wsmodels "org-portal-backend/models/ws"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu       sync.Mutex
	msgs     []wsmodels.ServerMessage
	closed   bool
	writeErr error
	attempts int
}

func (c *fakeConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attempts++
	if c.writeErr != nil {
		return c.writeErr
	}
	c.msgs = append(c.msgs, v.(wsmodels.ServerMessage))
	return nil
}

func (c *fakeConn) writeAttempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

func (c *fakeConn) WriteControl(messageType int, data []byte, deadline time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) received() []wsmodels.ServerMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]wsmodels.ServerMessage{}, c.msgs...)
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

type fakePending struct {
	mu     sync.Mutex
	list   []PendingMessage
	pushed []string
}

func (f *fakePending) ListNotPushed(userID string) ([]PendingMessage, error) {
	return f.list, nil
}

func (f *fakePending) MarkPushed(ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushed = append(f.pushed, ids...)
	return nil
}

func (f *fakePending) pushedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.pushed...)
}

func TestHub(t *testing.T) {
	t.Run(`pending notifications are replayed on connect`, func(t *testing.T) {
		store := &fakePending{list: []PendingMessage{{ID: "n1", Title: "t", Msg: "m", CreatedAt: time.Now()}}}
		hub := New(store)
		conn := &fakeConn{}
		hub.AddClient("u1", conn)

		require.Eventually(t, func() bool { return len(conn.received()) == 1 }, time.Second, 5*time.Millisecond)
		require.Equal(t, "n1", conn.received()[0].ID)
		require.Equal(t, wsmodels.CodeNotification, conn.received()[0].Code)
		require.Eventually(t, func() bool { return len(store.pushedIDs()) == 1 }, time.Second, 5*time.Millisecond)
	})

	t.Run(`failed write keeps the notification pending`, func(t *testing.T) {
		store := &fakePending{}
		hub := New(store)
		conn := &fakeConn{writeErr: errors.New("broken pipe")}
		hub.AddClient("u1", conn)

		require.True(t, hub.SendMessage(wsmodels.ServerMessage{ToUserID: "u1", ID: "n1", Code: wsmodels.CodeNotification}))
		require.Eventually(t, func() bool { return conn.writeAttempts() == 1 }, time.Second, 5*time.Millisecond)
		require.Empty(t, store.pushedIDs())

		fresh := &fakeConn{}
		hub.AddClient("u1", fresh)
		require.True(t, hub.SendMessage(wsmodels.ServerMessage{ToUserID: "u1", ID: "n1", Code: wsmodels.CodeNotification}))
		require.Eventually(t, func() bool { return len(store.pushedIDs()) == 1 }, time.Second, 5*time.Millisecond)
		require.Equal(t, []string{"n1"}, store.pushedIDs())
	})

	t.Run(`invalidations are not recorded as pushed`, func(t *testing.T) {
		store := &fakePending{}
		hub := New(store)
		conn := &fakeConn{}
		hub.AddClient("u1", conn)

		hub.Broadcast(wsmodels.ServerMessage{Code: wsmodels.CodeInvalidate, Keys: []string{"requests"}})
		require.Eventually(t, func() bool { return len(conn.received()) == 1 }, time.Second, 5*time.Millisecond)
		require.Empty(t, store.pushedIDs())
	})

	t.Run(`offline user`, func(t *testing.T) {
		hub := New(nil)
		require.False(t, hub.SendMessage(wsmodels.ServerMessage{ToUserID: "u1", Code: wsmodels.CodeNotification}))
		require.False(t, hub.IsConnected("u1"))
	})

	t.Run(`broadcast and disconnect`, func(t *testing.T) {
		hub := New(nil)
		c1, c2 := &fakeConn{}, &fakeConn{}
		hub.AddClient("u1", c1)
		hub.AddClient("u2", c2)
		hub.Broadcast(wsmodels.ServerMessage{Code: wsmodels.CodeInvalidate, Keys: []string{"requests"}})
		require.Eventually(t, func() bool { return len(c1.received()) == 1 && len(c2.received()) == 1 }, time.Second, 5*time.Millisecond)

		hub.DeleteClient("u1", c1)
		require.False(t, hub.IsConnected("u1"))
		require.Eventually(t, c1.isClosed, time.Second, 5*time.Millisecond)
		require.True(t, hub.IsConnected("u2"))
	})

	t.Run(`reconnect replaces the old session`, func(t *testing.T) {
		hub := New(nil)
		old, fresh := &fakeConn{}, &fakeConn{}
		hub.AddClient("u1", old)
		hub.AddClient("u1", fresh)
		require.Eventually(t, old.isClosed, time.Second, 5*time.Millisecond)
		require.True(t, hub.SendMessage(wsmodels.ServerMessage{ToUserID: "u1", Code: wsmodels.CodeNotification}))
		require.Eventually(t, func() bool { return len(fresh.received()) == 1 }, time.Second, 5*time.Millisecond)
		require.Empty(t, old.received())

		hub.DeleteClient("u1", old)
		require.True(t, hub.IsConnected("u1"))
	})
}
