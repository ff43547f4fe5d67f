package ws

import (
	"sort"
	"sync"
	"testing"
	"time"

	"org-portal-backend/lib/querycache"
	connectionhub "org-portal-backend/lib/ws/hub/connection-hub"
	wsmodels "org-portal-backend/models/ws"

	"github.com/stretchr/testify/require"
)

type recordingHub struct {
	connectionhub.Provider
	mu        sync.Mutex
	direct    []wsmodels.ServerMessage
	broadcast []wsmodels.ServerMessage
}

func (h *recordingHub) SendMessage(msg wsmodels.ServerMessage) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.direct = append(h.direct, msg)
	return true
}

func (h *recordingHub) Broadcast(msg wsmodels.ServerMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcast = append(h.broadcast, msg)
}

func TestListenInvalidations(t *testing.T) {
	cache := querycache.New(time.Minute)
	hub := &recordingHub{}
	ListenInvalidations(cache, hub)

	cache.Invalidate(querycache.RequestsKey, querycache.RequestKey("r1"), querycache.IncomingKey("u1"), querycache.IncomingKey("u2"))

	require.Len(t, hub.broadcast, 1)
	require.Equal(t, wsmodels.CodeInvalidate, hub.broadcast[0].Code)
	require.ElementsMatch(t, []string{querycache.RequestsKey, querycache.RequestKey("r1")}, hub.broadcast[0].Keys)

	require.Len(t, hub.direct, 2)
	sort.Slice(hub.direct, func(i, j int) bool { return hub.direct[i].ToUserID < hub.direct[j].ToUserID })
	require.Equal(t, "u1", hub.direct[0].ToUserID)
	require.Equal(t, []string{querycache.IncomingKey("u1")}, hub.direct[0].Keys)
	require.Equal(t, "u2", hub.direct[1].ToUserID)
}

func TestListenInvalidationsOwnedOnly(t *testing.T) {
	cache := querycache.New(time.Minute)
	hub := &recordingHub{}
	ListenInvalidations(cache, hub)

	cache.Invalidate(querycache.WorkspacesKey("u1"))

	require.Empty(t, hub.broadcast)
	require.Len(t, hub.direct, 1)
	require.Equal(t, "u1", hub.direct[0].ToUserID)
}
