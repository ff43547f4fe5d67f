package querycache

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestQueryCache(t *testing.T) {
	t.Run(`invalidated key is refetched on next read`, func(t *testing.T) {
		c := New(time.Minute)
		fetches := 0
		fetch := func() (int, error) {
			fetches++
			return fetches, nil
		}

		v, err := Fetch(c, RequestKey("r1"), fetch)
		require.Nil(t, err)
		require.Equal(t, 1, v)
		require.False(t, c.IsStale(RequestKey("r1")))

		v, _ = Fetch(c, RequestKey("r1"), fetch)
		require.Equal(t, 1, v)

		c.Invalidate(RequestKey("r1"))
		require.True(t, c.IsStale(RequestKey("r1")))

		v, _ = Fetch(c, RequestKey("r1"), fetch)
		require.Equal(t, 2, v)
		require.Equal(t, 2, fetches)
	})

	t.Run(`fetch error is not cached`, func(t *testing.T) {
		c := New(time.Minute)
		_, err := Fetch(c, RequestsKey, func() ([]string, error) { return nil, errors.New("down") })
		require.EqualError(t, err, "down")
		require.True(t, c.IsStale(RequestsKey))
	})

	t.Run(`listeners receive unique keys`, func(t *testing.T) {
		c := New(time.Minute)
		var got [][]string
		c.OnInvalidate(func(keys []string) { got = append(got, keys) })

		c.Invalidate(RequestsKey, IncomingKey("u1"), IncomingKey("u1"), RequestKey("r1"))
		require.Len(t, got, 1)
		require.Equal(t, []string{RequestsKey, "incoming-requests:u1", "request:r1"}, got[0])
	})

	t.Run(`prefix invalidation`, func(t *testing.T) {
		c := New(time.Minute)
		for _, user := range []string{"u1", "u2"} {
			_, _ = Fetch(c, IncomingKey(user), func() (string, error) { return user, nil })
		}
		_, _ = Fetch(c, WorkspacesKey("u1"), func() (string, error) { return "w", nil })

		c.InvalidatePrefix(IncomingPrefix())
		require.True(t, c.IsStale(IncomingKey("u1")))
		require.True(t, c.IsStale(IncomingKey("u2")))
		require.False(t, c.IsStale(WorkspacesKey("u1")))
	})

	t.Run(`base key invalidates parameterized variants`, func(t *testing.T) {
		c := New(time.Minute)
		pageKey := WithParams(RequestsKey, "page=2")
		_, _ = Fetch(c, pageKey, func() (int, error) { return 2, nil })
		_, _ = Fetch(c, RequestKey("r1"), func() (int, error) { return 1, nil })
		require.False(t, c.IsStale(pageKey))

		c.Invalidate(RequestsKey)
		require.True(t, c.IsStale(pageKey))
		require.False(t, c.IsStale(RequestKey("r1")))

		c.Invalidate(RequestsKey)
		require.True(t, c.IsStale(pageKey))
	})

	t.Run(`key owner`, func(t *testing.T) {
		require.Equal(t, "u1", KeyOwner(IncomingKey("u1")))
		require.Equal(t, "u2", KeyOwner(WithParams(WorkspacesKey("u2"), "page=1")))
		require.Empty(t, KeyOwner(RequestsKey))
		require.Empty(t, KeyOwner(RequestKey("r1")))
	})
}

func TestFetchOverlappingInvalidateIsNotKept(t *testing.T) {
	c := New(time.Minute)
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan string)
	go func() {
		v, _ := Fetch(c, RequestKey("r1"), func() (string, error) {
			close(started)
			<-release
			return "old", nil
		})
		done <- v
	}()

	<-started
	c.Invalidate(RequestKey("r1"))
	close(release)
	require.Equal(t, "old", <-done)
	require.True(t, c.IsStale(RequestKey("r1")))

	v, err := Fetch(c, RequestKey("r1"), func() (string, error) { return "new", nil })
	require.NoError(t, err)
	require.Equal(t, "new", v)
	require.False(t, c.IsStale(RequestKey("r1")))
}

func TestFetchOverlappingPrefixInvalidateIsNotKept(t *testing.T) {
	c := New(time.Minute)
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_, _ = Fetch(c, IncomingKey("u1"), func() (string, error) {
			close(started)
			<-release
			return "old", nil
		})
		close(done)
	}()

	<-started
	c.InvalidatePrefix(IncomingPrefix())
	close(release)
	<-done
	require.True(t, c.IsStale(IncomingKey("u1")))
}
