package helpers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHelpers(t *testing.T) {
	t.Run(`DaysUntil check`, func(t *testing.T) {
		loc := time.FixedZone("AST", 3*60*60)
		now := time.Date(2026, 3, 10, 23, 30, 0, 0, loc)

		require.Equal(t, 2, DaysUntil(now, time.Date(2026, 3, 12, 0, 5, 0, 0, loc), loc))
		require.Equal(t, 0, DaysUntil(now, time.Date(2026, 3, 10, 8, 0, 0, 0, loc), loc))
		require.Equal(t, -1, DaysUntil(now, time.Date(2026, 3, 9, 23, 59, 0, 0, loc), loc))
		// 2026-03-10 22:00 UTC is already 2026-03-11 in loc
		require.Equal(t, 1, DaysUntil(now, time.Date(2026, 3, 10, 22, 0, 0, 0, time.UTC), loc))
	})

	t.Run(`DaysUntil across month check`, func(t *testing.T) {
		now := time.Date(2026, 2, 27, 12, 0, 0, 0, time.UTC)
		require.Equal(t, 2, DaysUntil(now, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), nil))
	})

	t.Run(`IsContextDone check`, func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		require.False(t, IsContextDone(ctx))
		cancel()
		require.True(t, IsContextDone(ctx))
	})

	t.Run(`IsBlank check`, func(t *testing.T) {
		require.True(t, IsBlank(" \t\n"))
		require.False(t, IsBlank(" رأي "))
	})
}
