package activity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReduce(t *testing.T) {
	t.Run("first page", func(t *testing.T) {
		s := reduce(initialState(), eventRequested{})

		require.Equal(t, PhaseFetching, s.Phase)
		require.True(t, s.Loading)
		require.Equal(t, 1, s.Page)
	})

	t.Run("full page advances cursor", func(t *testing.T) {
		s := reduce(initialState(), eventRequested{})
		s = reduce(s, eventSucceeded{count: 30, hasMore: true})

		require.Equal(t, PhaseFetching, s.Phase)
		require.False(t, s.Loading)
		require.True(t, s.HasMore)
		require.Equal(t, 2, s.Page)
	})

	t.Run("short page exhausts", func(t *testing.T) {
		s := reduce(initialState(), eventRequested{})
		s = reduce(s, eventSucceeded{count: 12, hasMore: false})

		require.Equal(t, PhaseExhausted, s.Phase)
		require.False(t, s.HasMore)
		require.Equal(t, 2, s.Page)
	})

	t.Run("empty page keeps cursor", func(t *testing.T) {
		s := reduce(initialState(), eventRequested{})
		s = reduce(s, eventSucceeded{count: 0, hasMore: false})

		require.Equal(t, PhaseExhausted, s.Phase)
		require.Equal(t, 1, s.Page)
	})

	t.Run("exhausted ignores requests", func(t *testing.T) {
		s := reduce(initialState(), eventRequested{})
		s = reduce(s, eventSucceeded{count: 3})

		next := reduce(s, eventRequested{})

		require.Equal(t, s, next)
	})

	t.Run("failure keeps page for retry", func(t *testing.T) {
		s := reduce(initialState(), eventRequested{})
		s = reduce(s, eventSucceeded{count: 30, hasMore: true})
		s = reduce(s, eventRequested{})
		s = reduce(s, eventFailed{reason: "boom"})

		require.Equal(t, PhaseErrored, s.Phase)
		require.Equal(t, "boom", s.Reason)
		require.Equal(t, 2, s.Page)
		require.False(t, s.Loading)

		s = reduce(s, eventRequested{})
		require.Equal(t, PhaseFetching, s.Phase)
		require.Empty(t, s.Reason, "reason cleared on retry")
	})

	t.Run("completion without request ignored", func(t *testing.T) {
		s := initialState()

		require.Equal(t, s, reduce(s, eventSucceeded{count: 30, hasMore: true}))
		require.Equal(t, s, reduce(s, eventFailed{reason: "late"}))
	})

	t.Run("reset from anywhere", func(t *testing.T) {
		s := reduce(initialState(), eventRequested{})
		s = reduce(s, eventSucceeded{count: 5})

		require.Equal(t, initialState(), reduce(s, eventReset{}))
	})

	t.Run("phase names", func(t *testing.T) {
		require.Equal(t, "idle", PhaseIdle.String())
		require.Equal(t, "fetching", PhaseFetching.String())
		require.Equal(t, "exhausted", PhaseExhausted.String())
		require.Equal(t, "errored", PhaseErrored.String())
	})
}
