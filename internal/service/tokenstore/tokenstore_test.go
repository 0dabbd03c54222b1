package tokenstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/runboard/internal/logger"
	"github.com/nkiryanov/runboard/internal/models"
	"github.com/nkiryanov/runboard/internal/repository/file"
	sealerpkg "github.com/nkiryanov/runboard/internal/sealer"
)

type brokenRepo struct{}

func (brokenRepo) Get(context.Context, ...string) (map[string]string, error) {
	return nil, errors.New("disk on fire")
}

func (brokenRepo) Set(context.Context, map[string]string) error {
	return errors.New("disk on fire")
}

func newStore(t *testing.T) (*Store, *file.TokenRepo) {
	t.Helper()

	box, err := sealerpkg.New("test-secret")
	require.NoError(t, err)
	repo := file.NewTokenRepo(t.TempDir())

	return New(repo, box, logger.NewNoOpLogger()), repo
}

func TestStore(t *testing.T) {
	cred := models.Credential{
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		ExpiresAt:    1_700_000_000,
	}

	t.Run("load never authenticated", func(t *testing.T) {
		s, _ := newStore(t)

		_, ok := s.Load(t.Context())

		require.False(t, ok, "empty store should report absence")
	})

	t.Run("save and load", func(t *testing.T) {
		s, _ := newStore(t)

		err := s.Save(t.Context(), cred)
		require.NoError(t, err)

		got, ok := s.Load(t.Context())
		require.True(t, ok)
		require.Equal(t, cred, got)
	})

	t.Run("tokens sealed at rest", func(t *testing.T) {
		s, repo := newStore(t)
		require.NoError(t, s.Save(t.Context(), cred))

		raw, err := repo.Get(t.Context(), models.KeyAccessToken, models.KeyRefreshToken, models.KeyExpiresAt)

		require.NoError(t, err)
		require.NotEqual(t, "access-token", raw[models.KeyAccessToken])
		require.NotEqual(t, "refresh-token", raw[models.KeyRefreshToken])
		require.Equal(t, "1700000000", raw[models.KeyExpiresAt], "expiry stored as epoch seconds string")
	})

	t.Run("save overwrites", func(t *testing.T) {
		s, _ := newStore(t)
		require.NoError(t, s.Save(t.Context(), cred))

		next := models.Credential{AccessToken: "a2", RefreshToken: "r2", ExpiresAt: 1_800_000_000}
		require.NoError(t, s.Save(t.Context(), next))

		got, ok := s.Load(t.Context())
		require.True(t, ok)
		require.Equal(t, next, got)
	})

	t.Run("corrupted entries treated as absent", func(t *testing.T) {
		s, repo := newStore(t)
		require.NoError(t, repo.Set(t.Context(), map[string]string{models.KeyAccessToken: "plain-not-sealed"}))

		_, ok := s.Load(t.Context())

		require.False(t, ok)
	})

	t.Run("broken expiry means expired", func(t *testing.T) {
		s, repo := newStore(t)
		require.NoError(t, s.Save(t.Context(), cred))
		require.NoError(t, repo.Set(t.Context(), map[string]string{models.KeyExpiresAt: "soon"}))

		got, ok := s.Load(t.Context())

		require.True(t, ok)
		require.True(t, s.IsExpired(got, time.Now()))
	})

	t.Run("storage failure never escapes load", func(t *testing.T) {
		box, err := sealerpkg.New("test-secret")
		require.NoError(t, err)
		s := New(brokenRepo{}, box, logger.NewNoOpLogger())

		_, ok := s.Load(t.Context())
		require.False(t, ok)

		err = s.Save(t.Context(), cred)
		require.Error(t, err, "save reports storage failure to caller")
	})
}

func TestIsExpired(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	tests := []struct {
		name      string
		expiresAt int64
		expected  bool
	}{
		{"one second in the past", now.Unix() - 1, true},
		{"exactly now", now.Unix(), true},
		{"one second in the future", now.Unix() + 1, false},
		{"never set", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := models.Credential{AccessToken: "a", ExpiresAt: tt.expiresAt}

			require.Equal(t, tt.expected, IsExpired(c, now))
		})
	}
}
