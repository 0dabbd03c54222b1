package tokenstore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/nkiryanov/runboard/internal/logger"
	"github.com/nkiryanov/runboard/internal/models"
	"github.com/nkiryanov/runboard/internal/repository"
)

type sealer interface {
	Seal(plain string) (string, error)
	Open(sealed string) (string, error)
}

// Store is the only component that reads or writes persisted credentials
type Store struct {
	repo   repository.TokenRepo
	sealer sealer
	logger logger.Logger
}

func New(repo repository.TokenRepo, sealer sealer, l logger.Logger) *Store {
	return &Store{
		repo:   repo,
		sealer: sealer,
		logger: l,
	}
}

// Load returns persisted credential; false if never authenticated.
// Unreadable or corrupted storage is logged and treated as absence.
func (s *Store) Load(ctx context.Context) (models.Credential, bool) {
	var c models.Credential

	entries, err := s.repo.Get(ctx, models.KeyAccessToken, models.KeyRefreshToken, models.KeyExpiresAt)
	if err != nil {
		s.logger.Error("Failed to read credential", "error", err)
		return c, false
	}

	access, ok := entries[models.KeyAccessToken]
	if !ok {
		return c, false
	}

	c.AccessToken, err = s.sealer.Open(access)
	if err != nil {
		s.logger.Warn("Stored access token can't be opened", "error", err)
		return models.Credential{}, false
	}

	if refresh, ok := entries[models.KeyRefreshToken]; ok {
		c.RefreshToken, err = s.sealer.Open(refresh)
		if err != nil {
			s.logger.Warn("Stored refresh token can't be opened", "error", err)
			return models.Credential{}, false
		}
	}

	// Missing or broken expiry means expired: forces refresh before use
	if raw, ok := entries[models.KeyExpiresAt]; ok {
		c.ExpiresAt, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			s.logger.Warn("Stored expiry is not a number", "value", raw)
			c.ExpiresAt = 0
		}
	}

	return c, true
}

// Save overwrites persisted credential
func (s *Store) Save(ctx context.Context, c models.Credential) error {
	access, err := s.sealer.Seal(c.AccessToken)
	if err != nil {
		return fmt.Errorf("seal access token: %w", err)
	}
	refresh, err := s.sealer.Seal(c.RefreshToken)
	if err != nil {
		return fmt.Errorf("seal refresh token: %w", err)
	}

	err = s.repo.Set(ctx, map[string]string{
		models.KeyAccessToken:  access,
		models.KeyRefreshToken: refresh,
		models.KeyExpiresAt:    strconv.FormatInt(c.ExpiresAt, 10),
	})
	if err != nil {
		return fmt.Errorf("save credential: %w", err)
	}

	s.logger.Debug("Credential saved", "expires_at", c.Expiry())
	return nil
}

func (s *Store) IsExpired(c models.Credential, now time.Time) bool {
	return IsExpired(c, now)
}

// IsExpired is true iff now >= expiresAt
func IsExpired(c models.Credential, now time.Time) bool {
	return now.Unix() >= c.ExpiresAt
}
