package oauth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nkiryanov/runboard/internal/apperrors"
)

const (
	stateSubject    = "strava-oauth"
	defaultStateTTL = 10 * time.Minute
)

// StateSigner issues and verifies the OAuth 'state' parameter.
// The state is short lived HS256 JWT, so no server side storage is needed.
type StateSigner struct {
	key []byte
	alg jwt.SigningMethod
	ttl time.Duration
	now func() time.Time
}

func NewStateSigner(secret string) (*StateSigner, error) {
	if secret == "" {
		return nil, errors.New("secret key must not be empty")
	}

	return &StateSigner{
		key: []byte(secret),
		alg: jwt.SigningMethodHS256,
		ttl: defaultStateTTL,
		now: time.Now,
	}, nil
}

func (s *StateSigner) Issue() (string, error) {
	now := s.now().Truncate(time.Second)

	token := jwt.NewWithClaims(s.alg, jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   stateSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	})

	state, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("error while signing state. Err: %w", err)
	}

	return state, nil
}

func (s *StateSigner) Verify(state string) error {
	_, err := jwt.ParseWithClaims(
		state,
		&jwt.RegisteredClaims{},
		func(*jwt.Token) (any, error) { return s.key, nil },
		jwt.WithValidMethods([]string{s.alg.Alg()}),
		jwt.WithSubject(stateSubject),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidState, err)
	}

	return nil
}
