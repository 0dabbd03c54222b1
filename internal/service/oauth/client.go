package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/nkiryanov/runboard/internal/apperrors"
	"github.com/nkiryanov/runboard/internal/logger"
	"github.com/nkiryanov/runboard/internal/models"
)

const (
	DefaultBaseURL = "https://www.strava.com/oauth"

	// Strava expects comma separated scopes in single parameter
	defaultScope   = "read,activity:read_all"
	requestTimeout = 5 * time.Second
)

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// Strava OAuth base, '/authorize' and '/token' are appended
	// If not set than default is used
	BaseURL string

	// If not set than http.DefaultClient is used
	HTTPClient *http.Client
}

// Client talks to Strava OAuth token endpoint.
// It never persists anything, that is caller's job.
type Client struct {
	cfg        oauth2.Config
	httpClient *http.Client
	logger     logger.Logger
}

func New(cfg Config, l logger.Logger) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("strava client id and secret must not be empty")
	}

	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}

	return &Client{
		cfg: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{defaultScope},
			Endpoint: oauth2.Endpoint{
				AuthURL:   base + "/authorize",
				TokenURL:  base + "/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		httpClient: cfg.HTTPClient,
		logger:     l,
	}, nil
}

// AuthCodeURL is where the user is sent to grant access
func (c *Client) AuthCodeURL(state string) string {
	return c.cfg.AuthCodeURL(state, oauth2.SetAuthURLParam("approval_prompt", "auto"))
}

// ExchangeCode trades authorization code for credential
func (c *Client) ExchangeCode(ctx context.Context, code string) (models.Credential, error) {
	if code == "" {
		return models.Credential{}, apperrors.NewAuthError("exchange", apperrors.ErrInvalidGrant)
	}

	ctx, cancel := c.requestContext(ctx)
	defer cancel()

	token, err := c.cfg.Exchange(ctx, code)
	if err != nil {
		return models.Credential{}, c.authError("exchange", err)
	}

	c.logger.Info("Authorization code exchanged")
	return c.toCredential(token), nil
}

// Refresh trades refresh token for new credential
func (c *Client) Refresh(ctx context.Context, refreshToken string) (models.Credential, error) {
	if refreshToken == "" {
		return models.Credential{}, apperrors.NewAuthError("refresh", apperrors.ErrInvalidGrant)
	}

	ctx, cancel := c.requestContext(ctx)
	defer cancel()

	// Token without access part is never valid, so the source goes straight to refresh
	token, err := c.cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return models.Credential{}, c.authError("refresh", err)
	}

	c.logger.Info("Access token refreshed")
	return c.toCredential(token), nil
}

func (c *Client) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	if c.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	}
	return ctx, cancel
}

// Token endpoint answered with error: grant is bad. Otherwise network or server trouble
func (c *Client) authError(op string, err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
		status := retrieveErr.Response.StatusCode
		c.logger.Warn("Token endpoint rejected request", "op", op, "status_code", status)

		if status >= 400 && status < 500 {
			return apperrors.NewAuthError(op, fmt.Errorf("%w: status %d", apperrors.ErrInvalidGrant, status))
		}
		return apperrors.NewAuthError(op, fmt.Errorf("token endpoint status %d", status))
	}

	c.logger.Warn("Token request failed", "op", op, "error", err)
	return apperrors.NewAuthError(op, err)
}

// Strava sends absolute 'expires_at' alongside 'expires_in', prefer the absolute one
func (c *Client) toCredential(token *oauth2.Token) models.Credential {
	cred := models.Credential{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}

	if expiresAt, ok := parseExpiresAt(token.Extra("expires_at")); ok {
		cred.ExpiresAt = expiresAt
	} else if !token.Expiry.IsZero() {
		cred.ExpiresAt = token.Expiry.Unix()
	} else {
		c.logger.Warn("Token response has no expiry, credential treated as expired")
	}

	return cred
}

func parseExpiresAt(v any) (int64, bool) {
	switch value := v.(type) {
	case float64:
		return int64(value), true
	case int64:
		return value, true
	case json.Number:
		n, err := value.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(value, 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}
