package models

import (
	"time"
)

// Keys under which credential entries are persisted
const (
	KeyAccessToken  = "strava_access_token"
	KeyRefreshToken = "strava_refresh_token"
	KeyExpiresAt    = "strava_expires_at"
)

// Strava OAuth credential
type Credential struct {
	AccessToken  string
	RefreshToken string

	// Unix epoch seconds
	ExpiresAt int64
}

// Expiry as time value
func (c Credential) Expiry() time.Time {
	return time.Unix(c.ExpiresAt, 0)
}
