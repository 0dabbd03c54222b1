package activity

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/nkiryanov/runboard/internal/apperrors"
	"github.com/nkiryanov/runboard/internal/logger"
	"github.com/nkiryanov/runboard/internal/models"
)

type credentialStore interface {
	Load(ctx context.Context) (models.Credential, bool)
	Save(ctx context.Context, c models.Credential) error
	IsExpired(c models.Credential, now time.Time) bool
}

type authenticator interface {
	ExchangeCode(ctx context.Context, code string) (models.Credential, error)
	Refresh(ctx context.Context, refreshToken string) (models.Credential, error)
}

type fetcher interface {
	FetchPage(ctx context.Context, accessToken string, page int, dateRange *models.DateRange) ([]models.Activity, error)
}

// Returned by a request whose generation was superseded, its result is discarded anyway
var errStaleRequest = errors.New("request superseded")

// Snapshot is a consistent copy of the dashboard state
type Snapshot struct {
	Activities         []models.Activity     `json:"activities"`
	FilteredActivities []models.Activity     `json:"filtered_activities"`
	ActivityTypes      []string              `json:"activity_types"`
	Loading            bool                  `json:"loading"`
	Error              string                `json:"error,omitempty"`
	HasMoreActivities  bool                  `json:"has_more_activities"`
	Phase              string                `json:"phase"`
	Page               int                   `json:"page"`
	Criteria           models.FilterCriteria `json:"criteria"`
}

// Dashboard owns the aggregated activity collection and the fetch loop.
// It is safe for concurrent use; requests to Strava are made without holding the lock.
type Dashboard struct {
	tokens  credentialStore
	auth    authenticator
	fetcher fetcher
	logger  logger.Logger
	now     func() time.Time

	mu sync.Mutex

	// One refresh at a time, so the stored credential has a single writer
	refreshMu sync.Mutex

	// Bumped on every reset; responses of older generations are dropped
	generation uint64

	state    State
	criteria models.FilterCriteria
	// Until filters are applied the default window follows the clock
	customCriteria bool
	activities     []models.Activity
	filtered       []models.Activity
	lastErr        error
}

func NewDashboard(tokens credentialStore, auth authenticator, fetcher fetcher, l logger.Logger) *Dashboard {
	d := &Dashboard{
		tokens:  tokens,
		auth:    auth,
		fetcher: fetcher,
		logger:  l,
		now:     time.Now,
		state:   initialState(),
	}
	d.criteria = DefaultCriteria(d.now())
	return d
}

// DefaultCriteria selects every activity type from the start of the current month.
// The end stays open, so nothing that happened up to now is cut off.
func DefaultCriteria(now time.Time) models.FilterCriteria {
	return models.FilterCriteria{
		ActivityType: models.ActivityTypeAll,
		StartDate:    time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()),
	}
}

// Resume starts loading activities if a credential was persisted by an earlier run.
// Without a credential it does nothing.
func (d *Dashboard) Resume(ctx context.Context) error {
	if _, ok := d.tokens.Load(ctx); !ok {
		d.logger.Info("No stored credential, waiting for authentication")
		return nil
	}

	d.reset(nil)
	return d.fetchNext(ctx)
}

// Authenticate exchanges an authorization code, stores the credential and loads the first page
func (d *Dashboard) Authenticate(ctx context.Context, code string) error {
	c, err := d.auth.ExchangeCode(ctx, code)
	if err != nil {
		d.setError(err)
		return err
	}

	err = d.tokens.Save(ctx, c)
	if err != nil {
		d.setError(err)
		return err
	}

	d.logger.Info("Authenticated with strava", "expires_at", c.Expiry())

	d.reset(nil)
	return d.fetchNext(ctx)
}

// ApplyFilters replaces criteria, drops accumulated activities and refetches from page 1.
// Invalid criteria are rejected without touching the state.
func (d *Dashboard) ApplyFilters(ctx context.Context, criteria models.FilterCriteria) error {
	err := Validate(criteria)
	if err != nil {
		return err
	}

	d.reset(&criteria)
	return d.fetchNext(ctx)
}

// LoadMoreActivities fetches the next page.
// It fails with apperrors.ErrFetchInProgress while another request is outstanding and does nothing once exhausted.
func (d *Dashboard) LoadMoreActivities(ctx context.Context) error {
	return d.fetchNext(ctx)
}

func (d *Dashboard) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := Snapshot{
		Activities:         slices.Clone(d.activities),
		FilteredActivities: slices.Clone(d.filtered),
		ActivityTypes:      Types(d.activities),
		Loading:            d.state.Loading,
		HasMoreActivities:  d.state.HasMore,
		Phase:              d.state.Phase.String(),
		Page:               d.state.Page,
		Criteria:           d.criteria,
	}
	if s.Activities == nil {
		s.Activities = []models.Activity{}
	}
	if s.FilteredActivities == nil {
		s.FilteredActivities = []models.Activity{}
	}
	if d.lastErr != nil {
		s.Error = d.lastErr.Error()
	}

	return s
}

func (d *Dashboard) reset(criteria *models.FilterCriteria) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.generation++
	if criteria != nil {
		d.criteria = *criteria
		d.customCriteria = true
	}
	d.activities = nil
	d.filtered = nil
	d.lastErr = nil
	d.state = reduce(d.state, eventReset{})
}

func (d *Dashboard) setError(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastErr = err
}

func (d *Dashboard) fetchNext(ctx context.Context) error {
	d.mu.Lock()
	if d.state.Loading {
		d.mu.Unlock()
		return apperrors.ErrFetchInProgress
	}
	if !d.state.canRequest() {
		d.mu.Unlock()
		return nil
	}

	d.state = reduce(d.state, eventRequested{})
	generation := d.generation
	page := d.state.Page
	// First page of a default view starts a new window, later pages keep it
	if !d.customCriteria && page == 1 {
		d.criteria = DefaultCriteria(d.now())
	}
	dateRange := d.criteria.DateRange()
	d.mu.Unlock()

	activities, err := d.fetchWithRefresh(ctx, generation, page, dateRange)

	d.mu.Lock()
	defer d.mu.Unlock()

	if generation != d.generation {
		d.logger.Debug("Discarding stale activities response", "page", page, "generation", generation)
		return nil
	}

	if err != nil {
		d.logger.Warn("Failed to load activities", "page", page, "error", err)
		d.lastErr = err
		d.state = reduce(d.state, eventFailed{reason: err.Error()})
		return err
	}

	merged, hasMore := AppendPage(d.activities, activities)
	d.activities = merged
	d.filtered = Apply(merged, d.criteria)
	d.lastErr = nil
	d.state = reduce(d.state, eventSucceeded{count: len(activities), hasMore: hasMore})

	d.logger.Debug("Activities page loaded", "page", page, "count", len(activities), "total", len(merged))
	return nil
}

// fetchWithRefresh refreshes the access token at most once per call:
// either up front when it already expired or after the API rejected it
func (d *Dashboard) fetchWithRefresh(ctx context.Context, generation uint64, page int, dateRange *models.DateRange) ([]models.Activity, error) {
	c, ok := d.tokens.Load(ctx)
	if !ok {
		return nil, apperrors.NewAuthError("load", apperrors.ErrNotAuthenticated)
	}

	var err error
	refreshed := false

	if d.tokens.IsExpired(c, d.now()) {
		c, err = d.refresh(ctx, generation, c)
		if err != nil {
			return nil, err
		}
		refreshed = true
	}

	activities, err := d.fetcher.FetchPage(ctx, c.AccessToken, page, dateRange)
	if err == nil || refreshed || !errors.Is(err, apperrors.ErrUnauthorized) {
		return activities, err
	}

	d.logger.Info("Access token rejected, refreshing", "page", page)
	c, err = d.refresh(ctx, generation, c)
	if err != nil {
		return nil, err
	}

	return d.fetcher.FetchPage(ctx, c.AccessToken, page, dateRange)
}

// refresh replaces the rejected credential.
// A request that went stale while waiting gives up, and a credential some other request
// already refreshed is reused instead of spending the refresh token again.
func (d *Dashboard) refresh(ctx context.Context, generation uint64, rejected models.Credential) (models.Credential, error) {
	d.refreshMu.Lock()
	defer d.refreshMu.Unlock()

	if !d.isCurrent(generation) {
		return rejected, errStaleRequest
	}

	if c, ok := d.tokens.Load(ctx); ok && c.AccessToken != rejected.AccessToken && !d.tokens.IsExpired(c, d.now()) {
		d.logger.Debug("Credential already refreshed by another request")
		return c, nil
	}

	if rejected.RefreshToken == "" {
		return rejected, apperrors.NewAuthError("refresh", apperrors.ErrNotAuthenticated)
	}

	fresh, err := d.auth.Refresh(ctx, rejected.RefreshToken)
	if err != nil {
		return rejected, err
	}
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = rejected.RefreshToken
	}

	// New token is still usable for this request even if it could not be persisted
	err = d.tokens.Save(ctx, fresh)
	if err != nil {
		d.logger.Error("Failed to save refreshed credential", "error", err)
	}

	return fresh, nil
}

func (d *Dashboard) isCurrent(generation uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return generation == d.generation
}
