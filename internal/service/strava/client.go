package strava

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/runboard/internal/apperrors"
	"github.com/nkiryanov/runboard/internal/logger"
	"github.com/nkiryanov/runboard/internal/models"
)

const (
	DefaultAPIURL = "https://www.strava.com/api/v3"

	requestTimeout = 5 * time.Second
)

// Client fetches athlete activities page by page
type Client struct {
	APIURL string

	client *http.Client
	logger logger.Logger
}

func NewClient(apiURL string, l logger.Logger) *Client {
	apiURL = strings.TrimRight(apiURL, "/")
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}

	return &Client{
		APIURL: apiURL,
		client: &http.Client{},
		logger: l,
	}
}

// FetchPage requests one page (1-based) of models.PageSize activities.
// Rejected token is reported as FetchError wrapping apperrors.ErrUnauthorized; refreshing is caller's job.
func (c *Client) FetchPage(ctx context.Context, accessToken string, page int, dateRange *models.DateRange) ([]models.Activity, error) {
	if page < 1 {
		return nil, apperrors.NewFetchError(page, 0, fmt.Errorf("page must be positive"))
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.APIURL+"/athlete/activities?"+pageQuery(page, dateRange).Encode(), nil)
	if err != nil {
		return nil, apperrors.NewFetchError(page, 0, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	l := c.logger.With("request_id", uuid.NewString(), "page", page)
	start := time.Now()

	resp, err := c.client.Do(req)
	if err != nil {
		l.Warn("Activities request failed", "error", err)
		return nil, apperrors.NewFetchError(page, 0, fmt.Errorf("failed to send request: %w", err))
	}
	defer resp.Body.Close() // nolint:errcheck

	switch resp.StatusCode {
	case http.StatusOK:
		return c.processSuccess(l, page, resp, time.Since(start))
	case http.StatusUnauthorized, http.StatusForbidden:
		l.Info("Access token rejected", "status_code", resp.StatusCode)
		return nil, apperrors.NewFetchError(page, resp.StatusCode, apperrors.ErrUnauthorized)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		l.Warn("Unexpected activities response", "status_code", resp.StatusCode, "body", string(body))
		return nil, apperrors.NewFetchError(page, resp.StatusCode, fmt.Errorf("unexpected status code %d", resp.StatusCode))
	}
}

func (c *Client) processSuccess(l logger.Logger, page int, resp *http.Response, took time.Duration) ([]models.Activity, error) {
	var activities []models.Activity

	err := json.NewDecoder(resp.Body).Decode(&activities)
	if err != nil {
		l.Warn("Failed to decode activities", "error", err)
		return nil, apperrors.NewFetchError(page, resp.StatusCode, fmt.Errorf("failed to decode response: %w", err))
	}

	if len(activities) > models.PageSize {
		return nil, apperrors.NewFetchError(page, resp.StatusCode, errors.New("page is larger than requested"))
	}

	l.Debug("Activities fetched", "count", len(activities), "duration", took)
	return activities, nil
}

// Strava 'after' and 'before' are exclusive, shift them by a second to include both bounds
func pageQuery(page int, dateRange *models.DateRange) url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(models.PageSize))

	if dateRange != nil {
		if !dateRange.Start.IsZero() {
			q.Set("after", strconv.FormatInt(dateRange.Start.Unix()-1, 10))
		}
		if !dateRange.End.IsZero() {
			q.Set("before", strconv.FormatInt(dateRange.End.Unix()+1, 10))
		}
	}

	return q
}
