package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/runboard/internal/models"
	"github.com/nkiryanov/runboard/internal/repository/file"
	"github.com/nkiryanov/runboard/internal/service/activity"
	"github.com/nkiryanov/runboard/internal/testutil"
)

// athlete is a Strava account behind the fake server
type athlete struct {
	mu         sync.Mutex
	access     string
	refreshes  int
	activities []models.Activity
}

func (a *athlete) install(t *testing.T, strava *testutil.FakeStrava) {
	strava.Token = func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		a.mu.Lock()
		defer a.mu.Unlock()

		switch r.PostForm.Get("grant_type") {
		case "authorization_code":
			if r.PostForm.Get("code") != "good-code" {
				http.Error(w, `{"message":"Bad Request"}`, http.StatusBadRequest)
				return
			}
			a.access = "access-1"
			testutil.TokenResponse(w, a.access, "refresh-1", time.Now().Add(6*time.Hour).Unix())
		case "refresh_token":
			a.refreshes++
			a.access = "access-2"
			testutil.TokenResponse(w, a.access, "refresh-2", time.Now().Add(6*time.Hour).Unix())
		default:
			http.Error(w, "unsupported grant", http.StatusBadRequest)
		}
	}

	strava.Activities = func(w http.ResponseWriter, r *http.Request) {
		a.mu.Lock()
		defer a.mu.Unlock()

		if r.Header.Get("Authorization") != "Bearer "+a.access {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		page := 1
		if p := r.URL.Query().Get("page"); p != "" {
			var err error
			page, err = strconv.Atoi(p)
			require.NoError(t, err)
		}

		from := (page - 1) * models.PageSize
		to := min(from+models.PageSize, len(a.activities))
		if from >= len(a.activities) {
			testutil.WriteJSON(w, []models.Activity{})
			return
		}
		testutil.WriteJSON(w, a.activities[from:to])
	}
}

func (a *athlete) Refreshes() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.refreshes
}

// revoke makes the current access token invalid on the Strava side
func (a *athlete) revoke() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.access = "revoked"
}

func serve(t *testing.T, strava *testutil.FakeStrava, tokenDir string) string {
	t.Helper()

	c := NewConfig()
	c.Environment = "dev"
	c.LogLevel = "error"
	c.TokenDir = tokenDir
	c.SecretKey = "e2e-secret"
	c.ClientID = "12345"
	c.ClientSecret = "client-secret"
	c.StravaAPIURL = strava.APIURL()
	c.StravaOAuthURL = strava.OAuthURL()

	app, err := NewServerApp(t.Context(), c)
	require.NoError(t, err)
	t.Cleanup(app.close)

	srv := httptest.NewServer(app.Handler)
	t.Cleanup(srv.Close)

	return srv.URL
}

var noRedirect = &http.Client{
	CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
}

func call(t *testing.T, method string, url string, body string, v any) int {
	t.Helper()

	req, err := http.NewRequestWithContext(t.Context(), method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := noRedirect.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() // nolint:errcheck

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if v != nil && resp.StatusCode < 300 {
		require.NoError(t, json.Unmarshal(b, v), "body: %s", b)
	}
	return resp.StatusCode
}

// login walks through the OAuth redirect and callback
func login(t *testing.T, srvURL string, code string) (int, activity.Snapshot) {
	t.Helper()

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, srvURL+"/auth/strava", nil)
	require.NoError(t, err)
	resp, err := noRedirect.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)

	location, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "12345", location.Query().Get("client_id"))

	var snapshot activity.Snapshot
	q := url.Values{"code": {code}, "state": {location.Query().Get("state")}}
	status := call(t, http.MethodGet, srvURL+"/auth/strava/callback?"+q.Encode(), "", &snapshot)
	return status, snapshot
}

func TestEndToEnd(t *testing.T) {
	thisMonth := time.Now().UTC().AddDate(0, 0, 1-time.Now().UTC().Day()).Truncate(24 * time.Hour)

	t.Run("login and page through activities", func(t *testing.T) {
		strava := testutil.NewFakeStrava(t)
		a := &athlete{activities: testutil.Activities(1, models.PageSize+5, thisMonth.AddDate(0, -2, 0))}
		a.install(t, strava)
		tokenDir := t.TempDir()
		srvURL := serve(t, strava, tokenDir)

		status, snapshot := login(t, srvURL, "good-code")

		require.Equal(t, http.StatusOK, status)
		require.Len(t, snapshot.Activities, models.PageSize)
		require.True(t, snapshot.HasMoreActivities)
		require.Equal(t, 2, snapshot.Page)

		status = call(t, http.MethodPost, srvURL+"/api/activities/more", "", &snapshot)
		require.Equal(t, http.StatusOK, status)
		require.Len(t, snapshot.Activities, models.PageSize+5)
		require.False(t, snapshot.HasMoreActivities)
		require.Equal(t, "exhausted", snapshot.Phase)

		status = call(t, http.MethodPost, srvURL+"/api/activities/more", "", &snapshot)
		require.Equal(t, http.StatusOK, status, "load more after the end is a no-op")
		require.Len(t, snapshot.Activities, models.PageSize+5)

		raw, err := os.ReadFile(filepath.Join(tokenDir, file.StoreFile))
		require.NoError(t, err, "credential should be persisted")
		require.NotContains(t, string(raw), "access-1", "token must be sealed at rest")
	})

	t.Run("rejected token is refreshed once", func(t *testing.T) {
		strava := testutil.NewFakeStrava(t)
		a := &athlete{activities: testutil.Activities(1, 10, thisMonth.AddDate(0, -1, 0))}
		a.install(t, strava)
		srvURL := serve(t, strava, t.TempDir())
		status, _ := login(t, srvURL, "good-code")
		require.Equal(t, http.StatusOK, status)

		a.revoke()
		var snapshot activity.Snapshot
		status = call(t, http.MethodPost, srvURL+"/api/filters",
			`{"activity_type":"run","start_date":"2000-01-01","end_date":"2100-12-31"}`, &snapshot)

		require.Equal(t, http.StatusOK, status)
		require.Equal(t, 1, a.Refreshes())
		require.Len(t, snapshot.FilteredActivities, 10)

		var summary struct {
			Activities int `json:"activities"`
		}
		status = call(t, http.MethodGet, srvURL+"/api/summary", "", &summary)
		require.Equal(t, http.StatusOK, status)
		require.Equal(t, 10, summary.Activities)

		var suggestion struct {
			Type string `json:"type"`
		}
		status = call(t, http.MethodGet, srvURL+"/api/suggestion?units=imperial", "", &suggestion)
		require.Equal(t, http.StatusOK, status)
		require.Equal(t, "Run", suggestion.Type)
	})

	t.Run("bad code", func(t *testing.T) {
		strava := testutil.NewFakeStrava(t)
		(&athlete{}).install(t, strava)
		srvURL := serve(t, strava, t.TempDir())

		status, _ := login(t, srvURL, "stolen-code")

		require.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("not authenticated", func(t *testing.T) {
		strava := testutil.NewFakeStrava(t)
		srvURL := serve(t, strava, t.TempDir())

		status := call(t, http.MethodPost, srvURL+"/api/activities/more", "", nil)

		require.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("credential survives restart", func(t *testing.T) {
		strava := testutil.NewFakeStrava(t)
		a := &athlete{activities: testutil.Activities(1, 3, thisMonth)}
		a.install(t, strava)
		tokenDir := t.TempDir()
		first := serve(t, strava, tokenDir)
		status, _ := login(t, first, "good-code")
		require.Equal(t, http.StatusOK, status)

		second := serve(t, strava, tokenDir)
		var snapshot activity.Snapshot
		status = call(t, http.MethodPost, second+"/api/filters", `{"activity_type":"all"}`, &snapshot)

		require.Equal(t, http.StatusOK, status)
		require.Len(t, snapshot.Activities, 3)
		require.Zero(t, a.Refreshes(), "stored token is still valid")
	})
}
