package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/nkiryanov/runboard/internal/db"
	"github.com/nkiryanov/runboard/internal/models"
)

// Return random free port on 127.0.0.1 address
func RandomPort() (int, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:")
	if err != nil {
		return 0, err
	}
	defer ln.Close() // nolint:errcheck

	addr := ln.Addr().(*net.TCPAddr)
	return addr.Port, nil
}

type PostgresContainer struct {
	DSN       string
	Pool      *pgxpool.Pool
	Terminate func()
}

// Start container with postgres
// Stop if error happened, so you may be sure container started ok
// Should be stopped when tests stopped
func StartPostgresContainer(t *testing.T) PostgresContainer {
	t.Helper()

	// Postgres backed tests need docker; the rest of the suite does not
	cmd := exec.Command("docker", "info", "--format", "{{.ServerVersion}}")
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Skipf("docker not available or not running, skip postgres tests. Out: %s", out)
	}

	// Run postgres in docker on random port
	port, err := RandomPort()
	require.NoError(t, err, "Error happened when acquiring random port to start postgres")

	container, err := postgres.Run(t.Context(),
		"postgres:17-alpine",
		postgres.WithDatabase("runboard-test"),
		postgres.WithUsername("runboard"),
		postgres.WithPassword("pwd"),
		postgres.BasicWaitStrategies(),
		testcontainers.CustomizeRequestOption(func(req *testcontainers.GenericContainerRequest) error {
			req.ExposedPorts = []string{fmt.Sprintf("%d:5432", port)}
			return nil
		}),
	)
	require.NoError(t, err, "Error happened when starting container with postgres")

	dsn, err := container.ConnectionString(t.Context())
	require.NoError(t, err, "Error happened when getting connection string from container with postgres")
	t.Logf("Container with pg started, DSN=%v", dsn)

	// Migrate and request connection pool
	dbpool, err := db.ConnectAndMigrate(t.Context(), dsn)
	require.NoError(t, err, "Error happened when connecting to postgres and migrating schema")

	return PostgresContainer{
		DSN:  dsn,
		Pool: dbpool,
		Terminate: func() {
			dbpool.Close()
			testcontainers.CleanupContainer(t, container)
		},
	}
}

type dbtx interface {
	Begin(context.Context) (pgx.Tx, error)
}

// WithTx creates db transaction and rolls it back at test end
// So you may be sure db remains unchanged when test stops
func WithTx(dbtx dbtx, t *testing.T, testFunc func(tx pgx.Tx)) {
	tx, err := dbtx.Begin(t.Context())
	require.NoError(t, err)

	defer func() {
		err := tx.Rollback(t.Context())
		require.NoError(t, err)
	}()

	testFunc(tx)
}

// FakeStrava serves the subset of Strava API the dashboard talks to.
// Handlers are swappable per test; unset handlers answer 404.
type FakeStrava struct {
	Server *httptest.Server

	Token      http.HandlerFunc // POST /oauth/token
	Activities http.HandlerFunc // GET /api/v3/athlete/activities
}

func NewFakeStrava(t *testing.T) *FakeStrava {
	t.Helper()

	f := &FakeStrava{}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /oauth/token", func(w http.ResponseWriter, r *http.Request) {
		serveOrNotFound(f.Token, w, r)
	})
	mux.HandleFunc("GET /api/v3/athlete/activities", func(w http.ResponseWriter, r *http.Request) {
		serveOrNotFound(f.Activities, w, r)
	})

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)

	return f
}

func (f *FakeStrava) APIURL() string   { return f.Server.URL + "/api/v3" }
func (f *FakeStrava) OAuthURL() string { return f.Server.URL + "/oauth" }

func serveOrNotFound(h http.HandlerFunc, w http.ResponseWriter, r *http.Request) {
	if h == nil {
		http.NotFound(w, r)
		return
	}
	h(w, r)
}

// TokenResponse writes Strava token endpoint payload
func TokenResponse(w http.ResponseWriter, access string, refresh string, expiresAt int64) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = fmt.Fprintf(w,
		`{"token_type":"Bearer","access_token":%q,"refresh_token":%q,"expires_at":%d,"expires_in":21600}`,
		access, refresh, expiresAt,
	)
}

// Activities builds n runs a day apart starting at from, ids start at firstID
func Activities(firstID int64, n int, from time.Time) []models.Activity {
	activities := make([]models.Activity, 0, n)
	for i := range n {
		activities = append(activities, models.Activity{
			ID:         firstID + int64(i),
			Name:       fmt.Sprintf("Morning Run %d", firstID+int64(i)),
			Distance:   5000 + float64(i)*100,
			MovingTime: 1500 + int64(i)*30,
			StartDate:  from.Add(time.Duration(i) * 24 * time.Hour),
			Type:       "Run",
		})
	}
	return activities
}

// WriteJSON answers with v encoded as JSON
func WriteJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
