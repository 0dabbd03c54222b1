package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nkiryanov/runboard/internal/db"
	"github.com/nkiryanov/runboard/internal/handlers"
	"github.com/nkiryanov/runboard/internal/logger"
	"github.com/nkiryanov/runboard/internal/repository"
	"github.com/nkiryanov/runboard/internal/repository/file"
	"github.com/nkiryanov/runboard/internal/repository/postgres"
	"github.com/nkiryanov/runboard/internal/sealer"
	"github.com/nkiryanov/runboard/internal/service/activity"
	"github.com/nkiryanov/runboard/internal/service/oauth"
	"github.com/nkiryanov/runboard/internal/service/strava"
	"github.com/nkiryanov/runboard/internal/service/suggest"
	"github.com/nkiryanov/runboard/internal/service/tokenstore"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	dashboard *activity.Dashboard
	logger    logger.Logger
	close     func()
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	l, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	err = c.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid config. Err: %w", err)
	}

	s, err := sealer.New(c.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("error while creating sealer. Err: %w", err)
	}

	repo, closeRepo, err := newTokenRepo(ctx, c, l)
	if err != nil {
		return nil, err
	}

	// Initialize services
	oauthClient, err := oauth.New(oauth.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  c.RedirectURL,
		BaseURL:      c.StravaOAuthURL,
	}, l)
	if err != nil {
		closeRepo()
		return nil, fmt.Errorf("error while creating oauth client. Err: %w", err)
	}
	states, err := oauth.NewStateSigner(c.SecretKey)
	if err != nil {
		closeRepo()
		return nil, fmt.Errorf("error while creating state signer. Err: %w", err)
	}

	store := tokenstore.New(repo, s, l)
	dashboard := activity.NewDashboard(store, oauthClient, strava.NewClient(c.StravaAPIURL, l), l)
	suggester := suggest.New(suggest.WeightedMovingAverage{}, l)

	router := handlers.NewRouter(dashboard, oauthClient, states, suggester, l)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    router,
		dashboard:  dashboard,
		logger:     l,
		close:      closeRepo,
	}, nil
}

// Postgres if DSN is set, files otherwise
func newTokenRepo(ctx context.Context, c *Config, l logger.Logger) (repository.TokenRepo, func(), error) {
	if c.DatabaseDSN == "" {
		l.Info("Keeping credential in files", "dir", c.TokenDir)
		return file.NewTokenRepo(c.TokenDir), func() {}, nil
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	l.Info("Keeping credential in database")
	return postgres.NewStorage(pool).Tokens(), pool.Close, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	defer s.close()

	httpServer := &http.Server{
		Addr:              s.ListenAddr,
		Handler:           s.Handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); errors.Is(err, context.DeadlineExceeded) {
			s.logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Pick up activities for credential saved by previous run
	go func() {
		if err := s.dashboard.Resume(srvCtx); err != nil {
			s.logger.Warn("Failed to resume activities loading", "error", err)
		}
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.logger.Info("Starting server", "address", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}
