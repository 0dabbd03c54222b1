package main

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/nkiryanov/runboard/internal/logger"
	"github.com/nkiryanov/runboard/internal/service/oauth"
	"github.com/nkiryanov/runboard/internal/service/strava"
)

const (
	defaultListenAddr   = "localhost:8000"
	defaultLoggingLevel = logger.LevelInfo
	defaultEnvironment  = logger.EnvProduction
	defaultTokenDir     = ".runboard"
	defaultRedirectURL  = "http://localhost:8000/auth/strava/callback"
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the dashboard backend will be run
	ListenAddr string

	// Database to keep credential in
	// If empty the credential is kept in files under TokenDir
	DatabaseDSN string

	TokenDir string

	// Secret key
	// Stored tokens are sealed and OAuth state is signed with keys derived from it
	SecretKey string

	// Environment
	Environment string

	// Strava application credentials, see https://www.strava.com/settings/api
	ClientID     string
	ClientSecret string
	RedirectURL  string

	StravaAPIURL   string
	StravaOAuthURL string
}

func NewConfig() *Config {
	return &Config{
		LogLevel:       defaultLoggingLevel,
		ListenAddr:     defaultListenAddr,
		Environment:    defaultEnvironment,
		TokenDir:       defaultTokenDir,
		RedirectURL:    defaultRedirectURL,
		StravaAPIURL:   strava.DefaultAPIURL,
		StravaOAuthURL: oauth.DefaultBaseURL,
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		c.LoadEnv(func(key string) string {
			return envMap[key]
		})
		return nil
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) {
		return func(value string) {
			if value != "" {
				*o = value
			}
		}
	}

	envMap := map[string]func(string){
		"RUN_ADDRESS":          setString(&c.ListenAddr),
		"DATABASE_URI":         setString(&c.DatabaseDSN),
		"TOKEN_DIR":            setString(&c.TokenDir),
		"SECRET_KEY":           setString(&c.SecretKey),
		"LOG_LEVEL":            setString(&c.LogLevel),
		"ENVIRONMENT":          setString(&c.Environment),
		"STRAVA_CLIENT_ID":     setString(&c.ClientID),
		"STRAVA_CLIENT_SECRET": setString(&c.ClientSecret),
		"STRAVA_REDIRECT_URL":  setString(&c.RedirectURL),
		"STRAVA_API_URL":       setString(&c.StravaAPIURL),
		"STRAVA_OAUTH_URL":     setString(&c.StravaOAuthURL),
	}

	for key, parseFn := range envMap {
		parseFn(getenv(key))
	}
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("runboard", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string, tokens are kept in files if empty")
	fs.StringVarP(&c.TokenDir, "token-dir", "t", c.TokenDir, "Directory for token files when no database is set")
	fs.StringVarP(&c.SecretKey, "secret-key", "s", c.SecretKey, "Secret key")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")
	fs.StringVar(&c.ClientID, "client-id", c.ClientID, "Strava application client id")
	fs.StringVar(&c.ClientSecret, "client-secret", c.ClientSecret, "Strava application client secret")
	fs.StringVar(&c.RedirectURL, "redirect-url", c.RedirectURL, "OAuth callback URL registered in Strava")
	fs.StringVar(&c.StravaAPIURL, "api-url", c.StravaAPIURL, "Strava API base URL")
	fs.StringVar(&c.StravaOAuthURL, "oauth-url", c.StravaOAuthURL, "Strava OAuth base URL")

	return fs.Parse(args)
}

// Validate checks options without defaults are set
func (c *Config) Validate() error {
	var errs []error

	if c.SecretKey == "" {
		errs = append(errs, errors.New("secret key is required"))
	}
	if c.ClientID == "" {
		errs = append(errs, errors.New("strava client id is required"))
	}
	if c.ClientSecret == "" {
		errs = append(errs, errors.New("strava client secret is required"))
	}
	if c.DatabaseDSN == "" && c.TokenDir == "" {
		errs = append(errs, errors.New("either database or token dir has to be set"))
	}

	return errors.Join(errs...)
}
