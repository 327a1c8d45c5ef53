package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type App struct {
	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT" env-default:"text"` // text or json
}

type FingerprintConfig struct {
	FpcalcPath string `yaml:"fpcalc_path" env:"FPCALC_PATH" env-default:"fpcalc"`
	MaxLength  int    `yaml:"max_length" env:"FPCALC_MAX_LENGTH" env-default:"120"`
}

type AcoustIDConfig struct {
	APIKey  string        `yaml:"api_key" env:"ACOUSTID_API_KEY"`
	UserKey string        `yaml:"user_key" env:"ACOUSTID_USER_KEY"`
	BaseURL string        `yaml:"base_url" env:"ACOUSTID_BASE_URL" env-default:"https://api.acoustid.org/v2"`
	Meta    string        `yaml:"meta" env:"ACOUSTID_META" env-default:"recordings"`
	Timeout time.Duration `yaml:"timeout" env:"ACOUSTID_TIMEOUT" env-default:"15s"`
}

type CatalogConfig struct {
	ClientID     string        `yaml:"client_id" env:"SPOTIFY_CLIENT_ID"`
	ClientSecret string        `yaml:"client_secret" env:"SPOTIFY_CLIENT_SECRET"`
	TokenURL     string        `yaml:"token_url" env:"SPOTIFY_TOKEN_URL" env-default:"https://accounts.spotify.com/api/token"`
	APIURL       string        `yaml:"api_url" env:"SPOTIFY_API_URL" env-default:"https://api.spotify.com/v1"`
	Timeout      time.Duration `yaml:"timeout" env:"CATALOG_TIMEOUT" env-default:"15s"`
}

type BatchConfig struct {
	RequestInterval time.Duration `yaml:"request_interval" env:"REQUEST_INTERVAL" env-default:"350ms"`
	SkipFile        string        `yaml:"skip_file" env:"SKIP_FILE" env-default:"skipped.txt"`
}

type Config struct {
	App         App               `yaml:"app"`
	Fingerprint FingerprintConfig `yaml:"fingerprint"`
	AcoustID    AcoustIDConfig    `yaml:"acoustid"`
	Catalog     CatalogConfig     `yaml:"catalog"`
	Batch       BatchConfig       `yaml:"batch"`
}

// Load reads an optional .env file into the environment, then fills Config
// from the YAML file at path (when given) with environment overrides.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		return &cfg, nil
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	return &cfg, nil
}

func (c *AcoustIDConfig) Validate() error {
	if c.APIKey == "" {
		return errors.New("ACOUSTID_API_KEY is not set")
	}
	return nil
}

func (c *CatalogConfig) Validate() error {
	if c.ClientID == "" || c.ClientSecret == "" {
		return errors.New("SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET must be set")
	}
	return nil
}
