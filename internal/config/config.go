// Package config loads the dashboard settings. Sources, highest priority
// first:
//  1. an explicit path;
//  2. CONFIG_PATH;
//  3. ./config.yaml;
//  4. environment only.
//
// A .env file in the working directory (or DOTENV_PATH) is loaded into the
// process environment before any of them, without overriding variables that
// are already set.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Env         string            `yaml:"env" env:"ENV" env-default:"development"`
	LogLevel    string            `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	API         APIConfig         `yaml:"api"`
	Auth        AuthConfig        `yaml:"auth"`
	Credentials CredentialsConfig `yaml:"credentials"`
	Search      SearchConfig      `yaml:"search"`
	HTTP        HTTPConfig        `yaml:"http"`
	Admin       AdminConfig       `yaml:"admin"`
}

type APIConfig struct {
	BaseURL string        `yaml:"base_url" env:"API_URL" env-default:"http://127.0.0.1:8000/api/"`
	Timeout time.Duration `yaml:"timeout" env:"API_TIMEOUT" env-default:"30s"`
}

type AuthConfig struct {
	// Coalesce is kept as text: cleanenv applies env-default over a zero
	// value, so a bool could never be turned off from YAML.
	Coalesce         string   `yaml:"coalesce_refresh" env:"AUTH_COALESCE_REFRESH" env-default:"true"`
	LoginPath        string   `yaml:"login_path" env:"AUTH_LOGIN_PATH" env-default:"/login"`
	PrivilegedRoutes []string `yaml:"privileged_routes" env:"AUTH_PRIVILEGED_ROUTES" env-default:"/dashboard,/creacion-entidades"`
}

// CoalesceRefresh reports whether concurrent expired calls share a single
// refresh. Unparsable values keep the default.
func (a AuthConfig) CoalesceRefresh() bool {
	v, err := strconv.ParseBool(a.Coalesce)
	return err != nil || v
}

// CredentialsConfig selects where tokens are kept: file, keychain, env or
// memory.
type CredentialsConfig struct {
	Backend string `yaml:"backend" env:"CREDENTIALS_BACKEND" env-default:"file"`
	Path    string `yaml:"path" env:"CREDENTIALS_PATH"`
}

type SearchConfig struct {
	Debounce  time.Duration `yaml:"debounce" env:"SEARCH_DEBOUNCE" env-default:"500ms"`
	MinLength int           `yaml:"min_length" env:"SEARCH_MIN_LENGTH" env-default:"2"`
}

type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"PORT" env-default:"9879"`
}

func (h HTTPConfig) Addr() string { return net.JoinHostPort(h.Host, h.Port) }

type AdminConfig struct {
	APIKey string `yaml:"api_key" env:"ADMIN_API_KEY"`
}

// MustLoad panics when the configuration cannot be loaded.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

func Load(path string) (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	var cfg Config

	read := func(p string) (*Config, error) {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}
		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		return &cfg, nil
	}

	switch {
	case path != "":
		return read(path)
	case os.Getenv("CONFIG_PATH") != "":
		return read(os.Getenv("CONFIG_PATH"))
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		return read("config.yaml")
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read env: %w", err)
	}
	return &cfg, nil
}

func loadDotEnv() error {
	p := os.Getenv("DOTENV_PATH")
	if p == "" {
		p = ".env"
	}

	if _, err := os.Stat(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("dotenv %q stat failed: %w", p, err)
	}
	if err := godotenv.Load(p); err != nil {
		return fmt.Errorf("failed to load dotenv %q: %w", p, err)
	}
	return nil
}
