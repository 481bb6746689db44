// Package config loads desk settings from an optional YAML file with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

type Config struct {
	BackendURL      string
	RequestTimeout  time.Duration
	MaxConnsPerHost int
	PreviewDebounce time.Duration

	Currency     string
	NoteLanguage language.Tag

	LogLevel string
	LogFile  string

	SandboxPort int
	SandboxSeed string
}

type configFile struct {
	Backend struct {
		URL              string `yaml:"url"`
		RequestTimeoutMS int    `yaml:"request_timeout_ms"`
		MaxConnsPerHost  int    `yaml:"max_conns_per_host"`
	} `yaml:"backend"`
	Preview struct {
		DebounceMS int `yaml:"debounce_ms"`
	} `yaml:"preview"`
	Notes struct {
		Currency string `yaml:"currency"`
		Locale   string `yaml:"locale"`
	} `yaml:"notes"`
	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`
	Sandbox struct {
		Port     int    `yaml:"port"`
		SeedFile string `yaml:"seed_file"`
	} `yaml:"sandbox"`
}

func Default() Config {
	return Config{
		BackendURL:      "http://localhost:8080",
		RequestTimeout:  10 * time.Second,
		MaxConnsPerHost: 16,
		PreviewDebounce: 500 * time.Millisecond,
		Currency:        "VND",
		NoteLanguage:    language.English,
		LogLevel:        "info",
		SandboxPort:     8080,
	}
}

// Load reads path when it exists, then applies environment overrides.
// An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := cfg.apply(raw); err != nil {
				return Config{}, err
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg.BackendURL = envOrDefault("BACKEND_URL", cfg.BackendURL)
	cfg.RequestTimeout = envMillis("REQUEST_TIMEOUT_MS", cfg.RequestTimeout)
	cfg.PreviewDebounce = envMillis("PREVIEW_DEBOUNCE_MS", cfg.PreviewDebounce)
	cfg.Currency = envOrDefault("NOTES_CURRENCY", cfg.Currency)
	cfg.LogLevel = envOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFile = envOrDefault("LOG_FILE", cfg.LogFile)
	cfg.SandboxPort = envInt("PORT", cfg.SandboxPort)
	cfg.SandboxSeed = envOrDefault("SANDBOX_SEED_FILE", cfg.SandboxSeed)
	if raw := os.Getenv("NOTES_LOCALE"); raw != "" {
		tag, err := language.Parse(raw)
		if err != nil {
			return Config{}, fmt.Errorf("NOTES_LOCALE: %w", err)
		}
		cfg.NoteLanguage = tag
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) apply(raw []byte) error {
	var f configFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if f.Backend.URL != "" {
		c.BackendURL = f.Backend.URL
	}
	if f.Backend.RequestTimeoutMS > 0 {
		c.RequestTimeout = time.Duration(f.Backend.RequestTimeoutMS) * time.Millisecond
	}
	if f.Backend.MaxConnsPerHost > 0 {
		c.MaxConnsPerHost = f.Backend.MaxConnsPerHost
	}
	if f.Preview.DebounceMS > 0 {
		c.PreviewDebounce = time.Duration(f.Preview.DebounceMS) * time.Millisecond
	}
	if f.Notes.Currency != "" {
		c.Currency = f.Notes.Currency
	}
	if f.Notes.Locale != "" {
		tag, err := language.Parse(f.Notes.Locale)
		if err != nil {
			return fmt.Errorf("notes.locale: %w", err)
		}
		c.NoteLanguage = tag
	}
	if f.Log.Level != "" {
		c.LogLevel = f.Log.Level
	}
	c.LogFile = f.Log.File
	if f.Sandbox.Port > 0 {
		c.SandboxPort = f.Sandbox.Port
	}
	c.SandboxSeed = f.Sandbox.SeedFile
	return nil
}

func (c *Config) validate() error {
	u, err := url.Parse(c.BackendURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("invalid backend url %q", c.BackendURL)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	if c.PreviewDebounce <= 0 {
		return fmt.Errorf("preview debounce must be positive")
	}
	if c.SandboxPort <= 0 || c.SandboxPort > 65535 {
		return fmt.Errorf("invalid sandbox port %d", c.SandboxPort)
	}
	return nil
}

// SandboxAddr is the listen address of the sandbox server.
func (c Config) SandboxAddr() string {
	return ":" + strconv.Itoa(c.SandboxPort)
}

func envOrDefault(name, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(name)); value != "" {
		return value
	}
	return fallback
}

func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envMillis(name string, fallback time.Duration) time.Duration {
	ms := envInt(name, -1)
	if ms <= 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}
