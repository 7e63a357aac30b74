// ABOUTME: Configuration loading for the chat bot
// ABOUTME: Loads TOML config from XDG path with environment variable expansion

package main

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Reddit   RedditConfig   `toml:"reddit"`
	Telegram TelegramConfig `toml:"telegram"`
	Matrix   MatrixConfig   `toml:"matrix"`
	Database DatabaseConfig `toml:"database"`
	Logging  LoggingConfig  `toml:"logging"`
}

type RedditConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	UserAgent    string `toml:"user_agent"`
}

type TelegramConfig struct {
	Enabled bool   `toml:"enabled"`
	Token   string `toml:"token"`
}

type MatrixConfig struct {
	Enabled         bool     `toml:"enabled"`
	Homeserver      string   `toml:"homeserver"`
	UserID          string   `toml:"user_id"`
	AccessToken     string   `toml:"access_token"`
	AllowedRooms    []string `toml:"allowed_rooms"`
	TypingIndicator bool     `toml:"typing_indicator"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type LoggingConfig struct {
	Level string `toml:"level"`
}

// Load reads config from the given path, expanding environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables (${VAR} syntax)
	expanded := expandEnvVars(string(data))

	var cfg Config
	if _, err := toml.Decode(expanded, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR} with environment variable values.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		return os.Getenv(varName)
	})
}

// Validate checks that required config fields are present and valid.
func (c *Config) Validate() error {
	if c.Reddit.ClientID == "" {
		return fmt.Errorf("reddit.client_id is required")
	}
	if c.Reddit.ClientSecret == "" {
		return fmt.Errorf("reddit.client_secret is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if !c.Telegram.Enabled && !c.Matrix.Enabled {
		return fmt.Errorf("no frontend enabled: set telegram.enabled or matrix.enabled")
	}
	if c.Telegram.Enabled && c.Telegram.Token == "" {
		return fmt.Errorf("telegram.token is required when telegram is enabled")
	}
	if c.Matrix.Enabled {
		if c.Matrix.Homeserver == "" {
			return fmt.Errorf("matrix.homeserver is required when matrix is enabled")
		}
		if _, err := url.Parse(c.Matrix.Homeserver); err != nil {
			return fmt.Errorf("matrix.homeserver is not a valid URL: %w", err)
		}
		if c.Matrix.UserID == "" {
			return fmt.Errorf("matrix.user_id is required when matrix is enabled")
		}
		if c.Matrix.AccessToken == "" {
			return fmt.Errorf("matrix.access_token is required when matrix is enabled")
		}
	}
	return nil
}
