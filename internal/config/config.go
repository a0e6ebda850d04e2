package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigDir  = ".stream-chat"
	DefaultConfigFile = "config.yaml"

	EnvEndpoint = "STREAM_CHAT_ENDPOINT"
	EnvTheme    = "STREAM_CHAT_THEME"
)

// Config represents the application configuration
type Config struct {
	// Endpoint serves the conversation history on GET and streams replies on POST
	Endpoint string `yaml:"endpoint"`

	// PromptField is the form field carrying the prompt in a submission
	PromptField string `yaml:"prompt_field"`

	// Theme is a bubbletint tint ID
	Theme string `yaml:"theme"`

	// RenderStyle is a glamour standard style name, or "auto"
	RenderStyle string `yaml:"render_style"`

	// RequestTimeout bounds a whole request. Zero means no timeout.
	RequestTimeout Duration `yaml:"request_timeout"`

	LogDir string `yaml:"log_dir"`
}

// Duration is a time.Duration written as "30s" in YAML
type Duration time.Duration

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	// Bare integers are seconds
	if value.Tag == "!!int" {
		var secs int64
		if err := value.Decode(&secs); err != nil {
			return err
		}
		*d = Duration(time.Duration(secs) * time.Second)
		return nil
	}

	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		Endpoint:    "http://127.0.0.1:8000/chat/",
		PromptField: "prompt",
		Theme:       "chalk",
		RenderStyle: "auto",
	}
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, DefaultConfigDir)
	return filepath.Join(configDir, DefaultConfigFile), nil
}

// Load loads the configuration from the default path
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(configPath)
}

// LoadFile loads the configuration from configPath, creating a default file if
// none exists, then applies .env and environment overrides.
func LoadFile(configPath string) (*Config, error) {
	var cfg *Config

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg = DefaultConfig()
		// If save fails, just use the defaults; the app works without a config file
		_ = SaveFile(cfg, configPath)
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		cfg = DefaultConfig()
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// .env is optional
	_ = godotenv.Load()
	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides fields from the environment
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvEndpoint); v != "" {
		c.Endpoint = v
	}
	if v := os.Getenv(EnvTheme); v != "" {
		c.Theme = v
	}
}

// SaveFile saves the configuration to configPath
func SaveFile(cfg *Config, configPath string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("cannot save invalid config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration values
func (c *Config) Validate() error {
	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return fmt.Errorf("endpoint is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("endpoint must use http or https, got %q", c.Endpoint)
	}
	if u.Host == "" {
		return fmt.Errorf("endpoint must include a host, got %q", c.Endpoint)
	}

	if c.PromptField == "" {
		return fmt.Errorf("prompt_field must not be empty")
	}

	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout must not be negative, got %s", time.Duration(c.RequestTimeout))
	}

	return nil
}

// Timeout returns the request timeout as a time.Duration
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout)
}
