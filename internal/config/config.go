package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config is the persistent application configuration
type Config struct {
	DataDir  string    `toml:"data_dir"`
	LogLevel string    `toml:"log_level"` // "debug", "info", "warn", "error"
	API      APIConfig `toml:"api"`
	AI       AIConfig  `toml:"ai"`
	UI       UIConfig  `toml:"ui"`
}

// APIConfig points at the search/document service.
type APIConfig struct {
	BaseURL       string  `toml:"base_url"`
	Timeout       string  `toml:"timeout"`         // e.g. "15s"
	RatePerSecond float64 `toml:"rate_per_second"` // 0 = unlimited
}

// AIConfig selects and configures the analysis backend.
type AIConfig struct {
	Provider         string         `toml:"provider"` // "gemini" or "ollama"
	Timeout          string         `toml:"timeout"`
	CompareCharLimit int            `toml:"compare_char_limit"` // per-document body ceiling for comparisons
	Gemini           GeminiSettings `toml:"gemini"`
	Ollama           OllamaSettings `toml:"ollama"`
}

// GeminiSettings for the Gemini API.
type GeminiSettings struct {
	APIKey string `toml:"api_key,omitempty"`
	Model  string `toml:"model"`
}

// OllamaSettings for a local Ollama server.
type OllamaSettings struct {
	Host  string `toml:"host,omitempty"` // empty = OLLAMA_HOST or the Ollama default
	Model string `toml:"model"`
}

// UIConfig holds UI preferences
type UIConfig struct {
	HistorySize int `toml:"history_size"` // recent queries recalled in the search bar
}

// DefaultTimeout applies to every network request unless configured otherwise.
const DefaultTimeout = 15 * time.Second

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		DataDir:  filepath.Join(home, ".emsal"),
		LogLevel: "info",
		API: APIConfig{
			BaseURL: "http://localhost:3000",
			Timeout: DefaultTimeout.String(),
		},
		AI: AIConfig{
			Provider:         "gemini",
			Timeout:          DefaultTimeout.String(),
			CompareCharLimit: 8000,
			Gemini:           GeminiSettings{Model: "gemini-2.5-flash"},
			Ollama:           OllamaSettings{Model: "llama3.1"},
		},
		UI: UIConfig{HistorySize: 20},
	}
}

// Path returns the config file location inside dataDir.
func Path(dataDir string) string {
	return filepath.Join(dataDir, "config.toml")
}

// Load reads <dataDir>/config.toml, falling back to defaults when the file
// does not exist, then applies environment overrides. An empty dataDir means
// EMSAL_DATA_DIR or ~/.emsal.
func Load(dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	if dataDir == "" {
		dataDir = os.Getenv("EMSAL_DATA_DIR")
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}

	data, err := os.ReadFile(Path(cfg.DataDir))
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("config: read: %w", err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", Path(cfg.DataDir), err)
		}
		if dataDir != "" {
			cfg.DataDir = dataDir
		}
	}

	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes config to disk
func (c *Config) Save() error {
	path := Path(c.DataDir)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}

	return os.WriteFile(path, data, 0600) // Restrictive permissions for API keys
}

// ApplyEnv overrides file values with environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("EMSAL_API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("EMSAL_PROVIDER"); v != "" {
		c.AI.Provider = v
	}
	// API_KEY is what the web build of the console read.
	for _, key := range []string{"API_KEY", "GOOGLE_API_KEY", "GEMINI_API_KEY"} {
		if v := os.Getenv(key); v != "" {
			c.AI.Gemini.APIKey = v
		}
	}
	if v := os.Getenv("EMSAL_GEMINI_MODEL"); v != "" {
		c.AI.Gemini.Model = v
	}
	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		c.AI.Ollama.Host = v
	}
	if v := os.Getenv("EMSAL_OLLAMA_MODEL"); v != "" {
		c.AI.Ollama.Model = v
	}
	if v := os.Getenv("EMSAL_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// LoadKeysFromFile loads keys from a shell script of `export KEY=value` lines.
func (c *Config) LoadKeysFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "export "))
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		value = strings.Trim(value, `"'`)

		switch key {
		case "API_KEY", "GOOGLE_API_KEY", "GEMINI_API_KEY":
			c.AI.Gemini.APIKey = value
		case "OLLAMA_HOST":
			c.AI.Ollama.Host = value
		}
	}

	return nil
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	if _, err := c.APITimeout(); err != nil {
		return err
	}
	if _, err := c.AITimeout(); err != nil {
		return err
	}
	switch c.AI.Provider {
	case "gemini", "ollama":
	default:
		return fmt.Errorf("config: unknown ai.provider %q (want gemini or ollama)", c.AI.Provider)
	}
	if c.AI.CompareCharLimit <= 0 {
		return fmt.Errorf("config: ai.compare_char_limit must be positive, got %d", c.AI.CompareCharLimit)
	}
	return nil
}

// APITimeout parses api.timeout; empty means DefaultTimeout.
func (c *Config) APITimeout() (time.Duration, error) {
	return parseTimeout("api.timeout", c.API.Timeout)
}

// AITimeout parses ai.timeout; empty means DefaultTimeout.
func (c *Config) AITimeout() (time.Duration, error) {
	return parseTimeout("ai.timeout", c.AI.Timeout)
}

func parseTimeout(name, v string) (time.Duration, error) {
	if v == "" {
		return DefaultTimeout, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s %q: %w", name, v, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("config: %s must be positive, got %s", name, v)
	}
	return d, nil
}
