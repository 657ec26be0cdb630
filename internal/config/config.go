// Package config loads askdb configuration from a JSON file plus
// environment-variable overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config represents the application configuration.
type Config struct {
	Databases []DatabaseConfig `json:"databases"`
	LLM       LLMConfig        `json:"llm"      envPrefix:"ASKDB_"`
	Linker    LinkerConfig     `json:"linker"   envPrefix:"ASKDB_"`
	Executor  ExecutorConfig   `json:"executor" envPrefix:"ASKDB_"`
	Logging   LoggingConfig    `json:"logging"  envPrefix:"ASKDB_"`
}

// DatabaseConfig describes one target database connection. Databases come
// from the config file; a single default database can also be supplied via
// ASKDB_DB_ID / ASKDB_DB_DRIVER / ASKDB_DB_DSN for quick setups.
type DatabaseConfig struct {
	ID     string `json:"id"`
	Driver string `json:"driver"` // mysql, postgres, sqlserver
	DSN    string `json:"dsn"`
}

// LLMConfig configures the text-completion service client.
type LLMConfig struct {
	Provider      string `json:"provider"       env:"LLM_PROVIDER"       envDefault:"openai"` // openai, anthropic, ollama
	Model         string `json:"model"          env:"LLM_MODEL"          envDefault:"gpt-4o-mini"`
	APIKey        string `json:"api_key"        env:"LLM_API_KEY"`
	BaseURL       string `json:"base_url"       env:"LLM_BASE_URL"`
	Timeout       string `json:"timeout"        env:"LLM_TIMEOUT"        envDefault:"60s"`
	RetryAttempts int    `json:"retry_attempts" env:"LLM_RETRY_ATTEMPTS" envDefault:"2"`
	RetryDelay    string `json:"retry_delay"    env:"LLM_RETRY_DELAY"    envDefault:"2s"`
}

// LinkerConfig carries the schema-linking thresholds. The small-schema
// values are empirically tuned, kept configurable rather than hard-coded.
type LinkerConfig struct {
	MaxKeywords       int `json:"max_keywords"        env:"LINKER_MAX_KEYWORDS"        envDefault:"10"`
	MinRelevantTables int `json:"min_relevant_tables" env:"LINKER_MIN_RELEVANT_TABLES" envDefault:"2"`
	SmallSchemaTables int `json:"small_schema_tables" env:"LINKER_SMALL_SCHEMA_TABLES" envDefault:"10"`
	SampleRows        int `json:"sample_rows"         env:"LINKER_SAMPLE_ROWS"         envDefault:"3"`
}

// ExecutorConfig bounds the revision and retry loops.
type ExecutorConfig struct {
	MaxRevisionAttempts int    `json:"max_revision_attempts" env:"MAX_REVISION_ATTEMPTS" envDefault:"3"`
	MaxExecutionRetries int    `json:"max_execution_retries" env:"MAX_EXECUTION_RETRIES" envDefault:"3"`
	TurnTimeout         string `json:"turn_timeout"          env:"TURN_TIMEOUT"          envDefault:"5m"`
	RowLimit            int    `json:"row_limit"             env:"ROW_LIMIT"             envDefault:"100"`
}

// LoggingConfig represents logging configuration.
type LoggingConfig struct {
	Level  string `json:"level"  env:"LOG_LEVEL"  envDefault:"info"`   // debug, info, warn, error
	Format string `json:"format" env:"LOG_FORMAT" envDefault:"text"`   // text, json
	Output string `json:"output" env:"LOG_OUTPUT" envDefault:"stderr"` // stdout, stderr, file
	File   string `json:"file"   env:"LOG_FILE"`
}

// envDatabase mirrors the single-database env override.
type envDatabase struct {
	ID     string `env:"DB_ID"     envDefault:"main"`
	Driver string `env:"DB_DRIVER"`
	DSN    string `env:"DB_DSN"`
}

// Load reads the config file (if present), applies environment overrides and
// defaults, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{}

	path := configPath()
	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: "ASKDB_"}); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	var envDB envDatabase
	if err := env.ParseWithOptions(&envDB, env.Options{Prefix: "ASKDB_"}); err != nil {
		return nil, fmt.Errorf("failed to parse database environment variables: %w", err)
	}

	if envDB.DSN != "" && envDB.Driver != "" {
		cfg.Databases = append(cfg.Databases, DatabaseConfig{
			ID:     envDB.ID,
			Driver: envDB.Driver,
			DSN:    envDB.DSN,
		})
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for common errors.
func (c *Config) Validate() error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.Logging.Format)
	}

	validOutputs := map[string]bool{"stdout": true, "stderr": true, "file": true}
	if !validOutputs[strings.ToLower(c.Logging.Output)] {
		return fmt.Errorf("invalid log output: %s (must be stdout, stderr, or file)", c.Logging.Output)
	}

	validDrivers := map[string]bool{"mysql": true, "postgres": true, "sqlserver": true}
	seen := make(map[string]bool)

	for _, db := range c.Databases {
		if db.ID == "" {
			return fmt.Errorf("database entry missing id")
		}

		if seen[db.ID] {
			return fmt.Errorf("duplicate database id: %s", db.ID)
		}

		seen[db.ID] = true

		if !validDrivers[db.Driver] {
			return fmt.Errorf("unsupported driver %q for database %s", db.Driver, db.ID)
		}

		if db.DSN == "" {
			return fmt.Errorf("database %s missing dsn", db.ID)
		}
	}

	for name, value := range map[string]string{
		"llm timeout":     c.LLM.Timeout,
		"llm retry delay": c.LLM.RetryDelay,
		"turn timeout":    c.Executor.TurnTimeout,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s: %s", name, value)
		}
	}

	if c.Executor.MaxRevisionAttempts < 1 {
		return fmt.Errorf("max revision attempts must be positive: %d", c.Executor.MaxRevisionAttempts)
	}

	if c.Executor.MaxExecutionRetries < 1 {
		return fmt.Errorf("max execution retries must be positive: %d", c.Executor.MaxExecutionRetries)
	}

	if c.Linker.MaxKeywords < 1 {
		return fmt.Errorf("linker max keywords must be positive: %d", c.Linker.MaxKeywords)
	}

	return nil
}

// TurnTimeout returns the parsed turn timeout.
func (c *Config) TurnTimeout() time.Duration {
	d, err := time.ParseDuration(c.Executor.TurnTimeout)
	if err != nil {
		return 5 * time.Minute
	}

	return d
}

// LLMTimeout returns the parsed completion-call timeout.
func (c *Config) LLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 60 * time.Second
	}

	return d
}

// LLMRetryDelay returns the parsed delay between completion retries.
func (c *Config) LLMRetryDelay() time.Duration {
	d, err := time.ParseDuration(c.LLM.RetryDelay)
	if err != nil {
		return 2 * time.Second
	}

	return d
}

// configPath returns the configuration file location, honoring the
// ASKDB_CONFIG override.
func configPath() string {
	if path := os.Getenv("ASKDB_CONFIG"); path != "" {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./askdb.json"
	}

	return filepath.Join(homeDir, ".config", "askdb", "config.json")
}
