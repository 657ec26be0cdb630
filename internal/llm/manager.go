package llm

import (
	"context"
	"time"

	"github.com/Malumbo21/askdb/internal/config"
	askerrors "github.com/Malumbo21/askdb/internal/errors"
	"github.com/Malumbo21/askdb/internal/logging"
)

// Manager wraps a Service with timeout and retry behavior. Transient
// transport failures are retried; context cancellation is not.
type Manager struct {
	service Service
	config  ManagerConfig
}

// ManagerConfig configures manager behavior.
type ManagerConfig struct {
	RetryAttempts int           `json:"retry_attempts"`
	RetryDelay    time.Duration `json:"retry_delay"`
	Timeout       time.Duration `json:"timeout"`
}

// NewManager wraps the given service.
func NewManager(service Service, cfg ManagerConfig) *Manager {
	return &Manager{
		service: service,
		config:  cfg,
	}
}

// NewManagerFromConfig builds a fully configured manager from application
// configuration.
func NewManagerFromConfig(cfg *config.Config) (*Manager, error) {
	client, err := NewClient(Config{
		Provider: cfg.LLM.Provider,
		Model:    cfg.LLM.Model,
		APIKey:   cfg.LLM.APIKey,
		BaseURL:  cfg.LLM.BaseURL,
	})
	if err != nil {
		return nil, err
	}

	client.SetTimeout(cfg.LLMTimeout())

	return NewManager(client, ManagerConfig{
		RetryAttempts: cfg.LLM.RetryAttempts,
		RetryDelay:    cfg.LLMRetryDelay(),
		Timeout:       cfg.LLMTimeout(),
	}), nil
}

// Configure forwards configuration to the underlying service.
func (m *Manager) Configure(cfg Config) error {
	return m.service.Configure(cfg)
}

// Complete calls the underlying service with retries.
func (m *Manager) Complete(ctx context.Context, prompt string) (string, error) {
	if m.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.config.Timeout)

		defer cancel()
	}

	var lastErr error

	for attempt := 0; attempt <= m.config.RetryAttempts; attempt++ {
		if attempt > 0 {
			logging.WithField("attempt", attempt).Debug("retrying completion request")

			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(m.config.RetryDelay):
			}
		}

		response, err := m.service.Complete(ctx, prompt)
		if err == nil {
			return response, nil
		}

		lastErr = err

		if ctx.Err() != nil {
			break
		}
	}

	return "", askerrors.Wrapf(lastErr, askerrors.ErrTypeLLM,
		"completion failed after %d attempts", m.config.RetryAttempts+1)
}

// DefaultManagerConfig returns a sensible default configuration.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		RetryAttempts: 2,
		RetryDelay:    2 * time.Second,
		Timeout:       time.Minute,
	}
}

var _ Service = (*Manager)(nil)
