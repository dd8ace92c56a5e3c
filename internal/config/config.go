// Package config provides configuration management for screenprobe.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"screenprobe/internal/hotkey"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("odd", func(fl validator.FieldLevel) bool {
		return fl.Field().Int()%2 != 0
	})
	validate.RegisterValidation("hotkey", func(fl validator.FieldLevel) bool {
		_, err := hotkey.Parse(fl.Field().String())
		return err == nil
	})
}

// Config represents the application configuration
type Config struct {
	Sampling SamplingConfig `json:"sampling"`
	Capture  CaptureConfig  `json:"capture"`
	API      APIConfig      `json:"api"`
	Tray     TrayConfig     `json:"tray"`
	Log      LogConfig      `json:"log"`
}

// SamplingConfig controls pointer color sampling
type SamplingConfig struct {
	// Neighborhood is the side of the block captured around the pointer
	Neighborhood int `json:"neighborhood" validate:"min=1,max=15,odd"`
}

// CaptureConfig controls screen capture
type CaptureConfig struct {
	// Default is the region captured when none is given: "main" or "virtual"
	Default string `json:"default" validate:"oneof=main virtual"`
}

// APIConfig controls the HTTP API server
type APIConfig struct {
	// Enabled starts the API server with the tray
	Enabled bool `json:"enabled"`

	// Port is the TCP port the server listens on (default: 18090)
	Port int `json:"port" validate:"min=1,max=65535"`

	// Token is an optional bearer token required on every request
	Token string `json:"token,omitempty"`

	// StreamIntervalMs is the period of the websocket sample stream
	StreamIntervalMs int `json:"stream_interval_ms" validate:"min=10,max=60000"`
}

// TrayConfig controls the system tray
type TrayConfig struct {
	// RefreshMs is how often the tray title is refreshed
	RefreshMs int `json:"refresh_ms" validate:"min=50,max=60000"`

	// PickHotkey copies the color under the pointer; empty disables it
	PickHotkey string `json:"pick_hotkey" validate:"omitempty,hotkey"`
}

// LogConfig controls logging
type LogConfig struct {
	Level string `json:"level" validate:"omitempty,oneof=debug info warn error"`
}

// DefaultConfig returns a new Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Sampling: SamplingConfig{Neighborhood: 3},
		Capture:  CaptureConfig{Default: "main"},
		API: APIConfig{
			Enabled:          false,
			Port:             18090,
			StreamIntervalMs: 250,
		},
		Tray: TrayConfig{RefreshMs: 500, PickHotkey: "Ctrl+Alt+P"},
		Log:  LogConfig{Level: "info"},
	}
}

// Validate checks every section against its constraints
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			fe := validationErrors[0]
			field := strings.ToLower(fe.Namespace())
			switch fe.Tag() {
			case "odd":
				return fmt.Errorf("invalid config: %s must be odd, got %v", field, fe.Value())
			case "hotkey":
				return fmt.Errorf("invalid config: %s %q is not a key combination", field, fe.Value())
			case "oneof":
				return fmt.Errorf("invalid config: %s must be one of: %s", field, fe.Param())
			case "min", "max":
				return fmt.Errorf("invalid config: %s must be %s %s, got %v", field, fe.Tag(), fe.Param(), fe.Value())
			}
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Manager handles loading and saving configuration
type Manager struct {
	mu         sync.Mutex
	configPath string
	config     *Config
	onChanged  func()
	log        *zap.SugaredLogger
}

// NewManager creates a configuration manager using the per-OS config path
func NewManager() (*Manager, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}
	return NewManagerAt(configPath), nil
}

// NewManagerAt creates a configuration manager backed by the given file
func NewManagerAt(path string) *Manager {
	return &Manager{
		configPath: path,
		config:     DefaultConfig(),
		log:        zap.NewNop().Sugar(),
	}
}

// SetLogger replaces the manager's logger
func (m *Manager) SetLogger(log *zap.SugaredLogger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log = log.Named("config")
}

// Path returns the backing file
func (m *Manager) Path() string {
	return m.configPath
}

// getConfigPath returns the path to the configuration file
func getConfigPath() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "screenprobe")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		configDir = filepath.Join(appData, "screenprobe")
	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, ".config", "screenprobe")
	}

	return filepath.Join(configDir, "config.json"), nil
}

// Load reads the configuration from disk. A missing file keeps the defaults.
func (m *Manager) Load() error {
	m.mu.Lock()

	data, err := os.ReadFile(m.configPath)
	if os.IsNotExist(err) {
		m.mu.Unlock()
		return nil
	}
	if err != nil {
		m.mu.Unlock()
		return err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("failed to parse %s: %w", m.configPath, err)
	}
	if err := cfg.Validate(); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("%s: %w", m.configPath, err)
	}
	m.config = cfg
	onChanged := m.onChanged
	m.mu.Unlock()

	if onChanged != nil {
		onChanged()
	}
	return nil
}

// Save writes the configuration to disk
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.config.Validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(m.configPath), 0755); err != nil {
		return err
	}

	m.log.Infof("Config: Saving configuration to %s (%d bytes)", m.configPath, len(data))
	return os.WriteFile(m.configPath, data, 0644)
}

// Get returns a copy of the current configuration
func (m *Manager) Get() Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.config
}

// Set validates and updates the configuration
func (m *Manager) Set(config Config) error {
	if err := config.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	m.config = &config
	onChanged := m.onChanged
	m.mu.Unlock()
	if onChanged != nil {
		onChanged()
	}
	return nil
}

// RegisterChangeCallback registers a function to be called when config changes
func (m *Manager) RegisterChangeCallback(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChanged = fn
}
