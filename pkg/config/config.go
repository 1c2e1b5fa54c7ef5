package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the drivelog configuration
type Config struct {
	DataDir  string   `yaml:"data_dir"`
	Port     int      `yaml:"port"`
	Bind     string   `yaml:"bind"`
	Mode     string   `yaml:"mode"`
	Log      Log      `yaml:"log"`
	Frames   Frames   `yaml:"frames"`
	Device   Device   `yaml:"device"`
	Security Security `yaml:"security"`
	Logging  Logging  `yaml:"logging"`
}

// Log configures the device feedback log
type Log struct {
	Path          string        `yaml:"path"`
	FsyncInterval time.Duration `yaml:"fsync_interval"`
	ChunkSize     int           `yaml:"chunk_size"`
}

// Frames configures the controller's training frame store
type Frames struct {
	Path string `yaml:"path"`
	Sync bool   `yaml:"sync"`
}

// Device configures the simulated device
type Device struct {
	ControllerURL string        `yaml:"controller_url"`
	Interval      time.Duration `yaml:"interval"`
	Timeout       time.Duration `yaml:"timeout"`
	ImageDir      string        `yaml:"image_dir"`
	Seed          int64         `yaml:"seed"`
}

// Security contains the operator API key guarding command and mode changes
type Security struct {
	OperatorKey string `yaml:"operator_key"`
}

// Logging contains logging configuration
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		DataDir: "./data",
		Port:    8080,
		Bind:    "127.0.0.1",
		Mode:    "manual",
		Log: Log{
			FsyncInterval: time.Second,
			ChunkSize:     32 * 1024,
		},
		Device: Device{
			ControllerURL: "http://127.0.0.1:8080",
			Interval:      100 * time.Millisecond,
			Timeout:       2 * time.Second,
			Seed:          1,
		},
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
	}
}

// LogPath returns the feedback log path, defaulting into DataDir
func (c *Config) LogPath() string {
	if c.Log.Path != "" {
		return c.Log.Path
	}
	return filepath.Join(c.DataDir, "feedback.log")
}

// FramesPath returns the frame store directory, defaulting into DataDir
func (c *Config) FramesPath() string {
	if c.Frames.Path != "" {
		return c.Frames.Path
	}
	return filepath.Join(c.DataDir, "frames")
}

// Validate reports the first invalid setting
func (c *Config) Validate() error {
	if c.DataDir == "" && (c.Log.Path == "" || c.Frames.Path == "") {
		return errors.New("data_dir is required")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	switch c.Mode {
	case "manual", "training", "auto":
	default:
		return fmt.Errorf("unknown mode %q", c.Mode)
	}
	if c.Log.FsyncInterval < 0 {
		return errors.New("log.fsync_interval must not be negative")
	}
	if c.Log.ChunkSize < 0 {
		return errors.New("log.chunk_size must not be negative")
	}
	if c.Device.Interval <= 0 {
		return errors.New("device.interval must be positive")
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("unknown logging format %q", c.Logging.Format)
	}
	return nil
}

// LoadConfig loads configuration from the specified path. Settings missing
// from the file keep their defaults.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveConfig saves the configuration to the specified path with secure permissions
func SaveConfig(config *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// 0600: the file carries the operator key
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GenerateSecureKey generates a cryptographically secure random key
func GenerateSecureKey(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate secure key: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// BootstrapConfig writes a default configuration with a generated operator key
func BootstrapConfig(configPath string, dataDir string) (*Config, error) {
	config := DefaultConfig()
	if dataDir != "" {
		config.DataDir = dataDir
	}

	operatorKey, err := GenerateSecureKey(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate operator key: %w", err)
	}
	config.Security.OperatorKey = operatorKey

	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save bootstrap config: %w", err)
	}

	return config, nil
}

// GetDefaultConfigPath returns the default configuration path for the current platform
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./drivelog.yaml"
	}

	// ~/.config/drivelog/config.yaml on Linux and macOS
	configDir := filepath.Join(homeDir, ".config", "drivelog")
	return filepath.Join(configDir, "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
