// Package config manages application configuration from various sources.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/quill-ai/quill/internal/logging"
	"github.com/spf13/viper"
)

// LSPConfig defines configuration for a single language server. The map key
// in Config.LSP is the server id; ids matching a built-in definition inherit
// its defaults, unknown ids register a custom server.
type LSPConfig struct {
	Disabled       bool              `json:"disabled"`
	Command        string            `json:"command"`
	Args           []string          `json:"args"`
	Extensions     []string          `json:"extensions,omitempty"`
	RootMarkers    []string          `json:"rootMarkers,omitempty"`
	Env            map[string]string `json:"env,omitempty"`
	Initialization any               `json:"initialization,omitempty"`
}

// Data defines storage configuration.
type Data struct {
	Directory string `json:"directory,omitempty"`
}

// Config is the main configuration structure for the application.
type Config struct {
	Data               Data                 `json:"data"`
	WorkingDir         string               `json:"wd,omitempty"`
	LSP                map[string]LSPConfig `json:"lsp,omitempty"`
	Debug              bool                 `json:"debug,omitempty"`
	DebugLSP           bool                 `json:"debugLSP,omitempty"`
	DisableLSP         bool                 `json:"disableLSP,omitempty"`
	DisableLSPDownload bool                 `json:"disableLSPDownload,omitempty"`

	// LSPDiagnosticTimeout is the bounded wait, in milliseconds, for the
	// next diagnostics publish after a document is opened or changed.
	LSPDiagnosticTimeout int `json:"lspDiagnosticTimeout,omitempty"`
}

// Application constants
const (
	defaultDataDirectory     = ".quill"
	appName                  = "quill"
	defaultDiagnosticTimeout = 5000
)

// for testability
type Configurator interface {
	WorkingDirectory() string
}

// Global configuration instance
var cfg *Config

// Reset clears the global configuration, allowing Load to be called again.
// This is intended for use in tests only.
func Reset() {
	cfg = nil
	viper.Reset()
}

// Load initializes the configuration from environment variables and config
// files. If debug is true, debug mode is enabled and log level is set to
// debug. It returns an error if configuration loading fails.
func Load(workingDir string, debug bool) (*Config, error) {
	if cfg != nil {
		return cfg, nil
	}

	cfg = &Config{
		WorkingDir: workingDir,
		LSP:        make(map[string]LSPConfig),
	}

	configureViper()
	setDefaults(debug)

	// Read global config
	if err := readConfig(viper.ReadInConfig()); err != nil {
		return cfg, err
	}

	// Load and merge local config
	mergeLocalConfig(workingDir)

	// Apply configuration to the struct
	if err := viper.Unmarshal(cfg); err != nil {
		return cfg, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaultValues()

	defaultLevel := slog.LevelInfo
	if cfg.Debug {
		defaultLevel = slog.LevelDebug
	}

	if cfg.Debug {
		loggingFile := filepath.Join(cfg.Data.Directory, "debug.log")
		if err := os.MkdirAll(cfg.Data.Directory, 0o755); err != nil {
			return cfg, fmt.Errorf("failed to create data directory: %w", err)
		}
		logging.PanicDir = cfg.Data.Directory

		writer, err := os.OpenFile(loggingFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
		if err != nil {
			return cfg, fmt.Errorf("failed to open log file: %w", err)
		}
		logger := slog.New(slog.NewTextHandler(writer, &slog.HandlerOptions{
			Level: defaultLevel,
		}))
		slog.SetDefault(logger)
	} else {
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: defaultLevel,
		}))
		slog.SetDefault(logger)
	}

	return cfg, nil
}

// configureViper sets up viper's configuration paths and environment variables.
func configureViper() {
	viper.SetConfigName(fmt.Sprintf(".%s", appName))
	viper.SetConfigType("json")
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath(fmt.Sprintf("$XDG_CONFIG_HOME/%s", appName))
	viper.AddConfigPath(fmt.Sprintf("$HOME/.config/%s", appName))
	viper.SetEnvPrefix(strings.ToUpper(appName))
	viper.AutomaticEnv()
}

// setDefaults configures default values for configuration options.
func setDefaults(debug bool) {
	viper.SetDefault("data.directory", defaultDataDirectory)
	viper.SetDefault("lspDiagnosticTimeout", defaultDiagnosticTimeout)

	if v := os.Getenv("QUILL_DISABLE_LSP_DOWNLOAD"); v == "true" || v == "1" {
		viper.Set("disableLSPDownload", true)
	}

	if debug {
		viper.Set("debug", true)
	}
}

// readConfig handles the result of reading a configuration file.
func readConfig(err error) error {
	if err == nil {
		return nil
	}

	// It's okay if the config file doesn't exist
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		return nil
	}

	return fmt.Errorf("failed to read config: %w", err)
}

// mergeLocalConfig loads and merges a project-local configuration file, if present.
func mergeLocalConfig(workingDir string) {
	local := viper.New()
	local.SetConfigName(fmt.Sprintf(".%s", appName))
	local.SetConfigType("json")
	local.AddConfigPath(workingDir)

	if err := local.ReadInConfig(); err == nil {
		viper.MergeConfigMap(local.AllSettings())
	}
}

// applyDefaultValues fills in values viper cannot default sensibly.
func applyDefaultValues() {
	if cfg.LSPDiagnosticTimeout <= 0 {
		cfg.LSPDiagnosticTimeout = defaultDiagnosticTimeout
	}
	if cfg.LSP == nil {
		cfg.LSP = make(map[string]LSPConfig)
	}
}

// Get returns the current configuration, loading it with defaults if needed.
func Get() *Config {
	if cfg == nil {
		workingDir, err := os.Getwd()
		if err != nil {
			panic(fmt.Sprintf("failed to get current working directory: %v", err))
		}
		if _, err := Load(workingDir, false); err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	}
	return cfg
}

// WorkingDirectory returns the current working directory from the configuration.
func WorkingDirectory() string {
	return Get().WorkingDir
}

func (c *Config) WorkingDirectory() string {
	return c.WorkingDir
}
