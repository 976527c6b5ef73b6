package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config captures the settings libterm reads from its config file.
type Config struct {
	APIURL         string
	DataDir        string
	LogLevel       string
	StartPath      string
	RequestTimeout time.Duration // zero means no client-side timeout
}

const (
	defaultConfigPath = "~/.config/libterm/config.toml"
	defaultDataDir    = "~/.local/share/libterm"
	defaultAPIURL     = "http://127.0.0.1:5000"
	defaultLogLevel   = "info"
	defaultStartPath  = "/"
)

// Load locates and parses the libterm config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Defaults()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIURL         string `toml:"api_url"`
		DataDir        string `toml:"data_dir"`
		LogLevel       string `toml:"log_level"`
		StartPath      string `toml:"start_path"`
		RequestTimeout int    `toml:"request_timeout"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIURL); v != "" {
		cfg.APIURL = v
	}
	if v := strings.TrimSpace(raw.DataDir); v != "" {
		cfg.DataDir = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := strings.TrimSpace(raw.StartPath); v != "" {
		cfg.StartPath = v
	}
	if raw.RequestTimeout < 0 {
		return Config{}, fmt.Errorf("parse config: request_timeout must not be negative")
	}
	cfg.RequestTimeout = time.Duration(raw.RequestTimeout) * time.Second

	return cfg, nil
}

// Defaults returns the configuration used when no file exists.
func Defaults() Config {
	return Config{
		APIURL:    defaultAPIURL,
		DataDir:   mustExpand(defaultDataDir),
		LogLevel:  defaultLogLevel,
		StartPath: defaultStartPath,
	}
}

// DBPath returns the path of the sqlite state database.
func (c Config) DBPath() string {
	return filepath.Join(c.dataDir(), "state.db")
}

// LogPath returns the path of the log file.
func (c Config) LogPath() string {
	return filepath.Join(c.dataDir(), "libterm.log")
}

func (c Config) dataDir() string {
	if strings.TrimSpace(c.DataDir) == "" {
		return mustExpand(defaultDataDir)
	}
	return c.DataDir
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
