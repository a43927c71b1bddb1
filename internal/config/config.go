// internal/config/config.go
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Server struct {
		Host string `json:"host" toml:"host"`
		Port int    `json:"port" toml:"port"`
	} `json:"server" toml:"server"`

	Store struct {
		CacheSize   int `json:"cache_size" toml:"cache_size"`     // decoded payloads kept in the LRU
		Compression struct {
			MinSize int `json:"min_size" toml:"min_size"` // bytes
			Level   int `json:"level" toml:"level"`       // 1=fastest, 2=default, 3=better, 4=best
		} `json:"compression" toml:"compression"`
	} `json:"store" toml:"store"`

	Environment string `json:"environment" toml:"environment"` // development, production
	LogLevel    string `json:"log_level" toml:"log_level"`     // debug, info, warn, error
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	var cfg Config
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 8080
	cfg.Store.CacheSize = 256
	cfg.Store.Compression.MinSize = 1024
	cfg.Store.Compression.Level = 2
	cfg.Environment = "development"
	cfg.LogLevel = "info"
	return &cfg
}

// Path resolves the config file from TTFS_ENV, the way deployments lay
// them out: config/config.<env>.json.
func Path() string {
	env := os.Getenv("TTFS_ENV")
	if env == "" {
		env = "development"
	}
	return fmt.Sprintf("config/config.%s.json", env)
}

// Load reads a JSON or TOML (by extension) file on top of Default and
// validates the result.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.NewDecoder(file).Decode(cfg); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", path, err)
		}
	default:
		if err := json.NewDecoder(file).Decode(cfg); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs *multierror.Error

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = multierror.Append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Store.CacheSize <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("store.cache_size must be positive, got %d", c.Store.CacheSize))
	}
	if c.Store.Compression.MinSize < 0 {
		errs = multierror.Append(errs, fmt.Errorf("store.compression.min_size must not be negative"))
	}
	if c.Store.Compression.Level < 1 || c.Store.Compression.Level > 4 {
		errs = multierror.Append(errs, fmt.Errorf("store.compression.level must be between 1 and 4, got %d", c.Store.Compression.Level))
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("log_level: %w", err))
	}

	return errs.ErrorOrNil()
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Watch calls onChange with the freshly loaded config every time path is
// written or replaced, until ctx is done. Files that fail to load are logged
// and skipped.
func Watch(ctx context.Context, path string, logger *zap.Logger, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating config watcher: %w", err)
	}

	// Editors replace files by rename, so watch the directory.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watching %s: %w", path, err)
	}

	target := filepath.Clean(path)
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				cfg, err := Load(path)
				if err != nil {
					logger.Warn("ignoring config change", zap.String("path", path), zap.Error(err))
					continue
				}
				logger.Info("config reloaded", zap.String("path", path))
				onChange(cfg)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Error("config watcher error", zap.Error(err))
			}
		}
	}()

	return nil
}
