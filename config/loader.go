package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
)

const (
	// ProjectConfigFile is looked up from the working directory upwards.
	ProjectConfigFile = "semview.yaml"
	// UserConfigDir holds the user config below the home directory.
	UserConfigDir = ".config/semview"
	// UserConfigFile is the file name inside UserConfigDir.
	UserConfigFile = "config.yaml"
)

// Environment variables applied after every file layer.
const (
	EnvAddr         = "SEMVIEW_ADDR"
	EnvNATSURL      = "SEMVIEW_NATS_URL"
	EnvLanguage     = "SEMVIEW_LANGUAGE"
	EnvMaxNodes     = "SEMVIEW_MAX_NODES"
	EnvCacheSize    = "SEMVIEW_CACHE_SIZE"
	EnvAllowPrivate = "SEMVIEW_ALLOW_PRIVATE"
)

// Loader resolves the effective configuration.
type Loader struct {
	logger *slog.Logger
	getenv func(string) string
}

// NewLoader creates a Loader reading the process environment.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger, getenv: os.Getenv}
}

// layer is one config file in precedence order.
type layer struct {
	name     string
	path     string
	required bool
}

// Load builds the configuration from, lowest precedence first: defaults,
// the user file, the nearest project file, the explicit file and the
// environment. Only the explicit file must exist.
func (l *Loader) Load(explicit string) (*Config, error) {
	cfg := DefaultConfig()

	layers := []layer{
		{name: "user", path: l.userConfigPath()},
		{name: "project", path: findUpward(ProjectConfigFile)},
		{name: "explicit", path: explicit, required: true},
	}
	for _, ly := range layers {
		if ly.path == "" {
			continue
		}
		err := cfg.LoadInto(ly.path)
		switch {
		case err == nil:
			l.logger.Debug("Loaded config layer", slog.String("layer", ly.name), slog.String("path", ly.path))
		case ly.required:
			return nil, err
		case errors.Is(err, fs.ErrNotExist):
		default:
			l.logger.Warn("Skipping config layer", slog.String("layer", ly.name), slog.String("path", ly.path), slog.String("error", err.Error()))
		}
	}

	env, err := l.fromEnv()
	if err != nil {
		return nil, err
	}
	cfg.Merge(env)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// fromEnv collects the environment overrides into a sparse Config.
func (l *Loader) fromEnv() (*Config, error) {
	var env Config
	env.Server.Addr = l.getenv(EnvAddr)
	env.NATS.URL = l.getenv(EnvNATSURL)
	env.Labels.Language = l.getenv(EnvLanguage)

	ints := []struct {
		key string
		dst *int
	}{
		{EnvMaxNodes, &env.View.MaxNodes},
		{EnvCacheSize, &env.Cache.Size},
	}
	for _, v := range ints {
		raw := l.getenv(v.key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", v.key, err)
		}
		*v.dst = n
	}

	if raw := l.getenv(EnvAllowPrivate); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvAllowPrivate, err)
		}
		env.Source.AllowPrivate = b
	}
	return &env, nil
}

// EnsureUserConfig writes the defaults to the user config file unless it
// already exists, and returns its path.
func (l *Loader) EnsureUserConfig() (string, error) {
	path := l.userConfigPath()
	if path == "" {
		return "", errors.New("cannot determine home directory")
	}
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	if err := DefaultConfig().SaveToFile(path); err != nil {
		return "", err
	}
	l.logger.Info("Created default user config", slog.String("path", path))
	return path, nil
}

func (l *Loader) userConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, UserConfigDir, UserConfigFile)
}

// findUpward returns the first name found in the working directory or one
// of its parents.
func findUpward(name string) string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
