package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// loggerKey is used to store logger in context.
type loggerKey struct{}

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// EnvPrefix prefixes every environment override. A double underscore
// separates nesting levels: MOVIERANK_TMDB__API_KEY sets tmdb.api_key.
const EnvPrefix = "MOVIERANK_"

// APIKeyEnv is the conventional TMDb key variable, used when tmdb.api_key
// is not set any other way.
const APIKeyEnv = "TMDB_API_KEY"

// FlagKeyAnnotation marks a command flag with the config key it overrides.
const FlagKeyAnnotation = "movierank/config-key"

// globalFlagKeys maps root persistent flags to config keys.
var globalFlagKeys = map[string]string{
	"database":   "database",
	"verbose":    "verbose",
	"output":     "output_format",
	"log-format": "log_format",
}

// pathKeys are resolved against the project root unless set by a flag.
var pathKeys = []string{
	"database",
	"inputs.popularity",
	"inputs.revenue",
	"inputs.ratings",
	"output.path",
	"tmdb.popularity_raw",
	"tmdb.revenue_raw",
	"imdb.basics",
	"imdb.ratings",
	"history.path",
}

// Package-level koanf instance and config file tracking
var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config // Stores the loaded config for access by commands
)

// BindFlag annotates a command flag so that, when set, it overrides key.
func BindFlag(flags *pflag.FlagSet, name, key string) {
	_ = flags.SetAnnotation(name, FlagKeyAnnotation, []string{key})
}

// configExistsIn returns the config file in dir, or "".
func configExistsIn(dir string) string {
	for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// findConfigUpward searches upward from startDir for a movierank config file.
// Returns empty string if not found within maxUpwardSearchLevels.
func findConfigUpward(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if found := configExistsIn(dir); found != "" {
			return found
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}
	return ""
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
// Returns the path unchanged if it's empty, in-memory or already absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// envKey turns MOVIERANK_TMDB__API_KEY into tmdb.api_key.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
//
// Without an explicit cfgFile the nearest movierank.yaml at or above the
// working directory is used. Relative paths from the file, the environment
// or the defaults are resolved against that file's directory (or the
// working directory when there is none); paths given as flags stay relative
// to the working directory.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	// Reset koanf for fresh load
	k = koanf.New(".")
	configFileUsed = ""

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	// 1. Load defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Find and load config file
	if cfgFile == "" {
		cfgFile = findConfigUpward(cwd)
	}
	projectRoot := cwd
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
		configFileUsed = cfgFile
		if abs, err := filepath.Abs(cfgFile); err == nil {
			projectRoot = filepath.Dir(abs)
		}
	}

	// 3. Load environment variables (MOVIERANK_ prefix)
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Load flags (highest priority - overrides env vars and config file)
	fromFlags := make(map[string]bool)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			// Only load flags that were explicitly set
			if !f.Changed {
				return "", nil
			}
			key := flagKey(f)
			if key == "" {
				return "", nil
			}
			fromFlags[key] = true
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// 6. Resolve relative paths and secrets
	cfg.ProjectRoot = projectRoot
	for _, key := range pathKeys {
		p := cfg.pathField(key)
		*p = expandEnvVars(*p)
		if !fromFlags[key] {
			*p = resolvePathRelativeTo(*p, projectRoot)
		}
	}

	cfg.TMDB.APIKey = strings.TrimSpace(expandEnvVars(cfg.TMDB.APIKey))
	if cfg.TMDB.APIKey == "" {
		cfg.TMDB.APIKey = strings.TrimSpace(os.Getenv(APIKeyEnv))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Store config for access by commands
	currentConfig = &cfg

	return &cfg, nil
}

// flagKey returns the config key a flag overrides, or "" if none.
func flagKey(f *pflag.Flag) string {
	if keys := f.Annotations[FlagKeyAnnotation]; len(keys) > 0 {
		return keys[0]
	}
	return globalFlagKeys[f.Name]
}

// pathField returns a pointer to the path field stored under key.
func (c *Config) pathField(key string) *string {
	switch key {
	case "database":
		return &c.Database
	case "inputs.popularity":
		return &c.Inputs.Popularity
	case "inputs.revenue":
		return &c.Inputs.Revenue
	case "inputs.ratings":
		return &c.Inputs.Ratings
	case "output.path":
		return &c.Output.Path
	case "tmdb.popularity_raw":
		return &c.TMDB.PopularityRaw
	case "tmdb.revenue_raw":
		return &c.TMDB.RevenueRaw
	case "imdb.basics":
		return &c.IMDb.Basics
	case "imdb.ratings":
		return &c.IMDb.Ratings
	case "history.path":
		return &c.History.Path
	}
	panic("config: unknown path key " + key)
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the currently loaded configuration.
// This is available after LoadConfig is called.
func GetCurrentConfig() *Config {
	return currentConfig
}

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return slog.New(slog.DiscardHandler)
	}
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR}
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // Return original if not found
	})
}
