package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration. All fields are expanded to
// absolute paths during Load.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	CacheDir string `toml:"cache_dir"`
	LogDir   string `toml:"log_dir"`
}

// Matching contains fuzzy matcher tuning.
type Matching struct {
	// Threshold is the minimum similarity score (0-100) for a fuzzy match
	// against the known catalog.
	Threshold float64 `toml:"threshold"`
	// SearchThreshold applies to live letterboxd search results, which are
	// pre-ranked by the provider and so accept a lower bar.
	SearchThreshold float64 `toml:"search_threshold"`
	// Scorer selects the similarity implementation: "sequence" or
	// "levenshtein".
	Scorer string `toml:"scorer"`
}

// Letterboxd contains settings for the letterboxd.com collaborators.
type Letterboxd struct {
	BaseURL        string   `toml:"base_url"`
	Usernames      []string `toml:"usernames"`
	RequestTimeout int      `toml:"request_timeout"`
}

// Limits contains concurrency and politeness settings for network work.
type Limits struct {
	Workers          int `toml:"workers"`
	RateLimitDelayMS int `toml:"rate_limit_delay_ms"`
	FlushInterval    int `toml:"flush_interval"`
}

// Logging contains log output configuration.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config is the root configuration object.
type Config struct {
	Paths      Paths      `toml:"paths"`
	Matching   Matching   `toml:"matching"`
	Letterboxd Letterboxd `toml:"letterboxd"`
	Limits     Limits     `toml:"limits"`
	Logging    Logging    `toml:"logging"`
}

// SampleConfig returns the embedded sample configuration file.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes the embedded sample configuration to path.
func CreateSample(path string) error {
	return os.WriteFile(path, []byte(sampleConfig), 0o644)
}

// ExpandPath resolves a leading ~ and returns an absolute path.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/reelmatch/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("reelmatch.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data, cache, and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.CacheDir, c.Paths.LogDir, c.CatalogDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// LibraryPath returns the scanned media library snapshot path.
func (c *Config) LibraryPath() string {
	return filepath.Join(c.Paths.DataDir, "media_library.json")
}

// WatchedPath returns the watched-films list path.
func (c *Config) WatchedPath() string {
	return filepath.Join(c.Paths.DataDir, "films_already_watched.json")
}

// UnwatchedReportPath returns the unwatched report output path.
func (c *Config) UnwatchedReportPath() string {
	return filepath.Join(c.Paths.DataDir, "unwatched.txt")
}

// OverridesPath returns the manual overrides file path.
func (c *Config) OverridesPath() string {
	return filepath.Join(c.Paths.DataDir, "manual_overrides.json")
}

// IdentityCachePath returns the folder-to-identity cache file path.
func (c *Config) IdentityCachePath() string {
	return filepath.Join(c.Paths.CacheDir, "film_id_cache.json")
}

// SlugCachePath returns the slug-to-external-ids cache file path.
func (c *Config) SlugCachePath() string {
	return filepath.Join(c.Paths.CacheDir, "letterboxd_films.json")
}

// RatingsCachePath returns the slug-to-ratings cache file path.
func (c *Config) RatingsCachePath() string {
	return filepath.Join(c.Paths.CacheDir, "ratings_cache.json")
}

// CatalogDir returns the directory holding letterboxd catalog snapshots.
func (c *Config) CatalogDir() string {
	return filepath.Join(c.Paths.CacheDir, "letterboxd")
}

// LogPath returns the JSON run log file path.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.LogDir, "reelmatch.log")
}

// LockPath returns the cross-process run lock file path.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.CacheDir, "reelmatch.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}
