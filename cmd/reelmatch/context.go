package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"reelmatch/internal/config"
	"reelmatch/internal/identity"
	"reelmatch/internal/logging"
)

type commandContext struct {
	configFlag  *string
	verboseFlag *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string, verboseFlag *bool) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		verboseFlag: verboseFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) verbose() bool {
	return c.verboseFlag != nil && *c.verboseFlag
}

// logger builds the run logger: console output plus a JSON run log under
// the configured log directory. Each invocation gets a run id so log
// lines from overlapping commands can be told apart. The log file handle
// stays open for the life of the process.
func (c *commandContext) logger(cfg *config.Config) (*slog.Logger, error) {
	level := cfg.Logging.Level
	if c.verbose() {
		level = "debug"
	}
	opts := logging.Options{
		Level:  level,
		Format: cfg.Logging.Format,
	}
	logger, _, err := logging.NewWithFile(opts, cfg.LogPath())
	if err != nil {
		// Console-only fallback when the log file cannot be opened.
		logger, err = logging.New(opts)
		if err != nil {
			return nil, fmt.Errorf("setup logging: %w", err)
		}
	}
	return logger.With(logging.String("run_id", uuid.NewString()[:8])), nil
}

// matcher builds the configured similarity matcher.
func (c *commandContext) matcher(cfg *config.Config) (*identity.Matcher, error) {
	scorer, err := identity.NewScorer(cfg.Matching.Scorer)
	if err != nil {
		return nil, err
	}
	return identity.NewMatcher(scorer, cfg.Matching.Threshold), nil
}

// acquireRunLock takes the cross-process lock guarding the shared caches.
// The returned release function must be called before exit.
func acquireRunLock(cfg *config.Config) (func(), error) {
	lock := flock.New(cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("another reelmatch run is active (lock: %s)", cfg.LockPath())
	}
	return func() { _ = lock.Unlock() }, nil
}

func rateLimitDelay(cfg *config.Config) time.Duration {
	return time.Duration(cfg.Limits.RateLimitDelayMS) * time.Millisecond
}

func httpClient(cfg *config.Config) *http.Client {
	return &http.Client{Timeout: time.Duration(cfg.Letterboxd.RequestTimeout) * time.Second}
}
