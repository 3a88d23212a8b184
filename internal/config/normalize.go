package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeMatching()
	c.normalizeLetterboxd()
	c.normalizeLimits()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeMatching() {
	if c.Matching.Threshold <= 0 {
		c.Matching.Threshold = defaultMatchThreshold
	}
	if c.Matching.SearchThreshold <= 0 {
		c.Matching.SearchThreshold = defaultSearchThreshold
	}
	c.Matching.Scorer = strings.ToLower(strings.TrimSpace(c.Matching.Scorer))
	if c.Matching.Scorer == "" {
		c.Matching.Scorer = defaultScorer
	}
}

func (c *Config) normalizeLetterboxd() {
	c.Letterboxd.BaseURL = strings.TrimRight(strings.TrimSpace(c.Letterboxd.BaseURL), "/")
	if c.Letterboxd.BaseURL == "" {
		c.Letterboxd.BaseURL = defaultLetterboxdBaseURL
	}
	if c.Letterboxd.RequestTimeout <= 0 {
		c.Letterboxd.RequestTimeout = defaultRequestTimeout
	}
	cleaned := make([]string, 0, len(c.Letterboxd.Usernames))
	for _, name := range c.Letterboxd.Usernames {
		name = strings.TrimSpace(name)
		if name != "" {
			cleaned = append(cleaned, name)
		}
	}
	c.Letterboxd.Usernames = cleaned
}

func (c *Config) normalizeLimits() {
	if c.Limits.Workers <= 0 {
		c.Limits.Workers = defaultWorkers
	}
	if c.Limits.RateLimitDelayMS <= 0 {
		c.Limits.RateLimitDelayMS = defaultRateLimitDelayMS
	}
	if c.Limits.FlushInterval <= 0 {
		c.Limits.FlushInterval = defaultFlushInterval
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
}
