package config

import (
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateLimits(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateMatching() error {
	if c.Matching.Threshold > 100 {
		return fmt.Errorf("matching.threshold must be at most 100, got %v", c.Matching.Threshold)
	}
	if c.Matching.SearchThreshold > 100 {
		return fmt.Errorf("matching.search_threshold must be at most 100, got %v", c.Matching.SearchThreshold)
	}
	switch c.Matching.Scorer {
	case "sequence", "levenshtein":
	default:
		return fmt.Errorf("matching.scorer must be \"sequence\" or \"levenshtein\", got %q", c.Matching.Scorer)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateLimits() error {
	if c.Limits.Workers > 32 {
		return fmt.Errorf("limits.workers must be at most 32, got %d", c.Limits.Workers)
	}
	return nil
}
