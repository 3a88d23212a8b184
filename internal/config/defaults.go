package config

const (
	defaultDataDir           = "~/.local/share/reelmatch"
	defaultCacheDir          = "~/.cache/reelmatch"
	defaultLogDir            = "~/.local/share/reelmatch/logs"
	defaultMatchThreshold    = 85.0
	defaultSearchThreshold   = 60.0
	defaultScorer            = "sequence"
	defaultLetterboxdBaseURL = "https://letterboxd.com"
	defaultRequestTimeout    = 15
	defaultWorkers           = 5
	defaultRateLimitDelayMS  = 500
	defaultFlushInterval     = 10
	defaultLogLevel          = "info"
	defaultLogFormat         = "console"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:  defaultDataDir,
			CacheDir: defaultCacheDir,
			LogDir:   defaultLogDir,
		},
		Matching: Matching{
			Threshold:       defaultMatchThreshold,
			SearchThreshold: defaultSearchThreshold,
			Scorer:          defaultScorer,
		},
		Letterboxd: Letterboxd{
			BaseURL:        defaultLetterboxdBaseURL,
			RequestTimeout: defaultRequestTimeout,
		},
		Limits: Limits{
			Workers:          defaultWorkers,
			RateLimitDelayMS: defaultRateLimitDelayMS,
			FlushInterval:    defaultFlushInterval,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
