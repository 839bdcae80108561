package config

import (
	"fmt"
	"time"

	"gopkg.in/ini.v1"
)

// LoadFromINI loads configuration from a Settings.ini file, falling back to
// the documented defaults for missing keys
func LoadFromINI(path string) (*Config, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	config := NewDefaultConfig()

	matching := cfg.Section("Matching")
	config.Monitor = matching.Key("Monitor").MustInt(config.Monitor)
	config.ClickThreshold = matching.Key("ClickThreshold").MustFloat64(config.ClickThreshold)
	config.FindThreshold = matching.Key("FindThreshold").MustFloat64(config.FindThreshold)
	config.ThresholdFloor = matching.Key("ThresholdFloor").MustFloat64(config.ThresholdFloor)
	config.MultiScale = matching.Key("MultiScale").MustBool(config.MultiScale)
	config.ScaleMin = matching.Key("ScaleMin").MustFloat64(config.ScaleMin)
	config.ScaleMax = matching.Key("ScaleMax").MustFloat64(config.ScaleMax)
	config.ScaleStep = matching.Key("ScaleStep").MustFloat64(config.ScaleStep)

	timing := cfg.Section("Timing")
	config.GraceDelay = secondsKey(timing, "GraceDelaySeconds", config.GraceDelay)
	config.PollInterval = secondsKey(timing, "PollIntervalSeconds", config.PollInterval)
	config.MaxWait = secondsKey(timing, "MaxWaitSeconds", config.MaxWait)
	config.ClickSettle = millisKey(timing, "ClickSettleMillis", config.ClickSettle)
	config.PasteSettle = millisKey(timing, "PasteSettleMillis", config.PasteSettle)
	config.CopySettle = millisKey(timing, "CopySettleMillis", config.CopySettle)
	config.RetryDelay = secondsKey(timing, "RetryDelaySeconds", config.RetryDelay)
	config.PromptDelay = secondsKey(timing, "PromptDelaySeconds", config.PromptDelay)
	config.MaxRetries = timing.Key("MaxRetries").MustInt(config.MaxRetries)

	traversal := cfg.Section("Traversal")
	config.MaxDepth = traversal.Key("MaxDepth").MustInt(config.MaxDepth)
	config.Fanout = traversal.Key("Fanout").MustInt(config.Fanout)

	paths := cfg.Section("Paths")
	config.ButtonsDir = paths.Key("ButtonsDir").MustString(config.ButtonsDir)
	config.ManifestPath = paths.Key("ManifestPath").MustString(config.ManifestPath)
	config.InputDir = paths.Key("InputDir").MustString(config.InputDir)
	config.OutputDir = paths.Key("OutputDir").MustString(config.OutputDir)
	config.DatabasePath = paths.Key("DatabasePath").MustString(config.DatabasePath)

	logging := cfg.Section("Logging")
	config.LogLevel = logging.Key("LogLevel").MustString(config.LogLevel)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate rejects configurations the automation cannot run with
func (c *Config) Validate() error {
	if c.ThresholdFloor <= 0 || c.ThresholdFloor > 1 {
		return fmt.Errorf("threshold floor %.2f out of range (0,1]", c.ThresholdFloor)
	}
	if c.ClickThreshold < c.ThresholdFloor {
		return fmt.Errorf("click threshold %.2f below floor %.2f", c.ClickThreshold, c.ThresholdFloor)
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("max depth must be non-negative")
	}
	if c.Fanout <= 0 {
		return fmt.Errorf("fanout must be positive")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}
	return nil
}

func secondsKey(section *ini.Section, key string, fallback time.Duration) time.Duration {
	secs := section.Key(key).MustFloat64(fallback.Seconds())
	return time.Duration(secs * float64(time.Second))
}

func millisKey(section *ini.Section, key string, fallback time.Duration) time.Duration {
	ms := section.Key(key).MustInt(int(fallback.Milliseconds()))
	return time.Duration(ms) * time.Millisecond
}
