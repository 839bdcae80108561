// Package config holds the process-wide configuration. It is created once
// per invocation, passed into each component at construction, and never
// mutated afterwards.
package config

import (
	"time"

	"github.com/xcervi19/orakulum/internal/cv"
)

// Config is the full configuration for one run
type Config struct {
	// Display and matching
	Monitor        int     // Display index to capture (0 = primary)
	ClickThreshold float64 // Starting confidence for the click ladder
	FindThreshold  float64 // Confidence for presence checks
	ThresholdFloor float64 // Hard floor; never match below this
	MultiScale     bool    // Search across a scale progression
	ScaleMin       float64
	ScaleMax       float64
	ScaleStep      float64

	// Completion detection
	GraceDelay   time.Duration // Delay before the first busy poll
	PollInterval time.Duration // Delay between busy polls
	MaxWait      time.Duration // Give up waiting after this long

	// Session pacing
	ClickSettle time.Duration
	PasteSettle time.Duration
	CopySettle  time.Duration

	// Retry policy
	MaxRetries  int
	RetryDelay  time.Duration
	PromptDelay time.Duration // Pause between batch prompts

	// Traversal
	MaxDepth int
	Fanout   int

	// Paths
	ButtonsDir   string // Reference image directory
	ManifestPath string // Reference manifest (YAML)
	InputDir     string
	OutputDir    string
	DatabasePath string

	// Logging
	LogLevel string
}

// NewDefaultConfig returns the documented defaults
func NewDefaultConfig() *Config {
	return &Config{
		Monitor:        0,
		ClickThreshold: 0.7,
		FindThreshold:  0.7,
		ThresholdFloor: 0.6,
		MultiScale:     false,
		ScaleMin:       0.4,
		ScaleMax:       1.6,
		ScaleStep:      1.12,

		GraceDelay:   2 * time.Second,
		PollInterval: 2 * time.Second,
		MaxWait:      120 * time.Second,

		ClickSettle: 500 * time.Millisecond,
		PasteSettle: 300 * time.Millisecond,
		CopySettle:  2 * time.Second,

		MaxRetries:  3,
		RetryDelay:  2 * time.Second,
		PromptDelay: 3 * time.Second,

		MaxDepth: 3,
		Fanout:   3,

		ButtonsDir:   "buttons",
		ManifestPath: "buttons/references.yaml",
		InputDir:     "prompts",
		OutputDir:    "generated",
		DatabasePath: "data/orakulum.db",

		LogLevel: "INFO",
	}
}

// Scales returns the configured scale factors for template matching
func (c *Config) Scales() []float64 {
	if !c.MultiScale {
		return []float64{1.0}
	}
	return cv.ScaleProgression(c.ScaleMin, c.ScaleMax, c.ScaleStep)
}
