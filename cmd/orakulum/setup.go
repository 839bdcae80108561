package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xcervi19/orakulum/internal/config"
	"github.com/xcervi19/orakulum/internal/cv"
	"github.com/xcervi19/orakulum/internal/input"
	"github.com/xcervi19/orakulum/internal/logging"
	"github.com/xcervi19/orakulum/internal/screen"
	"github.com/xcervi19/orakulum/internal/session"
	"github.com/xcervi19/orakulum/pkg/templates"
)

// loadConfig reads the config file named by --config. A missing file is
// only an error when the flag was set explicitly; otherwise the defaults
// apply.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if cmd.Flags().Changed("config") {
			return nil, fmt.Errorf("config file %s not found", path)
		}
		return config.NewDefaultConfig(), nil
	}
	return config.LoadFromINI(path)
}

// buildSession wires the full screen-driven stack: display capture, the
// reference registry, the locator, the completion detector and the
// interactive session. It fails fast when a required reference image is
// missing so a run never dies halfway through a prompt.
func buildSession(cfg *config.Config) (*session.Session, error) {
	logging.SetGlobalLevel(logging.ParseLevel(cfg.LogLevel))

	capturer, err := cv.NewDisplayCapturer(cfg.Monitor)
	if err != nil {
		return nil, fmt.Errorf("failed to open display %d: %w", cfg.Monitor, err)
	}

	refs := templates.NewRegistry(cfg.ButtonsDir)
	if err := refs.LoadManifest(cfg.ManifestPath); err != nil {
		return nil, fmt.Errorf("failed to load reference manifest: %w", err)
	}
	if err := refs.Preload(); err != nil {
		return nil, err
	}
	if err := refs.Require(templates.Required...); err != nil {
		return nil, err
	}

	driver := input.NewSystemDriver(cfg.ClickSettle, cfg.PasteSettle)
	locator := screen.NewLocator(capturer, driver, refs, cfg.ThresholdFloor, cfg.Scales(), cv.VirtualScreenBounds())
	detector := screen.NewDetector(locator, templates.RefBusy, cfg.FindThreshold, cfg.GraceDelay, cfg.PollInterval, cfg.MaxWait)
	return session.New(locator, detector, driver, cfg.MaxRetries, cfg.RetryDelay, cfg.CopySettle), nil
}

// addSessionFlags registers the automation knobs shared by every command
// that drives the screen
func addSessionFlags(cmd *cobra.Command) {
	cmd.Flags().Int("monitor", 0, "Display index to capture (overrides config)")
	cmd.Flags().Float64("threshold", 0, "Starting click confidence (overrides config)")
	cmd.Flags().Duration("poll-interval", 0, "Delay between busy polls (overrides config)")
	cmd.Flags().Duration("max-wait", 0, "Completion wait ceiling (overrides config)")
}

// applySessionFlags overlays explicitly-set session flags onto the loaded
// config. Unset flags leave the config value alone.
func applySessionFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("monitor") {
		cfg.Monitor, _ = cmd.Flags().GetInt("monitor")
	}
	if cmd.Flags().Changed("threshold") {
		cfg.ClickThreshold, _ = cmd.Flags().GetFloat64("threshold")
	}
	if cmd.Flags().Changed("poll-interval") {
		cfg.PollInterval, _ = cmd.Flags().GetDuration("poll-interval")
	}
	if cmd.Flags().Changed("max-wait") {
		cfg.MaxWait, _ = cmd.Flags().GetDuration("max-wait")
	}
}

// addTraversalFlags registers the expansion knobs
func addTraversalFlags(cmd *cobra.Command) {
	cmd.Flags().Int("max-depth", 0, "Traversal depth ceiling (overrides config)")
	cmd.Flags().Int("fanout", 0, "Fan-out cap per expansion step (overrides config)")
}

// applyTraversalFlags overlays explicitly-set traversal flags onto the
// loaded config
func applyTraversalFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("max-depth") {
		cfg.MaxDepth, _ = cmd.Flags().GetInt("max-depth")
	}
	if cmd.Flags().Changed("fanout") {
		cfg.Fanout, _ = cmd.Flags().GetInt("fanout")
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
