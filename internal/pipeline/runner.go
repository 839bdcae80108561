// Package pipeline batch-processes a directory of prompt files through the
// generation session, writing each response as soon as it is extracted so a
// crash mid-run loses at most the in-flight prompt.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/xcervi19/orakulum/internal/logging"
)

// Generator produces content for one prompt; the screen session satisfies
// this
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Summary reports per-job outcomes for one batch run. No prompt vanishes
// silently: every file lands in exactly one bucket.
type Summary struct {
	Total      int
	Successful int
	Failed     int
	Skipped    int
}

// Runner walks the input directory in name order and processes each prompt
type Runner struct {
	gen         Generator
	inputDir    string
	outputDir   string
	promptDelay time.Duration
	log         *logging.Logger
}

// NewRunner creates a batch runner
func NewRunner(gen Generator, inputDir, outputDir string, promptDelay time.Duration) *Runner {
	return &Runner{
		gen:         gen,
		inputDir:    inputDir,
		outputDir:   outputDir,
		promptDelay: promptDelay,
		log:         logging.NewLogger("pipeline"),
	}
}

// Run processes every .txt prompt file in the input directory. Prompts whose
// output already exists are skipped, which makes an interrupted batch
// resumable by re-running it.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	if err := os.MkdirAll(r.outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	files, err := r.promptFiles()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .txt prompt files found in %s", r.inputDir)
	}

	summary := &Summary{Total: len(files)}
	r.log.Infof("found %d prompt file(s) in %s", len(files), r.inputDir)

	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		name := filepath.Base(file)
		outputPath := filepath.Join(r.outputDir, OutputName(name))

		if _, err := os.Stat(outputPath); err == nil {
			r.log.Infof("skipping %s (output exists)", name)
			summary.Skipped++
			continue
		}

		prompt, err := os.ReadFile(file)
		if err != nil {
			r.log.Error(fmt.Sprintf("failed to read %s", name), err)
			summary.Failed++
			continue
		}
		text := strings.TrimSpace(string(prompt))
		if text == "" {
			r.log.Warnf("%s is empty, skipping", name)
			summary.Skipped++
			continue
		}

		r.log.Infof("processing %s", name)
		response, err := r.gen.Generate(ctx, text)
		if err != nil {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			r.log.Error(fmt.Sprintf("%s failed", name), err)
			summary.Failed++
			continue
		}

		if err := os.WriteFile(outputPath, []byte(response), 0644); err != nil {
			r.log.Error(fmt.Sprintf("failed to write %s", outputPath), err)
			summary.Failed++
			continue
		}
		r.log.Infof("saved %s", filepath.Base(outputPath))
		summary.Successful++

		// Pause between prompts to stay under the interaction surface's
		// rate limits
		if i < len(files)-1 {
			if !sleepCtx(ctx, r.promptDelay) {
				return summary, ctx.Err()
			}
		}
	}

	r.log.Infof("batch complete: %d ok, %d failed, %d skipped of %d",
		summary.Successful, summary.Failed, summary.Skipped, summary.Total)
	return summary, nil
}

func (r *Runner) promptFiles() ([]string, error) {
	entries, err := os.ReadDir(r.inputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory %s: %w", r.inputDir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".txt" {
			continue
		}
		files = append(files, filepath.Join(r.inputDir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

var fileNumberPattern = regexp.MustCompile(`(\d+)`)

// OutputName derives the output filename from an input prompt filename:
// part1.txt becomes parthtml1.txt. Inputs without a number keep their stem.
func OutputName(inputName string) string {
	if m := fileNumberPattern.FindStringSubmatch(inputName); m != nil {
		return "parthtml" + m[1] + ".txt"
	}
	stem := strings.TrimSuffix(inputName, filepath.Ext(inputName))
	return "parthtml_" + stem + ".txt"
}

func sleepCtx(ctx context.Context, dur time.Duration) bool {
	if dur <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(dur)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
