package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// MockGenerator answers with a fixed transformation of the prompt
type MockGenerator struct {
	prompts  []string
	failFor  map[string]bool
	response func(prompt string) string
}

func NewMockGenerator() *MockGenerator {
	return &MockGenerator{
		failFor:  make(map[string]bool),
		response: func(prompt string) string { return "response to: " + prompt },
	}
}

func (m *MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.prompts = append(m.prompts, prompt)
	if m.failFor[prompt] {
		return "", errors.New("generation failed")
	}
	return m.response(prompt), nil
}

func writePrompt(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}

func TestRunProcessesInOrder(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()
	writePrompt(t, inputDir, "part1.txt", "first prompt")
	writePrompt(t, inputDir, "part2.txt", "second prompt")
	writePrompt(t, inputDir, "notes.md", "not a prompt")

	gen := NewMockGenerator()
	runner := NewRunner(gen, inputDir, outputDir, 0)
	summary, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if summary.Total != 2 || summary.Successful != 2 {
		t.Errorf("unexpected summary %+v", summary)
	}
	if len(gen.prompts) != 2 || gen.prompts[0] != "first prompt" || gen.prompts[1] != "second prompt" {
		t.Errorf("prompts not processed in name order: %v", gen.prompts)
	}

	data, err := os.ReadFile(filepath.Join(outputDir, "parthtml1.txt"))
	if err != nil {
		t.Fatalf("output file missing: %v", err)
	}
	if string(data) != "response to: first prompt" {
		t.Errorf("unexpected output content %q", data)
	}
}

func TestRunSkipsExistingOutputs(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()
	writePrompt(t, inputDir, "part1.txt", "already done")
	writePrompt(t, inputDir, "part2.txt", "still pending")
	writePrompt(t, outputDir, "parthtml1.txt", "previous response")

	gen := NewMockGenerator()
	runner := NewRunner(gen, inputDir, outputDir, 0)
	summary, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if summary.Skipped != 1 || summary.Successful != 1 {
		t.Errorf("unexpected summary %+v", summary)
	}
	if len(gen.prompts) != 1 || gen.prompts[0] != "still pending" {
		t.Errorf("resume must only process pending prompts: %v", gen.prompts)
	}

	data, _ := os.ReadFile(filepath.Join(outputDir, "parthtml1.txt"))
	if string(data) != "previous response" {
		t.Error("existing output must not be overwritten")
	}
}

func TestRunSkipsEmptyAndCountsFailures(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()
	writePrompt(t, inputDir, "part1.txt", "   \n")
	writePrompt(t, inputDir, "part2.txt", "doomed prompt")
	writePrompt(t, inputDir, "part3.txt", "fine prompt")

	gen := NewMockGenerator()
	gen.failFor["doomed prompt"] = true
	runner := NewRunner(gen, inputDir, outputDir, 0)
	summary, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if summary.Skipped != 1 || summary.Failed != 1 || summary.Successful != 1 {
		t.Errorf("unexpected summary %+v", summary)
	}
	if _, err := os.Stat(filepath.Join(outputDir, "parthtml2.txt")); !os.IsNotExist(err) {
		t.Error("failed prompt must not produce an output file")
	}
}

func TestRunEmptyDirectoryIsError(t *testing.T) {
	runner := NewRunner(NewMockGenerator(), t.TempDir(), t.TempDir(), 0)
	if _, err := runner.Run(context.Background()); err == nil {
		t.Fatal("expected error for a directory without prompts")
	}
}

func TestRunCancellation(t *testing.T) {
	inputDir := t.TempDir()
	writePrompt(t, inputDir, "part1.txt", "prompt")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := NewRunner(NewMockGenerator(), inputDir, t.TempDir(), 0)
	if _, err := runner.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestOutputName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"part1.txt", "parthtml1.txt"},
		{"part42.txt", "parthtml42.txt"},
		{"chapter_07.txt", "parthtml07.txt"},
		{"intro.txt", "parthtml_intro.txt"},
	}
	for _, tt := range tests {
		if got := OutputName(tt.input); got != tt.expected {
			t.Errorf("OutputName(%q): expected %q, got %q", tt.input, tt.expected, got)
		}
	}
}
