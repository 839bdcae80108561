package session

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/xcervi19/orakulum/internal/screen"
	"github.com/xcervi19/orakulum/pkg/templates"
)

// MockSurface scripts per-element click outcomes and records the order
type MockSurface struct {
	missing map[string]bool
	clicks  []string
}

func NewMockSurface(missing ...string) *MockSurface {
	m := &MockSurface{missing: make(map[string]bool)}
	for _, name := range missing {
		m.missing[name] = true
	}
	return m
}

func (m *MockSurface) Click(name string) (bool, error) {
	m.clicks = append(m.clicks, name)
	return !m.missing[name], nil
}

// MockAwaiter returns a scripted outcome
type MockAwaiter struct {
	outcome screen.Outcome
	calls   int
}

func (m *MockAwaiter) Await(ctx context.Context) screen.Outcome {
	m.calls++
	if ctx.Err() != nil {
		return screen.OutcomeCancelled
	}
	return m.outcome
}

// MockInputDriver tracks keyboard/clipboard traffic
type MockInputDriver struct {
	clipboard string
	pasted    []string
	selectAll int
	pageDowns int
}

func (m *MockInputDriver) ScreenSize() (int, int)         { return 1920, 1080 }
func (m *MockInputDriver) MoveClick(x, y int) error       { return nil }
func (m *MockInputDriver) SelectAll() error               { m.selectAll++; return nil }
func (m *MockInputDriver) PasteText(text string) error    { m.pasted = append(m.pasted, text); return nil }
func (m *MockInputDriver) PageDown() error                { m.pageDowns++; return nil }
func (m *MockInputDriver) ReadClipboard() (string, error) { return m.clipboard, nil }
func (m *MockInputDriver) PointerPosition() (int, int)    { return 0, 0 }

func TestGenerateHappyPath(t *testing.T) {
	surface := NewMockSurface()
	awaiter := &MockAwaiter{outcome: screen.OutcomeCompleted}
	driver := &MockInputDriver{clipboard: "a sufficiently long generated response"}

	sess := New(surface, awaiter, driver, 3, 0, 0)
	response, err := sess.Generate(context.Background(), "what is the capital of France?")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if response != driver.clipboard {
		t.Errorf("unexpected response %q", response)
	}

	// Exchange order: focus input, submit, reveal, extract
	expected := []string{templates.RefTextarea, templates.RefSend, templates.RefScroll, templates.RefCopy}
	if strings.Join(surface.clicks, ",") != strings.Join(expected, ",") {
		t.Errorf("unexpected click order %v", surface.clicks)
	}
	if driver.selectAll != 1 {
		t.Errorf("expected one select-all, got %d", driver.selectAll)
	}
	if len(driver.pasted) != 1 || driver.pasted[0] != "what is the capital of France?" {
		t.Errorf("prompt not pasted verbatim: %v", driver.pasted)
	}
	if awaiter.calls != 1 {
		t.Errorf("expected one completion wait, got %d", awaiter.calls)
	}
}

func TestGenerateScrollFallback(t *testing.T) {
	surface := NewMockSurface(templates.RefScroll)
	awaiter := &MockAwaiter{outcome: screen.OutcomeCompleted}
	driver := &MockInputDriver{clipboard: "another adequately long response text"}

	sess := New(surface, awaiter, driver, 1, 0, 0)
	if _, err := sess.Generate(context.Background(), "prompt"); err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if driver.pageDowns != 1 {
		t.Errorf("expected keyboard scroll fallback, got %d page-downs", driver.pageDowns)
	}
}

func TestGenerateRetriesThenFails(t *testing.T) {
	surface := NewMockSurface(templates.RefTextarea)
	awaiter := &MockAwaiter{outcome: screen.OutcomeCompleted}
	driver := &MockInputDriver{}

	sess := New(surface, awaiter, driver, 3, 0, 0)
	_, err := sess.Generate(context.Background(), "prompt")
	if err == nil {
		t.Fatal("expected failure when the input box never appears")
	}
	if !errors.Is(err, ErrElementNotFound) {
		t.Errorf("expected ErrElementNotFound in chain, got %v", err)
	}
	if len(surface.clicks) != 3 {
		t.Errorf("expected 3 attempts, got %d clicks", len(surface.clicks))
	}
}

func TestGenerateShortResponseRetries(t *testing.T) {
	surface := NewMockSurface()
	awaiter := &MockAwaiter{outcome: screen.OutcomeCompleted}
	driver := &MockInputDriver{clipboard: "nope"}

	sess := New(surface, awaiter, driver, 2, 0, 0)
	_, err := sess.Generate(context.Background(), "prompt")
	if err == nil {
		t.Fatal("expected failure for a too-short clipboard read")
	}
	if !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("expected ErrEmptyResponse in chain, got %v", err)
	}
	if awaiter.calls != 2 {
		t.Errorf("expected 2 full attempts, got %d", awaiter.calls)
	}
}

func TestGenerateTimeoutProceedsBestEffort(t *testing.T) {
	surface := NewMockSurface()
	awaiter := &MockAwaiter{outcome: screen.OutcomeTimedOut}
	driver := &MockInputDriver{clipboard: "partial but usable response content"}

	sess := New(surface, awaiter, driver, 1, 0, 0)
	response, err := sess.Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("timed-out wait must still extract, got error: %v", err)
	}
	if response != driver.clipboard {
		t.Errorf("unexpected response %q", response)
	}
}

func TestGenerateCancelled(t *testing.T) {
	surface := NewMockSurface()
	awaiter := &MockAwaiter{outcome: screen.OutcomeCompleted}
	driver := &MockInputDriver{clipboard: "long enough response text here"}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sess := New(surface, awaiter, driver, 3, 0, 0)
	if _, err := sess.Generate(ctx, "prompt"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(surface.clicks) != 0 {
		t.Errorf("cancelled session must not touch the screen, got %v", surface.clicks)
	}
}

func TestNewChat(t *testing.T) {
	surface := NewMockSurface()
	sess := New(surface, &MockAwaiter{}, &MockInputDriver{}, 1, 0, 0)
	if !sess.NewChat() {
		t.Error("expected new-chat click to succeed")
	}

	missing := NewMockSurface(templates.RefNewChat)
	sess = New(missing, &MockAwaiter{}, &MockInputDriver{}, 1, 0, 0)
	if sess.NewChat() {
		t.Error("expected false when the new-chat control is hidden")
	}
}
