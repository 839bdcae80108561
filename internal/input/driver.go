// Package input wraps simulated pointer, keyboard and clipboard access.
// All operations are side-effecting primitives with no internal state; the
// Driver interface exists so the automation above it can be exercised in
// tests without a real desktop session.
package input

import (
	"fmt"
	"runtime"
	"time"

	"github.com/go-vgo/robotgo"
)

// Driver dispatches simulated input in virtual-screen coordinates
type Driver interface {
	// ScreenSize returns the primary virtual input surface dimensions
	ScreenSize() (width, height int)
	// MoveClick moves the pointer to (x, y) and issues a left click
	MoveClick(x, y int) error
	// SelectAll issues the platform select-all chord
	SelectAll() error
	// PasteText places text on the clipboard and issues the paste chord
	PasteText(text string) error
	// PageDown presses the PageDown key
	PageDown() error
	// ReadClipboard returns the current clipboard contents
	ReadClipboard() (string, error)
	// PointerPosition returns the current pointer location
	PointerPosition() (x, y int)
}

// SystemDriver drives the real desktop session via robotgo
type SystemDriver struct {
	clickSettle time.Duration
	pasteSettle time.Duration
}

// NewSystemDriver creates a driver with the given settle delays applied
// after click and clipboard operations
func NewSystemDriver(clickSettle, pasteSettle time.Duration) *SystemDriver {
	return &SystemDriver{
		clickSettle: clickSettle,
		pasteSettle: pasteSettle,
	}
}

// ScreenSize returns the primary screen dimensions as seen by the input layer
func (d *SystemDriver) ScreenSize() (int, int) {
	return robotgo.GetScreenSize()
}

// MoveClick moves the pointer and clicks.
func (d *SystemDriver) MoveClick(x, y int) error {
	robotgo.MoveSmooth(x, y, 0.6, 0.6)
	time.Sleep(100 * time.Millisecond)
	robotgo.Click("left", false)
	time.Sleep(d.clickSettle)
	return nil
}

// SelectAll issues cmd+a on macOS, ctrl+a elsewhere
func (d *SystemDriver) SelectAll() error {
	if err := robotgo.KeyTap("a", modifierKey()); err != nil {
		return fmt.Errorf("select-all failed: %w", err)
	}
	time.Sleep(200 * time.Millisecond)
	return nil
}

// PasteText copies text to the clipboard and pastes it. Paste-insertion is
// used instead of per-character typing so multi-kilobyte prompts land in one
// operation.
func (d *SystemDriver) PasteText(text string) error {
	if err := robotgo.WriteAll(text); err != nil {
		return fmt.Errorf("clipboard write failed: %w", err)
	}
	time.Sleep(d.pasteSettle)

	if err := robotgo.KeyTap("v", modifierKey()); err != nil {
		return fmt.Errorf("paste failed: %w", err)
	}
	time.Sleep(d.pasteSettle)
	return nil
}

// PageDown scrolls via the keyboard
func (d *SystemDriver) PageDown() error {
	if err := robotgo.KeyTap("pagedown"); err != nil {
		return fmt.Errorf("pagedown failed: %w", err)
	}
	return nil
}

// ReadClipboard returns the clipboard contents
func (d *SystemDriver) ReadClipboard() (string, error) {
	text, err := robotgo.ReadAll()
	if err != nil {
		return "", fmt.Errorf("clipboard read failed: %w", err)
	}
	return text, nil
}

// PointerPosition returns the current pointer location
func (d *SystemDriver) PointerPosition() (int, int) {
	return robotgo.Location()
}

func modifierKey() string {
	if runtime.GOOS == "darwin" {
		return "cmd"
	}
	return "ctrl"
}
