package cv

import (
	"fmt"
	"image"

	"github.com/kbinani/screenshot"
)

// Capturer interface for different capture methods
type Capturer interface {
	// CaptureFrame grabs the current content of the capture region
	CaptureFrame() (*image.RGBA, error)
	// Bounds returns the capture region in virtual-screen coordinates
	Bounds() image.Rectangle
}

// DisplayCapturer captures one physical display by index
type DisplayCapturer struct {
	display int
	bounds  image.Rectangle
}

// NewDisplayCapturer creates a capturer for the given display index.
// An out-of-range index is a configuration error, not a per-call failure.
func NewDisplayCapturer(display int) (*DisplayCapturer, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return nil, fmt.Errorf("no active displays detected")
	}
	if display < 0 || display >= n {
		return nil, fmt.Errorf("display index %d out of range (0-%d)", display, n-1)
	}

	return &DisplayCapturer{
		display: display,
		bounds:  screenshot.GetDisplayBounds(display),
	}, nil
}

// CaptureFrame grabs a screenshot of the configured display
func (c *DisplayCapturer) CaptureFrame() (*image.RGBA, error) {
	img, err := screenshot.CaptureRect(c.bounds)
	if err != nil {
		return nil, fmt.Errorf("failed to capture display %d: %w", c.display, err)
	}
	return img, nil
}

// Bounds returns the display rectangle in virtual-screen coordinates
func (c *DisplayCapturer) Bounds() image.Rectangle {
	return c.bounds
}

// VirtualScreenBounds returns the union of all display rectangles
func VirtualScreenBounds() image.Rectangle {
	n := screenshot.NumActiveDisplays()
	var union image.Rectangle
	for i := 0; i < n; i++ {
		union = union.Union(screenshot.GetDisplayBounds(i))
	}
	return union
}
