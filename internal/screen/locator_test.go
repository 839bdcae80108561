package screen

import (
	"errors"
	"image"
	"image/color"
	"math"
	"math/rand"
	"testing"

	"github.com/xcervi19/orakulum/pkg/templates"
)

// MockCapturer serves a fixed frame
type MockCapturer struct {
	frame  *image.RGBA
	bounds image.Rectangle
	err    error
}

func (m *MockCapturer) CaptureFrame() (*image.RGBA, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.frame, nil
}

func (m *MockCapturer) Bounds() image.Rectangle {
	return m.bounds
}

// MockDriver records dispatched clicks
type MockDriver struct {
	screenW, screenH int
	clicks           []image.Point
}

func (m *MockDriver) ScreenSize() (int, int)          { return m.screenW, m.screenH }
func (m *MockDriver) MoveClick(x, y int) error        { m.clicks = append(m.clicks, image.Point{X: x, Y: y}); return nil }
func (m *MockDriver) SelectAll() error                { return nil }
func (m *MockDriver) PasteText(text string) error     { return nil }
func (m *MockDriver) PageDown() error                 { return nil }
func (m *MockDriver) ReadClipboard() (string, error)  { return "", nil }
func (m *MockDriver) PointerPosition() (int, int)     { return 0, 0 }

// testFrame builds a deterministic noise frame with its grayscale twin
func testFrame(w, h int, seed int64) (*image.RGBA, *image.Gray) {
	rng := rand.New(rand.NewSource(seed))
	frame := image.NewRGBA(image.Rect(0, 0, w, h))
	gray := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(rng.Intn(256))
			frame.Set(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
			gray.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return frame, gray
}

func testLocator(t *testing.T, capturer *MockCapturer, driver *MockDriver, refs *templates.Registry) *Locator {
	t.Helper()
	return NewLocator(capturer, driver, refs, 0.6, []float64{1.0}, capturer.bounds)
}

func registerCrop(t *testing.T, refs *templates.Registry, name string, threshold float64, gray *image.Gray, region image.Rectangle) {
	t.Helper()
	crop := gray.SubImage(region)
	if err := refs.Register(templates.Reference{Name: name, Threshold: threshold}, crop); err != nil {
		t.Fatalf("failed to register %s: %v", name, err)
	}
}

func TestClickHitsElementCenter(t *testing.T) {
	frame, gray := testFrame(200, 150, 1)
	region := image.Rect(60, 40, 90, 70)

	refs := templates.NewRegistry("")
	registerCrop(t, refs, "send", 0.8, gray, region)

	capturer := &MockCapturer{frame: frame, bounds: frame.Bounds()}
	driver := &MockDriver{screenW: 200, screenH: 150}
	locator := testLocator(t, capturer, driver, refs)

	ok, err := locator.Click("send")
	if err != nil {
		t.Fatalf("click failed: %v", err)
	}
	if !ok {
		t.Fatal("expected element to be found")
	}
	if len(driver.clicks) != 1 {
		t.Fatalf("expected 1 click, got %d", len(driver.clicks))
	}
	click := driver.clicks[0]
	if click.X != 75 || click.Y != 55 {
		t.Errorf("expected click at (75,55), got %v", click)
	}
}

func TestClickMissesReturnsFalse(t *testing.T) {
	frame, _ := testFrame(200, 150, 2)
	_, other := testFrame(40, 40, 77)

	refs := templates.NewRegistry("")
	registerCrop(t, refs, "send", 0.9, other, image.Rect(0, 0, 20, 20))

	capturer := &MockCapturer{frame: frame, bounds: frame.Bounds()}
	driver := &MockDriver{screenW: 200, screenH: 150}
	locator := NewLocator(capturer, driver, refs, 0.75, []float64{1.0}, capturer.bounds)

	ok, err := locator.Click("send")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("unrelated template must not click")
	}
	if len(driver.clicks) != 0 {
		t.Errorf("expected no clicks, got %d", len(driver.clicks))
	}
}

func TestClickUnknownReferenceIsError(t *testing.T) {
	frame, _ := testFrame(50, 50, 3)
	capturer := &MockCapturer{frame: frame, bounds: frame.Bounds()}
	driver := &MockDriver{screenW: 50, screenH: 50}
	locator := testLocator(t, capturer, driver, templates.NewRegistry(""))

	if _, err := locator.Click("nonexistent"); err == nil {
		t.Fatal("unknown reference must be an error, not a miss")
	}
}

func TestClickCaptureFailure(t *testing.T) {
	_, gray := testFrame(50, 50, 4)
	refs := templates.NewRegistry("")
	registerCrop(t, refs, "send", 0.8, gray, image.Rect(10, 10, 30, 30))

	capturer := &MockCapturer{err: errors.New("display gone"), bounds: image.Rect(0, 0, 50, 50)}
	driver := &MockDriver{screenW: 50, screenH: 50}
	locator := testLocator(t, capturer, driver, refs)

	if _, err := locator.Click("send"); err == nil {
		t.Fatal("capture failure must surface as an error")
	}
}

func TestThresholdLadder(t *testing.T) {
	locator := &Locator{floor: 0.6}

	ladder := locator.thresholdLadder(0.9)
	expected := []float64{0.9, 0.8, 0.7, 0.6}
	if len(ladder) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, ladder)
	}
	for i := range expected {
		if math.Abs(ladder[i]-expected[i]) > 1e-9 {
			t.Fatalf("rung %d: expected %v, got %v", i, expected, ladder)
		}
	}

	// Rungs below the floor clamp and deduplicate
	ladder = locator.thresholdLadder(0.65)
	if len(ladder) != 2 {
		t.Fatalf("expected 2 rungs for start near floor, got %v", ladder)
	}
	if math.Abs(ladder[0]-0.65) > 1e-9 || math.Abs(ladder[1]-0.6) > 1e-9 {
		t.Errorf("expected [0.65 0.6], got %v", ladder)
	}

	// A start at the floor yields a single rung
	ladder = locator.thresholdLadder(0.6)
	if len(ladder) != 1 || math.Abs(ladder[0]-0.6) > 1e-9 {
		t.Errorf("expected [0.6], got %v", ladder)
	}
}

func TestClickFallsBackToLooserThreshold(t *testing.T) {
	frame, gray := testFrame(200, 150, 8)
	region := image.Rect(50, 40, 80, 70)

	// Blend the true crop with independent noise (2:1) so it correlates
	// well below the registered threshold but comfortably above the looser
	// rungs, like a partially loaded render of the element.
	rng := rand.New(rand.NewSource(9))
	degraded := image.NewGray(image.Rect(0, 0, region.Dx(), region.Dy()))
	for y := 0; y < region.Dy(); y++ {
		for x := 0; x < region.Dx(); x++ {
			v := int(gray.GrayAt(region.Min.X+x, region.Min.Y+y).Y)
			degraded.SetGray(x, y, color.Gray{Y: uint8((2*v + rng.Intn(256)) / 3)})
		}
	}

	refs := templates.NewRegistry("")
	if err := refs.Register(templates.Reference{Name: "send", Threshold: 0.98}, degraded); err != nil {
		t.Fatalf("failed to register reference: %v", err)
	}

	capturer := &MockCapturer{frame: frame, bounds: frame.Bounds()}
	driver := &MockDriver{screenW: 200, screenH: 150}
	locator := testLocator(t, capturer, driver, refs)

	// At the registered threshold the element reads as absent
	if result, err := locator.Find("send"); err != nil {
		t.Fatalf("find failed: %v", err)
	} else if result != nil {
		t.Fatalf("degraded template must miss at threshold 0.98, matched with %.3f", result.Confidence)
	}

	// Click still lands via a looser rung of the ladder
	ok, err := locator.Click("send")
	if err != nil {
		t.Fatalf("click failed: %v", err)
	}
	if !ok {
		t.Fatal("expected the threshold ladder to recover the weak match")
	}
	if len(driver.clicks) != 1 {
		t.Fatalf("expected 1 click, got %d", len(driver.clicks))
	}
	if click := driver.clicks[0]; click.X != 65 || click.Y != 55 {
		t.Errorf("expected click at (65,55), got %v", click)
	}
}

func TestVisible(t *testing.T) {
	frame, gray := testFrame(120, 100, 5)
	region := image.Rect(20, 30, 50, 60)

	refs := templates.NewRegistry("")
	registerCrop(t, refs, "busy", 0.8, gray, region)

	capturer := &MockCapturer{frame: frame, bounds: frame.Bounds()}
	driver := &MockDriver{screenW: 120, screenH: 100}
	locator := testLocator(t, capturer, driver, refs)

	if !locator.Visible("busy", 0.8) {
		t.Error("expected exact crop to be visible")
	}
	if locator.Visible("missing", 0.8) {
		t.Error("unknown reference must read as not visible")
	}
}

func TestToInputSpaceSecondaryDisplay(t *testing.T) {
	// Capture region starts at x=1920 (second monitor) and the input
	// surface is half the virtual resolution (HiDPI).
	capturer := &MockCapturer{bounds: image.Rect(1920, 0, 3840, 1080)}
	driver := &MockDriver{screenW: 1920, screenH: 540}
	locator := NewLocator(capturer, driver, templates.NewRegistry(""), 0.6, []float64{1.0}, image.Rect(0, 0, 3840, 1080))

	x, y := locator.toInputSpace(image.Point{X: 100, Y: 200})
	if x != (1920+100)/2 || y != 200/2 {
		t.Errorf("expected (1010,100), got (%d,%d)", x, y)
	}
}

func TestToInputSpaceIdentity(t *testing.T) {
	capturer := &MockCapturer{bounds: image.Rect(0, 0, 800, 600)}
	driver := &MockDriver{screenW: 800, screenH: 600}
	locator := NewLocator(capturer, driver, templates.NewRegistry(""), 0.6, []float64{1.0}, image.Rect(0, 0, 800, 600))

	x, y := locator.toInputSpace(image.Point{X: 123, Y: 45})
	if x != 123 || y != 45 {
		t.Errorf("expected identity mapping, got (%d,%d)", x, y)
	}
}
