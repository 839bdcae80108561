// Package screen composes capture, matching and input into the two
// questions the automation keeps asking: "is this element visible" and
// "click this element if visible". It also hosts the busy-indicator
// polling that detects completion of the remote generation.
package screen

import (
	"fmt"
	"image"

	"github.com/xcervi19/orakulum/internal/cv"
	"github.com/xcervi19/orakulum/internal/input"
	"github.com/xcervi19/orakulum/internal/logging"
	"github.com/xcervi19/orakulum/pkg/templates"
)

// Locator finds named reference elements on the live screen and clicks
// them. Every call re-captures the screen; no element state is retained
// between calls.
type Locator struct {
	capturer cv.Capturer
	input    input.Driver
	refs     *templates.Registry
	floor    float64
	scales   []float64
	virtual  image.Rectangle // full virtual-screen bounds, for input scaling
	log      *logging.Logger
}

// NewLocator creates a locator. floor is the hard confidence minimum the
// click ladder never goes below; virtual is the full virtual-screen
// rectangle used to convert capture coordinates into input coordinates.
func NewLocator(capturer cv.Capturer, driver input.Driver, refs *templates.Registry, floor float64, scales []float64, virtual image.Rectangle) *Locator {
	return &Locator{
		capturer: capturer,
		input:    driver,
		refs:     refs,
		floor:    floor,
		scales:   scales,
		virtual:  virtual,
		log:      logging.NewLogger("locator"),
	}
}

// Find captures the screen and looks for the named reference using its
// registered threshold. A nil result with nil error means the element is not
// currently visible; that is an expected outcome. Errors are reserved for
// configuration problems (unknown reference) and capture failures.
func (l *Locator) Find(name string) (*cv.MatchResult, error) {
	return l.findAt(name, 0)
}

// Visible reports whether the named element currently matches at or above
// the given threshold (0 = the reference's registered threshold)
func (l *Locator) Visible(name string, threshold float64) bool {
	result, err := l.findAt(name, threshold)
	if err != nil {
		l.log.Error(fmt.Sprintf("visibility check for %s failed", name), err)
		return false
	}
	return result != nil
}

// Click locates the named element and clicks its center. The match retries
// across a descending threshold ladder before giving up: a screen in
// partial-load state often only matches weakly, and looser thresholds trade
// precision for availability. Returns false when every rung misses; that is
// not an error.
func (l *Locator) Click(name string) (bool, error) {
	ref, ok := l.refs.Get(name)
	if !ok {
		return false, fmt.Errorf("reference %q not registered", name)
	}

	for _, threshold := range l.thresholdLadder(ref.Threshold) {
		result, err := l.findAt(name, threshold)
		if err != nil {
			return false, err
		}
		if result == nil {
			continue
		}

		x, y := l.toInputSpace(result.Center())
		l.log.Debugf("clicking %s at (%d,%d) confidence=%.3f scale=%.2f threshold=%.2f",
			name, x, y, result.Confidence, result.Scale, threshold)
		if err := l.input.MoveClick(x, y); err != nil {
			return false, fmt.Errorf("click dispatch for %s failed: %w", name, err)
		}
		return true, nil
	}

	l.log.Debugf("%s not found down to floor %.2f", name, l.floor)
	return false, nil
}

// thresholdLadder builds the descending retry thresholds, clamped at the
// floor
func (l *Locator) thresholdLadder(start float64) []float64 {
	candidates := []float64{start, start - 0.1, start - 0.2, l.floor}
	ladder := make([]float64, 0, len(candidates))
	for _, t := range candidates {
		if t < l.floor {
			t = l.floor
		}
		if len(ladder) > 0 && t >= ladder[len(ladder)-1] {
			continue
		}
		ladder = append(ladder, t)
	}
	return ladder
}

// findAt matches the named reference against a fresh capture at the given
// threshold (0 = use the reference's registered threshold)
func (l *Locator) findAt(name string, threshold float64) (*cv.MatchResult, error) {
	tpl, ref, err := l.refs.Image(name)
	if err != nil {
		return nil, err
	}
	if threshold == 0 {
		threshold = ref.Threshold
	}

	frame, err := l.capturer.CaptureFrame()
	if err != nil {
		return nil, fmt.Errorf("screen capture failed: %w", err)
	}

	result := cv.Locate(frame, tpl, &cv.MatchConfig{
		MinConfidence: threshold,
		Scales:        l.scales,
	})
	return result, nil
}

// toInputSpace converts a point in capture pixel coordinates to the
// virtual-input coordinate space. The capture region may sit on a secondary
// display and the input surface may be scaled differently than the capture
// (HiDPI), so the point is offset by the capture origin and rescaled by the
// ratio between the input screen size and the virtual screen size.
func (l *Locator) toInputSpace(p image.Point) (int, int) {
	bounds := l.capturer.Bounds()
	x := bounds.Min.X + p.X
	y := bounds.Min.Y + p.Y

	if l.virtual.Dx() > 0 && l.virtual.Dy() > 0 {
		inputW, inputH := l.input.ScreenSize()
		if inputW > 0 && inputH > 0 {
			x = x * inputW / l.virtual.Dx()
			y = y * inputH / l.virtual.Dy()
		}
	}
	return x, y
}
