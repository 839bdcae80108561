package cv

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// MatchResult describes the best match of a template inside a frame.
// Confidence is normalized to [0,1]; Rect is the matched sub-rectangle in
// frame pixel coordinates; Scale is the template scale factor that produced
// the match.
type MatchResult struct {
	Confidence float64
	Rect       image.Rectangle
	Scale      float64
}

// Center returns the geometric center of the matched rectangle
func (r *MatchResult) Center() image.Point {
	return image.Point{
		X: r.Rect.Min.X + r.Rect.Dx()/2,
		Y: r.Rect.Min.Y + r.Rect.Dy()/2,
	}
}

// MatchConfig configures template matching
type MatchConfig struct {
	MinConfidence float64
	Scales        []float64        // Template scale factors to try, in order
	SearchRegion  *image.Rectangle // Optional: limit search area
}

// DefaultMatchConfig returns recommended settings: unscaled normalized
// cross-correlation with a 0.8 confidence cutoff.
func DefaultMatchConfig() *MatchConfig {
	return &MatchConfig{
		MinConfidence: 0.8,
		Scales:        []float64{1.0},
	}
}

// ScaleProgression builds a geometric progression of scale factors from min
// to max. Used when the live UI renders at an unknown zoom relative to the
// reference images.
func ScaleProgression(min, max, step float64) []float64 {
	if min <= 0 || max < min || step <= 1.0 {
		return []float64{1.0}
	}
	var scales []float64
	for s := min; s <= max*1.0001; s *= step {
		scales = append(scales, s)
	}
	return scales
}

// Locate finds the best match of template inside frame. Both images are
// compared on the grayscale channel; reference images are captured under
// different anti-aliasing conditions than live screenshots and raw-channel
// comparison is unstable. Returns nil when the best confidence across all
// configured scales is below MinConfidence; a miss is an expected outcome,
// not an error.
func Locate(frame image.Image, template image.Image, config *MatchConfig) *MatchResult {
	if config == nil {
		config = DefaultMatchConfig()
	}
	scales := config.Scales
	if len(scales) == 0 {
		scales = []float64{1.0}
	}

	grayFrame := ToGray(frame)
	grayTemplate := zeroOrigin(ToGray(template))

	var best *MatchResult
	for _, scale := range scales {
		needle := grayTemplate
		if scale != 1.0 {
			needle = resampleGray(grayTemplate, scale)
		}
		if needle.Bounds().Dx() < 2 || needle.Bounds().Dy() < 2 {
			continue
		}

		confidence, loc, ok := matchGray(grayFrame, needle, config.SearchRegion)
		if !ok {
			continue
		}
		if best == nil || confidence > best.Confidence {
			best = &MatchResult{
				Confidence: confidence,
				Rect:       image.Rect(loc.X, loc.Y, loc.X+needle.Bounds().Dx(), loc.Y+needle.Bounds().Dy()),
				Scale:      scale,
			}
		}
	}

	if best == nil || best.Confidence < config.MinConfidence {
		return nil
	}
	return best
}

// matchGray scans the haystack for the needle using normalized
// cross-correlation and returns the best score with its top-left location.
// The score is mapped from [-1,1] to [0,1].
func matchGray(haystack, needle *image.Gray, searchRegion *image.Rectangle) (float64, image.Point, bool) {
	hb := haystack.Bounds()
	nb := needle.Bounds()
	nw, nh := nb.Dx(), nb.Dy()

	search := hb
	if searchRegion != nil {
		search = searchRegion.Intersect(hb)
		if search.Empty() {
			return 0, image.Point{}, false
		}
	}

	maxX := search.Max.X - nw
	maxY := search.Max.Y - nh
	if maxX < search.Min.X || maxY < search.Min.Y {
		// Needle does not fit inside the search region
		return 0, image.Point{}, false
	}

	// Needle statistics are position-independent
	var sumN, sumNN float64
	for y := 0; y < nh; y++ {
		row := needle.Pix[y*needle.Stride : y*needle.Stride+nw]
		for x := 0; x < nw; x++ {
			v := float64(row[x])
			sumN += v
			sumNN += v * v
		}
	}
	count := float64(nw * nh)
	denomN := math.Sqrt(sumNN - sumN*sumN/count)
	if denomN == 0 {
		return 0, image.Point{}, false
	}

	bestScore := math.Inf(-1)
	bestLoc := image.Point{}

	for y := search.Min.Y; y <= maxY; y++ {
		for x := search.Min.X; x <= maxX; x++ {
			score := nccAt(haystack, needle, x, y, nw, nh, sumN, denomN, count)
			if score > bestScore {
				bestScore = score
				bestLoc = image.Point{X: x, Y: y}
			}
		}
	}

	// Map correlation from [-1,1] to [0,1]
	return (bestScore + 1.0) / 2.0, bestLoc, true
}

// nccAt computes the correlation coefficient of the needle against the
// haystack window at (x, y)
func nccAt(haystack, needle *image.Gray, x, y, nw, nh int, sumN, denomN, count float64) float64 {
	var sumH, sumHH, sumHN float64

	for ny := 0; ny < nh; ny++ {
		hRow := haystack.Pix[(y+ny-haystack.Rect.Min.Y)*haystack.Stride:]
		nRow := needle.Pix[ny*needle.Stride:]
		for nx := 0; nx < nw; nx++ {
			h := float64(hRow[x+nx-haystack.Rect.Min.X])
			n := float64(nRow[nx])
			sumH += h
			sumHH += h * h
			sumHN += h * n
		}
	}

	numerator := sumHN - sumH*sumN/count
	denomH := math.Sqrt(sumHH - sumH*sumH/count)
	if denomH == 0 {
		return -1
	}
	return numerator / (denomH * denomN)
}

// ToGray converts any image to grayscale using the standard luminance model
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}

	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	draw.Draw(gray, bounds, img, bounds.Min, draw.Src)
	return gray
}

// zeroOrigin re-bases a grayscale image so its bounds start at (0,0).
// Needle pixel access assumes a zero origin.
func zeroOrigin(src *image.Gray) *image.Gray {
	if src.Rect.Min == (image.Point{}) {
		return src
	}
	dst := image.NewGray(image.Rect(0, 0, src.Rect.Dx(), src.Rect.Dy()))
	draw.Draw(dst, dst.Bounds(), src, src.Rect.Min, draw.Src)
	return dst
}

// resampleGray scales a grayscale image by the given factor
func resampleGray(src *image.Gray, scale float64) *image.Gray {
	sb := src.Bounds()
	w := int(math.Round(float64(sb.Dx()) * scale))
	h := int(math.Round(float64(sb.Dy()) * scale))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	dst := image.NewGray(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, sb, draw.Src, nil)
	return dst
}
