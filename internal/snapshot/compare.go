// Package snapshot compares page screenshots against stored baselines.
package snapshot

import (
	"fmt"
	"image"
	"image/color"
)

// ThresholdType selects how FailureThreshold is read.
type ThresholdType string

const (
	ThresholdPixel   ThresholdType = "pixel"
	ThresholdPercent ThresholdType = "percent"
)

// maxYIQDelta is the YIQ distance between black and white.
const maxYIQDelta = 35215.0

// Rect is a region in image pixels.
type Rect struct {
	X, Y, Width, Height int
}

func (r Rect) bounds() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Options control capture and comparison of one snapshot.
type Options struct {
	// Threshold is the per-pixel color distance (0..1) tolerated before a
	// pixel counts as different.
	Threshold float64
	// ThresholdSet keeps a zero Threshold, asking for an exact per-pixel
	// match, instead of taking the store default.
	ThresholdSet bool
	// FailureThreshold is the tolerated amount of differing pixels, as a
	// count or as a fraction of all pixels per FailureThresholdType.
	FailureThreshold     float64
	FailureThresholdType ThresholdType
	// Blackout regions are masked in both images before comparing.
	Blackout []Rect
	// BlackoutSelectors are masked by the browser during capture.
	BlackoutSelectors []string
	FullPage          bool
}

// Result is the outcome of a comparison.
type Result struct {
	DiffPixels  int
	TotalPixels int
	DiffRatio   float64
	Pass        bool
	// Created is set when no baseline existed and one was written.
	Created bool
	Diff    *image.RGBA
}

// DimensionError reports images of different sizes.
type DimensionError struct {
	Baseline image.Rectangle
	Actual   image.Rectangle
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("snapshot size %dx%d does not match baseline %dx%d",
		e.Actual.Dx(), e.Actual.Dy(), e.Baseline.Dx(), e.Baseline.Dy())
}

// Validate rejects out-of-range options.
func (o Options) Validate() error {
	if o.Threshold < 0 || o.Threshold > 1 {
		return fmt.Errorf("threshold %v outside [0,1]", o.Threshold)
	}
	if o.FailureThreshold < 0 {
		return fmt.Errorf("failure threshold %v is negative", o.FailureThreshold)
	}
	switch o.FailureThresholdType {
	case ThresholdPixel, ThresholdPercent:
	default:
		return fmt.Errorf("failure threshold type must be pixel or percent, got %q", o.FailureThresholdType)
	}
	return nil
}

// Compare diffs actual against baseline pixel by pixel.
func Compare(baseline, actual image.Image, opts Options) (Result, error) {
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}
	bb, ab := baseline.Bounds(), actual.Bounds()
	if bb.Dx() != ab.Dx() || bb.Dy() != ab.Dy() {
		return Result{}, &DimensionError{Baseline: bb, Actual: ab}
	}

	w, h := bb.Dx(), bb.Dy()
	diff := image.NewRGBA(image.Rect(0, 0, w, h))
	limit := maxYIQDelta * opts.Threshold * opts.Threshold
	masked := 0
	res := Result{}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if blackedOut(opts.Blackout, x, y) {
				masked++
				diff.Set(x, y, color.RGBA{0, 0, 0, 255})
				continue
			}
			b := baseline.At(bb.Min.X+x, bb.Min.Y+y)
			a := actual.At(ab.Min.X+x, ab.Min.Y+y)
			if yiqDelta(b, a) > limit {
				res.DiffPixels++
				diff.Set(x, y, color.RGBA{255, 0, 0, 255})
				continue
			}
			diff.Set(x, y, faded(a))
		}
	}

	res.TotalPixels = w*h - masked
	if res.TotalPixels > 0 {
		res.DiffRatio = float64(res.DiffPixels) / float64(res.TotalPixels)
	}
	res.Diff = diff
	res.Pass = passes(res, opts)
	return res, nil
}

func passes(r Result, opts Options) bool {
	if opts.FailureThresholdType == ThresholdPixel {
		return float64(r.DiffPixels) <= opts.FailureThreshold
	}
	return r.DiffRatio <= opts.FailureThreshold
}

func blackedOut(rects []Rect, x, y int) bool {
	p := image.Pt(x, y)
	for _, r := range rects {
		if p.In(r.bounds()) {
			return true
		}
	}
	return false
}

// blend composites c over white and returns 0..255 channels.
func blend(c color.Color) (float64, float64, float64) {
	r, g, b, a := c.RGBA()
	if a == 0 {
		return 255, 255, 255
	}
	// RGBA() is alpha-premultiplied in 0..65535.
	af := float64(a) / 65535
	white := 255 * (1 - af)
	return float64(r)/257 + white, float64(g)/257 + white, float64(b)/257 + white
}

func yiq(r, g, b float64) (float64, float64, float64) {
	y := r*0.29889531 + g*0.58662247 + b*0.11448223
	i := r*0.59597799 - g*0.27417610 - b*0.32180189
	q := r*0.21147017 - g*0.52261711 + b*0.31114694
	return y, i, q
}

func yiqDelta(c1, c2 color.Color) float64 {
	r1, g1, b1 := blend(c1)
	r2, g2, b2 := blend(c2)
	if r1 == r2 && g1 == g2 && b1 == b2 {
		return 0
	}
	y1, i1, q1 := yiq(r1, g1, b1)
	y2, i2, q2 := yiq(r2, g2, b2)
	dy, di, dq := y1-y2, i1-i2, q1-q2
	return 0.5053*dy*dy + 0.299*di*di + 0.1957*dq*dq
}

// faded renders an unchanged pixel as a light gray for the diff image.
func faded(c color.Color) color.RGBA {
	r, g, b := blend(c)
	y, _, _ := yiq(r, g, b)
	v := uint8(255 + (y-255)*0.1)
	return color.RGBA{v, v, v, 255}
}
