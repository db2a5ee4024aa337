package browser

import (
	"errors"
	"fmt"
	"math"

	"github.com/playwright-community/playwright-go"
)

// MinDragSteps is the fewest intermediate moves a drag makes. Sortable
// list libraries ignore a drop that arrives in one jump.
const MinDragSteps = 10

// Point is a viewport coordinate.
type Point struct {
	X, Y float64
}

// Pointer is the mouse surface a drag is performed with.
type Pointer interface {
	Move(x, y float64) error
	Down() error
	Up() error
}

// PointerPath returns the evenly spaced moves from from to to, excluding
// from and ending exactly on to. steps below MinDragSteps is raised.
func PointerPath(from, to Point, steps int) []Point {
	if steps < MinDragSteps {
		steps = MinDragSteps
	}
	path := make([]Point, steps)
	for i := 1; i <= steps; i++ {
		f := float64(i) / float64(steps)
		path[i-1] = Point{X: from.X + (to.X-from.X)*f, Y: from.Y + (to.Y-from.Y)*f}
	}
	path[steps-1] = to
	return path
}

// Drag presses at from, walks the pointer path to to and releases.
func Drag(p Pointer, from, to Point, steps int) error {
	if err := p.Move(from.X, from.Y); err != nil {
		return err
	}
	if err := p.Down(); err != nil {
		return err
	}
	for _, pt := range PointerPath(from, to, steps) {
		if err := p.Move(pt.X, pt.Y); err != nil {
			return err
		}
	}
	return p.Up()
}

type mousePointer struct {
	mouse playwright.Mouse
}

func (m mousePointer) Move(x, y float64) error { return m.mouse.Move(x, y) }
func (m mousePointer) Down() error             { return m.mouse.Down() }
func (m mousePointer) Up() error               { return m.mouse.Up() }

// Box is an element's bounding box in viewport coordinates.
type Box struct {
	X, Y, Width, Height float64
}

func (b Box) center() Point {
	return Point{X: b.X + b.Width/2, Y: b.Y + b.Height/2}
}

// Layout scrolls and measures the elements of a drag.
type Layout interface {
	ScrollIntoView(selector string) error
	ScrollBy(dx, dy float64) error
	Box(selector string) (Box, error)
	// Viewport returns the visible size; zero means unknown.
	Viewport() (width, height float64)
}

// ErrDragOffscreen is returned when source and target cannot be on screen
// at the same time.
var ErrDragOffscreen = errors.New("drag source and target do not fit in the viewport together")

// DragEndpoints brings src and dst on screen together and returns their
// centers. The target is scrolled to first and both boxes are measured
// after the last scroll, source last, so the press lands on src.
func DragEndpoints(l Layout, src, dst string) (from, to Point, err error) {
	if err := l.ScrollIntoView(dst); err != nil {
		return Point{}, Point{}, fmt.Errorf("scroll %s into view: %w", dst, err)
	}
	d, err := l.Box(dst)
	if err != nil {
		return Point{}, Point{}, err
	}
	s, err := l.Box(src)
	if err != nil {
		return Point{}, Point{}, err
	}

	w, h := l.Viewport()
	dx, okX := fitSpan(s.X, s.X+s.Width, d.X, d.X+d.Width, w)
	dy, okY := fitSpan(s.Y, s.Y+s.Height, d.Y, d.Y+d.Height, h)
	if !okX || !okY {
		return Point{}, Point{}, fmt.Errorf("%s onto %s: %w", src, dst, ErrDragOffscreen)
	}
	if dx != 0 || dy != 0 {
		if err := l.ScrollBy(dx, dy); err != nil {
			return Point{}, Point{}, fmt.Errorf("scroll by (%v, %v): %w", dx, dy, err)
		}
		if d, err = l.Box(dst); err != nil {
			return Point{}, Point{}, err
		}
		if s, err = l.Box(src); err != nil {
			return Point{}, Point{}, err
		}
	}

	from, to = s.center(), d.center()
	if !inView(from, w, h) || !inView(to, w, h) {
		return Point{}, Point{}, fmt.Errorf("%s onto %s: %w", src, dst, ErrDragOffscreen)
	}
	return from, to, nil
}

// fitSpan returns the scroll offset that centers the union of [a0,a1] and
// [b0,b1] in a viewport of size, or false when the union is larger than
// the viewport. It returns 0 when the union is already visible.
func fitSpan(a0, a1, b0, b1, size float64) (float64, bool) {
	if size <= 0 {
		return 0, true
	}
	lo, hi := math.Min(a0, b0), math.Max(a1, b1)
	if hi-lo > size {
		return 0, false
	}
	if lo >= 0 && hi <= size {
		return 0, true
	}
	return (lo+hi)/2 - size/2, true
}

func inView(p Point, w, h float64) bool {
	if w > 0 && (p.X < 0 || p.X > w) {
		return false
	}
	if h > 0 && (p.Y < 0 || p.Y > h) {
		return false
	}
	return true
}

type pageLayout struct {
	page playwright.Page
}

func (l pageLayout) ScrollIntoView(selector string) error {
	return l.page.Locator(selector).First().ScrollIntoViewIfNeeded()
}

func (l pageLayout) ScrollBy(dx, dy float64) error {
	_, err := l.page.Evaluate("([x, y]) => window.scrollBy(x, y)", []float64{dx, dy})
	return err
}

func (l pageLayout) Box(selector string) (Box, error) {
	box, err := l.page.Locator(selector).First().BoundingBox()
	if err != nil {
		return Box{}, fmt.Errorf("bounding box of %s: %w", selector, err)
	}
	if box == nil {
		return Box{}, fmt.Errorf("element %s is not rendered", selector)
	}
	return Box{X: box.X, Y: box.Y, Width: box.Width, Height: box.Height}, nil
}

func (l pageLayout) Viewport() (float64, float64) {
	size := l.page.ViewportSize()
	if size == nil {
		return 0, 0
	}
	return float64(size.Width), float64(size.Height)
}

// DragAndDrop drags the first element matching src onto the center of
// the first element matching dst.
func (h *Helper) DragAndDrop(src, dst string) error {
	from, to, err := DragEndpoints(pageLayout{h.Page}, src, dst)
	if err != nil {
		return err
	}
	if err := Drag(mousePointer{h.Page.Mouse()}, from, to, 2*MinDragSteps); err != nil {
		return fmt.Errorf("drag %s onto %s: %w", src, dst, err)
	}
	h.log.Debug().Str("src", src).Str("dst", dst).Msg("dragged")
	return nil
}
