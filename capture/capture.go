package capture

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/kbinani/screenshot"
)

// Region is a rectangular screen area in virtual-screen coordinates.
type Region struct {
	X      int
	Y      int
	Width  int
	Height int
	// Polygon is optional and, when present, is expressed in absolute
	// virtual-screen coordinates. Capture uses it to mask pixels outside
	// the polygon while still returning a rectangular image.
	Polygon []Point
}

type Point struct {
	X int
	Y int
}

// Valid reports whether the region describes a capturable area.
func (r Region) Valid() bool {
	return r.Width > 0 && r.Height > 0
}

func (r Region) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

// Error wraps a capture failure so the pipeline can attribute it to the
// capture stage.
type Error struct {
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("capture: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("capture: %s", e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

// Capturer grabs a raster image of a screen region.
type Capturer interface {
	Capture(ctx context.Context, region Region) (*image.RGBA, error)
}

// ScreenCapturer captures from the live displays.
type ScreenCapturer struct{}

func NewScreenCapturer() *ScreenCapturer { return &ScreenCapturer{} }

func (c *ScreenCapturer) Capture(ctx context.Context, region Region) (*image.RGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !region.Valid() {
		return nil, &Error{Reason: fmt.Sprintf("invalid region dimensions: width=%d, height=%d", region.Width, region.Height)}
	}

	bounds := image.Rect(region.X, region.Y, region.X+region.Width, region.Y+region.Height)
	img, err := screenshot.CaptureRect(bounds)
	if err != nil {
		return nil, &Error{Reason: "capture rect", Err: err}
	}

	if len(region.Polygon) >= 3 {
		ApplyPolygonMask(img, region)
	}
	return img, nil
}

// VirtualBounds returns the union of all active display bounds.
func VirtualBounds() (image.Rectangle, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return image.Rectangle{}, &Error{Reason: "no active displays found"}
	}
	union := screenshot.GetDisplayBounds(0)
	for i := 1; i < n; i++ {
		union = union.Union(screenshot.GetDisplayBounds(i))
	}
	return union, nil
}

// ApplyPolygonMask whitens every pixel outside the region's polygon.
func ApplyPolygonMask(img *image.RGBA, region Region) {
	localPolygon := make([]Point, len(region.Polygon))
	for i, p := range region.Polygon {
		localPolygon[i] = Point{X: p.X - region.X, Y: p.Y - region.Y}
	}

	b := img.Bounds()
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if !pointInPolygon(float64(x)+0.5, float64(y)+0.5, localPolygon) {
				img.SetRGBA(x, y, white)
			}
		}
	}
}

func pointInPolygon(px, py float64, polygon []Point) bool {
	if len(polygon) < 3 {
		return false
	}

	inside := false
	for i, j := 0, len(polygon)-1; i < len(polygon); j, i = i, i+1 {
		xi := float64(polygon[i].X)
		yi := float64(polygon[i].Y)
		xj := float64(polygon[j].X)
		yj := float64(polygon[j].Y)

		if pointOnSegment(px, py, xi, yi, xj, yj) {
			return true
		}

		intersects := ((yi > py) != (yj > py)) &&
			(px < (xj-xi)*(py-yi)/(yj-yi)+xi)
		if intersects {
			inside = !inside
		}
	}

	return inside
}

func pointOnSegment(px, py, x1, y1, x2, y2 float64) bool {
	const epsilon = 0.5
	cross := (px-x1)*(y2-y1) - (py-y1)*(x2-x1)
	if math.Abs(cross) > epsilon {
		return false
	}

	minX := math.Min(x1, x2) - epsilon
	maxX := math.Max(x1, x2) + epsilon
	minY := math.Min(y1, y2) - epsilon
	maxY := math.Max(y1, y2) + epsilon
	return px >= minX && px <= maxX && py >= minY && py <= maxY
}
