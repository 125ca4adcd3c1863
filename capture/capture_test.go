package capture

import (
	"context"
	"image"
	"image/color"
	"testing"
)

func TestRegionValid(t *testing.T) {
	if !(Region{X: 10, Y: 10, Width: 200, Height: 50}).Valid() {
		t.Fatal("expected positive-size region to be valid")
	}
	if (Region{Width: 0, Height: 50}).Valid() {
		t.Fatal("expected zero-width region to be invalid")
	}
	if (Region{Width: 200, Height: -1}).Valid() {
		t.Fatal("expected negative-height region to be invalid")
	}
}

func TestCaptureRejectsInvalidRegion(t *testing.T) {
	c := NewScreenCapturer()
	_, err := c.Capture(context.Background(), Region{})
	if err == nil {
		t.Fatal("expected error for invalid region dimensions")
	}
	if _, ok := err.(*Error); !ok {
		t.Fatalf("expected *capture.Error, got %T", err)
	}
}

func TestPointInPolygon(t *testing.T) {
	poly := []Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}

	if !pointInPolygon(5.5, 5.5, poly) {
		t.Fatal("expected center point to be inside polygon")
	}
	if pointInPolygon(-1, 5, poly) {
		t.Fatal("expected point outside polygon to be outside")
	}
	if !pointInPolygon(0, 5, poly) {
		t.Fatal("expected edge point to be treated as inside")
	}
}

func TestApplyPolygonMaskWhitesOutsidePixels(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 6, 6))
	black := color.RGBA{R: 0, G: 0, B: 0, A: 255}
	for y := 0; y < 6; y++ {
		for x := 0; x < 6; x++ {
			img.SetRGBA(x, y, black)
		}
	}

	region := Region{
		X:      50,
		Y:      80,
		Width:  6,
		Height: 6,
		Polygon: []Point{
			{X: 51, Y: 81},
			{X: 54, Y: 81},
			{X: 54, Y: 84},
			{X: 51, Y: 84},
		},
	}

	ApplyPolygonMask(img, region)

	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	if got := img.RGBAAt(0, 0); got != white {
		t.Fatalf("expected outside pixel to be white, got %#v", got)
	}
	if got := img.RGBAAt(2, 2); got != black {
		t.Fatalf("expected inside pixel to remain original color, got %#v", got)
	}
	if got := img.RGBAAt(5, 5); got != white {
		t.Fatalf("expected outside corner pixel to be white, got %#v", got)
	}
}
