package ikon

import (
	"fmt"
	"image"
)

// Size holds the dimensions of an icon entry in pixel units.
type Size struct {
	Width  int
	Height int
}

// Square returns the Size of an n by n icon.
func Square(n int) Size {
	return Size{Width: n, Height: n}
}

// SizeOf returns the dimensions of an image.
func SizeOf(img image.Image) Size {
	b := img.Bounds()
	return Size{Width: b.Dx(), Height: b.Dy()}
}

// Valid reports whether both dimensions are positive.
func (s Size) Valid() bool {
	return s.Width > 0 && s.Height > 0
}

// Rect returns the rectangle with origin (0, 0) covered by s.
func (s Size) Rect() image.Rectangle {
	return image.Rect(0, 0, s.Width, s.Height)
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Key is implemented by the key types of the icon formats.
// Every key identifies a single entry and reduces to the raster size of that entry.
type Key interface {
	comparable
	Size() Size
}
