package ikon

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	imgWidth  = 10
	imgHeight = 10
)

func findNonZeroValue(points []float64) bool {
	for _, p := range points {
		if p != 0 {
			return true
		}
	}
	return false
}

func TestCarver_EnergySeamShouldNotBeDetected(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, imgWidth, imgHeight))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.White}, image.Point{}, draw.Src)

	c := newCarver(imgWidth, imgHeight)
	c.computeEnergy(img)
	assert.False(t, findNonZeroValue(c.points))
}

func TestCarver_SeamAvoidsEdges(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, imgWidth, imgHeight))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.White}, image.Point{}, draw.Src)

	// A dark bar on the right side is the only relevant content of the image.
	for y := 0; y < imgHeight; y++ {
		img.Set(7, y, color.Black)
		img.Set(8, y, color.Black)
	}

	c := newCarver(imgWidth, imgHeight)
	c.computeEnergy(img)
	assert.True(t, findNonZeroValue(c.points))

	c.computeSeams()
	seam := c.lowestEnergySeam()
	assert.Len(t, seam, imgHeight)
	for y, x := range seam {
		assert.Less(t, x, 4, "row %d", y)
	}
}

func TestCarver_RemoveSeam(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, imgWidth, imgHeight))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.White}, image.Point{}, draw.Src)
	for y := 0; y < imgHeight; y++ {
		img.Set(y%imgWidth, y, color.Black)
	}

	seam := make([]int, imgHeight)
	for y := range seam {
		seam[y] = y % imgWidth
	}

	c := newCarver(imgWidth, imgHeight)
	out := c.removeSeam(img, seam)
	assert.Equal(t, image.Rect(0, 0, imgWidth-1, imgHeight), out.Bounds())

	for y := 0; y < imgHeight; y++ {
		for x := 0; x < imgWidth-1; x++ {
			assert.Equal(t, color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, out.NRGBAAt(x, y))
		}
	}
}

func TestCarve_FillsTheCanvas(t *testing.T) {
	for _, rect := range []image.Rectangle{
		image.Rect(0, 0, 60, 20),
		image.Rect(0, 0, 20, 60),
	} {
		src := image.NewNRGBA(rect)
		draw.Draw(src, rect, &image.Uniform{color.White}, image.Point{}, draw.Src)
		for y := 0; y < rect.Dy(); y += 4 {
			for x := 0; x < rect.Dx(); x += 6 {
				src.Set(x, y, color.Black)
			}
		}

		carved, err := Carve(src, Square(16))
		assert.NoError(t, err)
		assert.Equal(t, Square(16), SizeOf(carved))

		_, _, _, a := carved.At(0, 0).RGBA()
		assert.Equal(t, uint32(0xffff), a, "%v", rect)

		padded, err := Linear(src, Square(16))
		assert.NoError(t, err)
		_, _, _, a = padded.At(0, 0).RGBA()
		assert.Equal(t, uint32(0), a, "%v", rect)
	}
}

func TestCarve_DownscalesLargeSources(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 400, 200))
	draw.Draw(src, src.Bounds(), &image.Uniform{color.NRGBA{R: 0x80, A: 0xff}}, image.Point{}, draw.Src)

	img, err := Apply(Carve, src, Size{Width: 8, Height: 8})
	assert.NoError(t, err)
	assert.Equal(t, Square(8), SizeOf(img))
}
