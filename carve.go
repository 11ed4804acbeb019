package ikon

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/esimov/ikon/utils"
)

// Carve is a content aware resampling filter. Before rescaling, it removes the
// lowest energy seams of the source image along its longer axis, until the source
// has the aspect ratio of the target. Non-square sources become square icons
// without distorting and without padding the relevant parts of the image.
func Carve(src image.Image, size Size) (image.Image, error) {
	img := imaging.Clone(src)

	// Carving is quadratic in the image size, so large sources are reduced first.
	limit := 2 * utils.Max(size.Width, size.Height)
	if b := img.Bounds(); utils.Min(b.Dx(), b.Dy()) > limit {
		fit := fitSize(SizeOf(img), scaleToShortSide(SizeOf(img), limit))
		img = imaging.Resize(img, fit.Width, fit.Height, imaging.Lanczos)
	}

	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	ratio := float64(size.Width) / float64(size.Height)

	if nw := utils.Max(1, int(math.Round(float64(h)*ratio))); nw < w {
		img = carveWidth(img, w-nw)
	} else if nh := utils.Max(1, int(math.Round(float64(w)/ratio))); nh < h {
		img = imaging.Rotate90(img)
		img = carveWidth(img, h-nh)
		img = imaging.Rotate270(img)
	}
	return overfit(scale(img, size, imaging.Lanczos), size), nil
}

// scaleToShortSide returns a size whose shorter side equals n, preserving the aspect ratio of s.
func scaleToShortSide(s Size, n int) Size {
	if s.Width < s.Height {
		return Size{Width: n, Height: s.Height * n / s.Width}
	}
	return Size{Width: s.Width * n / s.Height, Height: n}
}

// carveWidth removes n vertical seams from img.
func carveWidth(img *image.NRGBA, n int) *image.NRGBA {
	for range n {
		c := newCarver(img.Bounds().Dx(), img.Bounds().Dy())
		c.computeEnergy(img)
		c.computeSeams()
		img = c.removeSeam(img, c.lowestEnergySeam())
	}
	return img
}

// carver holds the cumulative energy map of an image.
type carver struct {
	width  int
	height int
	points []float64
}

func newCarver(width, height int) *carver {
	return &carver{
		width:  width,
		height: height,
		points: make([]float64, width*height),
	}
}

func (c *carver) get(x, y int) float64 {
	return c.points[y*c.width+x]
}

func (c *carver) set(x, y int, v float64) {
	c.points[y*c.width+x] = v
}

var (
	sobelX = [3][3]float64{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}
	sobelY = [3][3]float64{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}
)

// computeEnergy fills the map with the Sobel gradient magnitude of the blurred
// grayscale image. Luminance is weighted by alpha, so transparent margins carry
// no energy and are carved first.
func (c *carver) computeEnergy(img *image.NRGBA) {
	gray := grayscale(imaging.Blur(img, 0.8))

	at := func(x, y int) float64 {
		x = utils.Max(0, utils.Min(x, c.width-1))
		y = utils.Max(0, utils.Min(y, c.height-1))
		return gray[y*c.width+x]
	}

	for y := 0; y < c.height; y++ {
		for x := 0; x < c.width; x++ {
			var gx, gy float64
			for ky := 0; ky < 3; ky++ {
				for kx := 0; kx < 3; kx++ {
					px := at(x+kx-1, y+ky-1)
					gx += px * sobelX[ky][kx]
					gy += px * sobelY[ky][kx]
				}
			}
			c.set(x, y, math.Sqrt(gx*gx+gy*gy))
		}
	}
}

// grayscale returns the alpha weighted luminance of every pixel.
func grayscale(img *image.NRGBA) []float64 {
	dx, dy := img.Bounds().Dx(), img.Bounds().Dy()
	lum := make([]float64, dx*dy)

	for y := 0; y < dy; y++ {
		for x := 0; x < dx; x++ {
			i := img.PixOffset(x, y)
			r, g, b, a := img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3]
			l := 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
			lum[y*dx+x] = l * float64(a) / 255
		}
	}
	return lum
}

// computeSeams accumulates the minimum energy of all the connected seams
// ending in each pixel, from the second row to the last one.
func (c *carver) computeSeams() {
	for y := 1; y < c.height; y++ {
		for x := 0; x < c.width; x++ {
			best := c.get(x, y-1)
			if x > 0 {
				best = math.Min(best, c.get(x-1, y-1))
			}
			if x < c.width-1 {
				best = math.Min(best, c.get(x+1, y-1))
			}
			c.set(x, y, c.get(x, y)+best)
		}
	}
}

// lowestEnergySeam walks the cumulative map upwards starting from the cheapest
// pixel of the last row. It returns the x coordinate of the seam in every row.
func (c *carver) lowestEnergySeam() []int {
	seam := make([]int, c.height)

	px, least := 0, math.MaxFloat64
	for x := 0; x < c.width; x++ {
		if e := c.get(x, c.height-1); e < least {
			least, px = e, x
		}
	}
	seam[c.height-1] = px

	for y := c.height - 2; y >= 0; y-- {
		next := px
		for _, x := range []int{px - 1, px + 1} {
			if x >= 0 && x < c.width && c.get(x, y) < c.get(next, y) {
				next = x
			}
		}
		px = next
		seam[y] = px
	}
	return seam
}

// removeSeam returns a copy of img one pixel narrower, without the seam pixels.
func (c *carver) removeSeam(img *image.NRGBA, seam []int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, c.width-1, c.height))

	for y := 0; y < c.height; y++ {
		row := img.Pix[img.PixOffset(0, y) : img.PixOffset(0, y)+c.width*4]
		out := dst.Pix[dst.PixOffset(0, y) : dst.PixOffset(0, y)+(c.width-1)*4]
		sx := seam[y] * 4
		copy(out, row[:sx])
		copy(out[sx:], row[sx+4:])
	}
	return dst
}
