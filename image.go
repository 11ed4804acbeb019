package ikon

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Image is the source of an icon: either raster graphics or an SVG document.
type Image struct {
	raster image.Image

	mu  sync.Mutex // guards svg, whose target transform changes on every render
	svg *oksvg.SvgIcon
	doc []byte
}

// NewRaster wraps a decoded raster image.
func NewRaster(img image.Image) *Image {
	return &Image{raster: img}
}

// NewSVG parses an SVG document.
func NewSVG(data []byte) (*Image, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data), oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, fmt.Errorf("%w: could not parse the svg document: %v", ErrUnsupported, err)
	}
	if icon.ViewBox.W <= 0 || icon.ViewBox.H <= 0 {
		return nil, fmt.Errorf("%w: the svg document has an empty view box", ErrUnsupported)
	}
	return &Image{svg: icon, doc: data}, nil
}

// Open loads the image stored at path.
func Open(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Load(f)
}

// Load reads an image from r. The format is detected from the stream signature:
// PNG, JPEG, GIF, BMP and WebP are decoded as raster graphics,
// everything else is expected to be an SVG document.
func Load(r io.Reader) (*Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if isRaster(data) {
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("could not decode the source image: %w", err)
		}
		return NewRaster(img), nil
	}
	return NewSVG(data)
}

// isRaster checks the file signature against the supported raster formats.
func isRaster(data []byte) bool {
	signatures := [][]byte{
		{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a},
		{0xff, 0xd8, 0xff},
		[]byte("GIF87a"),
		[]byte("GIF89a"),
		[]byte("BM"),
		[]byte("RIFF"),
	}
	for _, sig := range signatures {
		if bytes.HasPrefix(data, sig) {
			return true
		}
	}
	return false
}

// IsSVG reports whether the image holds vector graphics.
func (i *Image) IsSVG() bool {
	return i.svg != nil
}

// Raster returns the raster graphics, or nil for SVG images.
func (i *Image) Raster() image.Image {
	return i.raster
}

// SVG returns the source of an SVG image, or nil for raster images.
func (i *Image) SVG() []byte {
	return i.doc
}

// Width returns the width of the image in pixel units.
func (i *Image) Width() float64 {
	if i.svg != nil {
		return i.svg.ViewBox.W
	}
	return float64(i.raster.Bounds().Dx())
}

// Height returns the height of the image in pixel units.
func (i *Image) Height() float64 {
	if i.svg != nil {
		return i.svg.ViewBox.H
	}
	return float64(i.raster.Bounds().Dy())
}

// Dimensions returns the width and height of the image in pixel units.
func (i *Image) Dimensions() (float64, float64) {
	return i.Width(), i.Height()
}

// Rasterize renders the image at the requested size.
// Raster graphics are rescaled with filter. Vector graphics are rendered directly
// at the target resolution, fitted and centered, so the filter is not used.
func (i *Image) Rasterize(filter Filter, size Size) (*image.NRGBA, error) {
	if !size.Valid() {
		return nil, fmt.Errorf("%w: cannot rasterize to %v", ErrInvalidKey, size)
	}
	if i.svg != nil {
		return i.renderSVG(size), nil
	}
	if i.raster == nil {
		return nil, errors.New("empty source image")
	}
	return Apply(filter, i.raster, size)
}

// renderSVG draws the svg icon in the center of a transparent canvas.
func (i *Image) renderSVG(size Size) *image.NRGBA {
	i.mu.Lock()
	defer i.mu.Unlock()

	vw, vh := i.svg.ViewBox.W, i.svg.ViewBox.H
	scale := min(float64(size.Width)/vw, float64(size.Height)/vh)
	w, h := vw*scale, vh*scale
	dx := (float64(size.Width) - w) / 2
	dy := (float64(size.Height) - h) / 2

	i.svg.SetTarget(dx, dy, w, h)

	dst := image.NewRGBA(size.Rect())
	scanner := rasterx.NewScannerGV(size.Width, size.Height, dst, dst.Bounds())
	raster := rasterx.NewDasher(size.Width, size.Height, scanner)
	i.svg.Draw(raster, 1.0)

	return imaging.Clone(dst)
}
