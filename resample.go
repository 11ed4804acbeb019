package ikon

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
)

// Filter is a resampling filter: it rescales src so that the result
// matches size exactly. Custom filters may be supplied by the users of the package.
type Filter func(src image.Image, size Size) (image.Image, error)

var filters = map[string]Filter{
	"nearest":    Nearest,
	"linear":     Linear,
	"cubic":      Cubic,
	"catmullrom": CatmullRom,
	"carve":      Carve,
}

// ParseFilter returns the built-in filter registered under name.
func ParseFilter(name string) (Filter, error) {
	f, ok := filters[name]
	if !ok {
		return nil, fmt.Errorf("unknown resampling filter %q", name)
	}
	return f, nil
}

// FilterNames returns the names of the built-in filters in alphabetical order.
func FilterNames() []string {
	names := make([]string, 0, len(filters))
	for name := range filters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply runs filter against src and checks that the output matches size.
func Apply(filter Filter, src image.Image, size Size) (*image.NRGBA, error) {
	if filter == nil {
		filter = Linear
	}
	img, err := filter(src, size)
	if err != nil {
		return nil, err
	}
	if got := SizeOf(img); got != size {
		return nil, &ResampleError{Want: size, Got: got}
	}
	if nrgba, ok := img.(*image.NRGBA); ok && nrgba.Rect.Min == (image.Point{}) {
		return nrgba, nil
	}
	return imaging.Clone(img), nil
}

// Linear is a linear (triangle) resampling filter.
func Linear(src image.Image, size Size) (image.Image, error) {
	return overfit(scale(src, size, imaging.Linear), size), nil
}

// Cubic is a Lanczos resampling filter.
func Cubic(src image.Image, size Size) (image.Image, error) {
	return overfit(scale(src, size, imaging.Lanczos), size), nil
}

// Nearest is a nearest-neighbor resampling filter. Sources smaller than the
// target are only enlarged by integer factors, which keeps pixel art crisp.
func Nearest(src image.Image, size Size) (image.Image, error) {
	b := src.Bounds()
	if b.Dx() < size.Width && b.Dy() < size.Height {
		return overfit(upscaleInteger(src, size), size), nil
	}
	return overfit(scale(src, size, imaging.NearestNeighbor), size), nil
}

// CatmullRom is a Catmull-Rom resampling filter.
func CatmullRom(src image.Image, size Size) (image.Image, error) {
	fit := fitSize(SizeOf(src), size)
	dst := image.NewNRGBA(fit.Rect())
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	return overfit(dst, size), nil
}

// fitSize returns the largest size fitting into target while keeping the aspect ratio of src.
func fitSize(src, target Size) Size {
	ratio := math.Min(
		float64(target.Width)/float64(src.Width),
		float64(target.Height)/float64(src.Height),
	)
	fit := Size{
		Width:  int(math.Round(float64(src.Width) * ratio)),
		Height: int(math.Round(float64(src.Height) * ratio)),
	}
	fit.Width = max(1, min(fit.Width, target.Width))
	fit.Height = max(1, min(fit.Height, target.Height))

	return fit
}

// scale rescales src to fit into size.
func scale(src image.Image, size Size, filter imaging.ResampleFilter) *image.NRGBA {
	fit := fitSize(SizeOf(src), size)
	return imaging.Resize(src, fit.Width, fit.Height, filter)
}

// upscaleInteger enlarges src by the biggest integer factor that still fits into size.
func upscaleInteger(src image.Image, size Size) *image.NRGBA {
	b := src.Bounds()
	factor := min(size.Width/b.Dx(), size.Height/b.Dy())

	return imaging.Resize(src, b.Dx()*factor, b.Dy()*factor, imaging.NearestNeighbor)
}

// overfit centers img on a transparent canvas of the requested size.
func overfit(img image.Image, size Size) *image.NRGBA {
	if SizeOf(img) == size {
		return imaging.Clone(img)
	}
	dst := imaging.New(size.Width, size.Height, color.Transparent)
	return imaging.PasteCenter(dst, img)
}
