// Package imop implements the Porter-Duff composition operations used for
// mixing icon entries with their backdrop, for example when an icon format
// requires opaque images and the transparent areas have to be filled.
package imop

import (
	"image"
	"image/color"
	"math"
)

// Op is a Porter-Duff composition operation.
type Op string

const (
	Clear   Op = "clear"
	Copy    Op = "copy"
	Dst     Op = "dst"
	SrcOver Op = "src_over"
	DstOver Op = "dst_over"
	SrcIn   Op = "src_in"
	DstIn   Op = "dst_in"
	SrcOut  Op = "src_out"
	DstOut  Op = "dst_out"
	SrcAtop Op = "src_atop"
	DstAtop Op = "dst_atop"
	Xor     Op = "xor"
)

// fractions returns the contribution of the source and of the backdrop
// for the given source and backdrop alpha values.
var fractions = map[Op]func(as, ab float64) (float64, float64){
	Clear:   func(as, ab float64) (float64, float64) { return 0, 0 },
	Copy:    func(as, ab float64) (float64, float64) { return 1, 0 },
	Dst:     func(as, ab float64) (float64, float64) { return 0, 1 },
	SrcOver: func(as, ab float64) (float64, float64) { return 1, 1 - as },
	DstOver: func(as, ab float64) (float64, float64) { return 1 - ab, 1 },
	SrcIn:   func(as, ab float64) (float64, float64) { return ab, 0 },
	DstIn:   func(as, ab float64) (float64, float64) { return 0, as },
	SrcOut:  func(as, ab float64) (float64, float64) { return 1 - ab, 0 },
	DstOut:  func(as, ab float64) (float64, float64) { return 0, 1 - as },
	SrcAtop: func(as, ab float64) (float64, float64) { return ab, 1 - as },
	DstAtop: func(as, ab float64) (float64, float64) { return 1 - ab, as },
	Xor:     func(as, ab float64) (float64, float64) { return 1 - ab, 1 - as },
}

// Valid reports whether op is a supported composition operation.
func (op Op) Valid() bool {
	_, ok := fractions[op]
	return ok
}

// Draw composes src with the backdrop dst using op and returns the result
// as a new image with the bounds of src. Unsupported operations fall back to SrcOver.
func Draw(op Op, src, dst image.Image) *image.NRGBA {
	fn, ok := fractions[op]
	if !ok {
		fn = fractions[SrcOver]
	}

	b := src.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))

	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			s := color.NRGBAModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			d := color.NRGBAModel.Convert(dst.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)

			as, ab := float64(s.A)/255, float64(d.A)/255
			fa, fb := fn(as, ab)

			ao := fa*as + fb*ab
			if ao == 0 {
				continue
			}
			// Channels are mixed premultiplied, then divided back by the resulting alpha.
			mix := func(cs, cb uint8) uint8 {
				c := (fa*as*float64(cs) + fb*ab*float64(cb)) / ao
				return uint8(math.Min(255, math.Round(c)))
			}
			out.SetNRGBA(x, y, color.NRGBA{
				R: mix(s.R, d.R),
				G: mix(s.G, d.G),
				B: mix(s.B, d.B),
				A: uint8(math.Min(255, math.Round(ao*255))),
			})
		}
	}
	return out
}

// Flatten composes img over a solid background.
func Flatten(img image.Image, bg color.Color) *image.NRGBA {
	return Draw(SrcOver, img, &image.Uniform{C: bg})
}
