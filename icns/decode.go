package icns

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/esimov/ikon"
	"github.com/esimov/ikon/utils"
	jicns "github.com/jackmordaunt/icns/v3"
)

var (
	pngSignature  = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}
	argbSignature = []byte("ARGB")
)

// decodable lists the element types holding a whole image, grouped by priority:
// the standard resolution types first, then the retina (@2x) ones, which are
// only used for the sizes missing from the first group.
var decodable = [][]string{
	{"icp4", "icp5", "icp6", "ic07", "ic08", "ic09", "ic10", "ic04", "ic05"},
	{"ic11", "ic12", "ic13", "ic14"},
}

// argbSizes holds the dimensions of the elements storing run-length encoded ARGB data.
var argbSizes = map[string]int{
	"ic04": 16,
	"ic05": 32,
}

// describable lists the element types the jackmordaunt/icns package can describe.
var describable = []string{"ic07", "ic08", "ic09", "ic10", "ic11", "ic12", "ic13", "ic14"}

// Decode parses an .icns file. Masks, legacy run-length encoded bitmaps and
// metadata elements are skipped, and so are the image elements whose payload
// cannot be decoded, like JPEG 2000. Decoding fails when none of the image
// elements could be read.
func Decode(r io.Reader) (*Icon, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ikon.DecodingError{Format: "icns", Err: err}
	}
	elems, err := readFamily(data)
	if err != nil {
		return nil, &ikon.DecodingError{Format: "icns", Err: err}
	}

	var skipped []error
	icon := New()
	for _, group := range decodable {
		for _, e := range elems {
			if !utils.Contains(group, e.typ()) {
				continue
			}
			img, err := decodeElement(e)
			if errors.Is(err, ikon.ErrUnsupported) {
				skipped = append(skipped, fmt.Errorf("the %q element: %w", e.typ(), err))
				continue
			}
			if err != nil {
				return nil, &ikon.DecodingError{
					Format: "icns",
					Err:    fmt.Errorf("the %q element: %w", e.typ(), err),
				}
			}
			size := ikon.SizeOf(img)
			key, ok := KeyFromSize(size.Width)
			if !ok || size.Width != size.Height {
				skipped = append(skipped, fmt.Errorf("%w: %v %q element", ikon.ErrUnsupported, size, e.typ()))
				continue
			}
			if icon.ContainsKey(key) {
				continue
			}
			if err := icon.family.Insert(key, img); err != nil {
				return nil, &ikon.DecodingError{Format: "icns", Err: err}
			}
		}
	}
	if icon.Len() == 0 && len(skipped) > 0 {
		return nil, &ikon.DecodingError{Format: "icns", Err: errors.Join(skipped...)}
	}
	return icon, nil
}

// decodeElement decodes the payload of an image element. PNG and ARGB payloads
// are decoded natively, everything else is reported as unsupported.
func decodeElement(e element) (image.Image, error) {
	switch {
	case bytes.HasPrefix(e.data, pngSignature):
		return ikon.DecodePNG(bytes.NewReader(e.data))
	case bytes.HasPrefix(e.data, argbSignature):
		n, ok := argbSizes[e.typ()]
		if !ok {
			return nil, fmt.Errorf("%w: ARGB payload in a %q element", ikon.ErrUnsupported, e.typ())
		}
		return decodeARGB(e.data[len(argbSignature):], n)
	}
	return nil, fmt.Errorf("%w: %s payload", ikon.ErrUnsupported, describe(e))
}

// describe names the image format of a payload which is neither PNG nor ARGB.
func describe(e element) string {
	if !utils.Contains(describable, e.typ()) || len(e.data) < len(pngSignature) {
		return "unknown"
	}
	var buf bytes.Buffer
	if err := writeFamily(&buf, []element{e}); err != nil {
		return "unknown"
	}
	desc, err := jicns.Probe(&buf)
	if err != nil || len(desc) == 0 || desc[0].ImageFormat != jicns.ImageFormatJPEG2000 {
		return "unknown"
	}
	return desc[0].ImageFormat.String()
}

// decodeARGB decodes an n×n image stored as four consecutive channel planes
// (alpha, red, green, blue) compressed with the icns run-length encoding.
func decodeARGB(data []byte, n int) (*image.NRGBA, error) {
	pixels := n * n
	planes, err := unpackBits(data, 4*pixels)
	if err != nil {
		return nil, fmt.Errorf("%w: ARGB payload: %v", ikon.ErrUnsupported, err)
	}

	img := image.NewNRGBA(image.Rect(0, 0, n, n))
	for i := 0; i < pixels; i++ {
		img.Pix[i*4+0] = planes[pixels+i]
		img.Pix[i*4+1] = planes[2*pixels+i]
		img.Pix[i*4+2] = planes[3*pixels+i]
		img.Pix[i*4+3] = planes[i]
	}
	return img, nil
}

// unpackBits expands the icns flavour of PackBits: a header byte below 0x80
// is followed by header+1 literal bytes, any other header repeats the next
// byte header-0x80+3 times.
func unpackBits(data []byte, size int) ([]byte, error) {
	out := make([]byte, 0, size)
	for i := 0; len(out) < size; {
		if i >= len(data) {
			return nil, fmt.Errorf("truncated data: got %d of %d bytes", len(out), size)
		}
		h := int(data[i])
		i++
		if h < 0x80 {
			n := h + 1
			if i+n > len(data) {
				return nil, errors.New("truncated literal run")
			}
			out = append(out, data[i:i+n]...)
			i += n
			continue
		}
		if i >= len(data) {
			return nil, errors.New("truncated repeat run")
		}
		for range h - 0x80 + 3 {
			out = append(out, data[i])
		}
		i++
	}
	if len(out) > size {
		return nil, fmt.Errorf("run overflows the %d bytes of the image", size)
	}
	return out, nil
}
