// Package ico implements an encoder and a decoder for the Windows .ico file format.
//
// Entries smaller than the PNG threshold are stored as 32-bit bitmaps with
// an alpha channel, the others as PNG images. Both are widely supported by
// Windows and the web browsers.
package ico

import (
	"fmt"
	"image"
	"io"
	"math"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/esimov/ikon"
)

const (
	// MaxSize is the size of the biggest entry an .ico file can store.
	MaxSize = 256
	// DefaultPNGThreshold is the entry size starting from which PNG compression is used.
	DefaultPNGThreshold = 256

	maxEntries = math.MaxUint16
)

// Key identifies the entries of an .ico file by their size.
// Valid keys are in the range [1, 256].
type Key uint16

// NewKey returns the key of an n by n entry.
func NewKey(n int) (Key, error) {
	if n < 1 || n > MaxSize {
		return 0, fmt.Errorf("%w: ico entries must be between 1 and %d pixels, got %d", ikon.ErrInvalidKey, MaxSize, n)
	}
	return Key(n), nil
}

// Size returns the dimensions of the entry.
func (k Key) Size() ikon.Size {
	return ikon.Square(int(k))
}

func (k Key) String() string {
	return strconv.Itoa(int(k))
}

func (k Key) valid() bool {
	return k >= 1 && k <= MaxSize
}

var (
	_ ikon.Encoder[Key] = (*Icon)(nil)
	_ ikon.Decoder[Key] = (*Icon)(nil)
)

// Icon is an .ico file.
type Icon struct {
	// PNGThreshold sets the entry size starting from which the images are stored
	// as PNG. Smaller entries are stored as bitmaps. Zero means DefaultPNGThreshold.
	PNGThreshold int

	family *ikon.Family[Key]
}

// New returns an empty icon.
func New() *Icon {
	return WithCapacity(8)
}

// WithCapacity returns an empty icon with room for n entries.
func WithCapacity(n int) *Icon {
	f := ikon.NewFamily[Key](n)
	f.SetLimit(maxEntries)

	return &Icon{family: f}
}

// AddEntry rescales source to the size of key and adds it to the icon.
func (i *Icon) AddEntry(filter ikon.Filter, source *ikon.Image, key Key) error {
	if !key.valid() {
		_, err := NewKey(int(key))
		return &ikon.EncodingError{Key: key, Err: err}
	}
	return i.family.AddEntry(filter, source, key)
}

// Len returns the number of entries.
func (i *Icon) Len() int { return i.family.Len() }

// ContainsKey reports whether the icon has an entry for key.
func (i *Icon) ContainsKey(key Key) bool { return i.family.ContainsKey(key) }

// Get returns the image associated with key.
func (i *Icon) Get(key Key) (image.Image, bool) { return i.family.Get(key) }

// Keys returns the keys of the icon, from the smallest to the biggest.
func (i *Icon) Keys() []Key { return i.family.Keys() }

// Entries returns the entries of the icon, from the smallest to the biggest.
func (i *Icon) Entries() []ikon.Entry[Key] { return i.family.Entries() }

func (i *Icon) pngThreshold() int {
	if i.PNGThreshold <= 0 {
		return DefaultPNGThreshold
	}
	return i.PNGThreshold
}

// Encode writes the icon to w.
func (i *Icon) Encode(w io.Writer) error {
	entries := i.Entries()
	payloads := make([][]byte, 0, len(entries))

	for _, e := range entries {
		img := toNRGBA(e.Image)
		var (
			data []byte
			err  error
		)
		if int(e.Key) >= i.pngThreshold() {
			data, err = encodePNG(img)
		} else {
			data, err = encodeDIB(img)
		}
		if err != nil {
			return fmt.Errorf("unable to encode the %dx%d entry: %w", e.Key, e.Key, err)
		}
		payloads = append(payloads, data)
	}
	return writeDir(w, entries, payloads)
}

// toNRGBA converts any image type to *image.NRGBA with min-point at (0, 0).
func toNRGBA(img image.Image) *image.NRGBA {
	if nrgba, ok := img.(*image.NRGBA); ok && nrgba.Rect.Min == (image.Point{}) {
		return nrgba
	}
	return imaging.Clone(img)
}
