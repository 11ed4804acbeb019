// Package icns implements an encoder and a decoder for the Apple .icns file format.
package icns

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"io"

	"github.com/esimov/ikon"
)

// Key identifies the entries of an .icns file.
type Key uint8

// The keys supported by the format, one for each power of two from 16 to 1024 pixels.
const (
	RGBA16 Key = iota
	RGBA32
	RGBA64
	RGBA128
	RGBA256
	RGBA512
	RGBA1024
)

// osTypes holds the element type used to store each key.
var osTypes = [...]string{
	RGBA16:   "icp4",
	RGBA32:   "icp5",
	RGBA64:   "icp6",
	RGBA128:  "ic07",
	RGBA256:  "ic08",
	RGBA512:  "ic09",
	RGBA1024: "ic10",
}

// Keys returns every key supported by the format, from the smallest to the biggest.
func Keys() []Key {
	return []Key{RGBA16, RGBA32, RGBA64, RGBA128, RGBA256, RGBA512, RGBA1024}
}

// KeyFromSize returns the key of an n by n entry.
func KeyFromSize(n int) (Key, bool) {
	for _, k := range Keys() {
		if k.Size().Width == n {
			return k, true
		}
	}
	return 0, false
}

// Size returns the dimensions of the entry.
func (k Key) Size() ikon.Size {
	return ikon.Square(16 << k)
}

// OSType returns the four character code of the element storing the entry.
func (k Key) OSType() string {
	return osTypes[k]
}

func (k Key) String() string {
	if k > RGBA1024 {
		return fmt.Sprintf("Key(%d)", uint8(k))
	}
	return fmt.Sprintf("RGBA%d", 16<<k)
}

var (
	_ ikon.Encoder[Key] = (*Icon)(nil)
	_ ikon.Decoder[Key] = (*Icon)(nil)
)

// Icon is an .icns icon family.
type Icon struct {
	family *ikon.Family[Key]
}

// New returns an empty icon family.
func New() *Icon {
	return WithCapacity(len(osTypes))
}

// WithCapacity returns an empty icon family with room for n entries.
func WithCapacity(n int) *Icon {
	f := ikon.NewFamily[Key](n)
	f.SetLimit(len(osTypes))

	return &Icon{family: f}
}

// AddEntry rescales source to the size of key and adds it to the icon family.
func (i *Icon) AddEntry(filter ikon.Filter, source *ikon.Image, key Key) error {
	if key > RGBA1024 {
		return &ikon.EncodingError{Key: key, Err: fmt.Errorf("%w: unknown icns key %d", ikon.ErrInvalidKey, key)}
	}
	return i.family.AddEntry(filter, source, key)
}

// Len returns the number of entries.
func (i *Icon) Len() int { return i.family.Len() }

// ContainsKey reports whether the icon family has an entry for key.
func (i *Icon) ContainsKey(key Key) bool { return i.family.ContainsKey(key) }

// Get returns the image associated with key.
func (i *Icon) Get(key Key) (image.Image, bool) { return i.family.Get(key) }

// Keys returns the keys of the icon family, from the smallest to the biggest.
func (i *Icon) Keys() []Key { return i.family.Keys() }

// Entries returns the entries of the icon family, from the smallest to the biggest.
func (i *Icon) Entries() []ikon.Entry[Key] { return i.family.Entries() }

// Encode writes the icon family to w. Every entry is stored as a PNG element,
// preceded by a table of contents.
func (i *Icon) Encode(w io.Writer) error {
	entries := i.Entries()
	elems := make([]element, 0, len(entries))

	for _, e := range entries {
		var buf bytes.Buffer
		if err := ikon.EncodePNG(&buf, e.Image); err != nil {
			return fmt.Errorf("unable to encode the %v entry: %w", e.Key, err)
		}
		elems = append(elems, newElement(e.Key.OSType(), buf.Bytes()))
	}

	toc := make([]byte, 0, len(elems)*headerSize)
	for _, e := range elems {
		toc = append(toc, e.osType[:]...)
		toc = binary.BigEndian.AppendUint32(toc, e.length())
	}
	if len(elems) > 0 {
		elems = append([]element{newElement(typeTOC, toc)}, elems...)
	}
	return writeFamily(w, elems)
}
