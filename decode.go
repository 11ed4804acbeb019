package ikon

import (
	"image"
	"image/png"
	"io"

	"golang.org/x/image/bmp"
)

// Decoder is implemented by the icon formats which can be parsed and inspected.
type Decoder[K Key] interface {
	// Len returns the number of entries of the icon.
	Len() int
	// ContainsKey reports whether the icon has an entry for key.
	ContainsKey(key K) bool
	// Get returns the image associated with key.
	Get(key K) (image.Image, bool)
	// Entries returns all the entries of the icon.
	Entries() []Entry[K]
}

// DecodePNG decodes a PNG encoded raster image.
func DecodePNG(r io.Reader) (image.Image, error) {
	return png.Decode(r)
}

// DecodeBMP decodes a BMP encoded raster image.
func DecodeBMP(r io.Reader) (image.Image, error) {
	return bmp.Decode(r)
}

// DecodeSVG parses an SVG document.
func DecodeSVG(r io.Reader) (*Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return NewSVG(data)
}
