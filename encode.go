package ikon

import (
	"bufio"
	"errors"
	"image"
	"image/png"
	"io"
	"os"

	"golang.org/x/image/bmp"
)

// Encoder is implemented by the icon formats which can be built from source images.
type Encoder[K Key] interface {
	// Len returns the number of entries of the icon.
	Len() int
	// AddEntry rescales source to the size of key and adds it to the icon.
	// It fails with ErrAlreadyIncluded if the icon already holds key.
	AddEntry(filter Filter, source *Image, key K) error
	// Encode writes the icon to w.
	Encode(w io.Writer) error
}

// Saver is implemented by the icon formats which know how to store themselves
// on the file system, for example as a directory tree.
type Saver interface {
	Save(path string) error
}

// AddEntries adds one entry for each of the keys, stopping at the first error.
func AddEntries[K Key](enc Encoder[K], filter Filter, source *Image, keys []K) error {
	for _, key := range keys {
		if err := enc.AddEntry(filter, source, key); err != nil {
			return err
		}
	}
	return nil
}

// Save stores the icon at path. Encoders implementing Saver decide themselves
// how to do it, every other encoder is written to a newly created file.
func Save(enc interface{ Encode(io.Writer) error }, path string) error {
	if s, ok := enc.(Saver); ok {
		return s.Save(path)
	}
	return WriteFile(path, enc.Encode)
}

// WriteFile creates the file at path and fills it through a buffered writer using encode.
func WriteFile(path string, encode func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w := bufio.NewWriter(f)
	if err := encode(w); err != nil {
		return err
	}
	return w.Flush()
}

// EncodePNG encodes a raster image as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}

// EncodeBMP encodes a raster image as BMP.
func EncodeBMP(w io.Writer, img image.Image) error {
	return bmp.Encode(w, img)
}

// EncodeSVG writes the source document of an SVG image.
func EncodeSVG(w io.Writer, img *Image) error {
	if !img.IsSVG() {
		return errors.New("the image does not hold vector graphics")
	}
	_, err := w.Write(img.SVG())
	return err
}
