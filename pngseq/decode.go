package pngseq

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/esimov/ikon"
)

// Decode reads a PNG sequence from a tar archive.
// Files other than .png images are ignored.
func Decode(r io.Reader) (*Sequence, error) {
	return DecodeMatching(r, nil)
}

// DecodeMatching is like Decode, but only the members whose name is accepted
// by match are decoded. A nil match accepts every .png member.
func DecodeMatching(r io.Reader, match func(name string) bool) (*Sequence, error) {
	seq := New()
	tr := tar.NewReader(r)

	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ikon.DecodingError{Format: "png sequence", Err: err}
		}
		if hdr.Typeflag != tar.TypeReg || !isPNG(hdr.Name) {
			continue
		}
		if match != nil && !match(hdr.Name) {
			continue
		}
		if err := seq.insert(hdr.Name, tr); err != nil {
			return nil, err
		}
	}
	return seq, nil
}

// DecodeZip reads a PNG sequence from a zip archive of the given size.
// Files other than .png images are ignored.
func DecodeZip(r io.ReaderAt, size int64) (*Sequence, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, &ikon.DecodingError{Format: "png sequence", Err: err}
	}

	seq := WithCapacity(len(zr.File))
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !isPNG(f.Name) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, &ikon.DecodingError{Format: "png sequence", Err: err}
		}
		err = seq.insert(f.Name, rc)
		rc.Close()
		if err != nil {
			return nil, err
		}
	}
	return seq, nil
}

func isPNG(name string) bool {
	return strings.EqualFold(path.Ext(name), ".png")
}

// insert decodes a single archive member and adds it to the sequence.
func (s *Sequence) insert(name string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return &ikon.DecodingError{Format: "png sequence", Err: err}
	}
	img, err := ikon.DecodePNG(bytes.NewReader(data))
	if err != nil {
		return &ikon.DecodingError{Format: "png sequence", Err: fmt.Errorf("%s: %w", name, err)}
	}

	size := ikon.SizeOf(img)
	if size.Width != size.Height {
		return &ikon.DecodingError{
			Format: "png sequence",
			Err:    fmt.Errorf("%w: %s is not square (%v)", ikon.ErrUnsupported, name, size),
		}
	}
	key, err := NewKey(size.Width, name)
	if err != nil {
		return &ikon.DecodingError{Format: "png sequence", Err: err}
	}
	if err := s.Insert(key, img); err != nil {
		return &ikon.DecodingError{Format: "png sequence", Err: err}
	}
	return nil
}
