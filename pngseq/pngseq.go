// Package pngseq implements PNG sequences: series of PNG files indexed by
// their path, stored either as a directory tree, a tar or a zip archive.
package pngseq

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"fmt"
	"image"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/esimov/ikon"
)

// Key identifies an entry of a PNG sequence by its path. Two keys with the
// same path refer to the same entry, whatever their size is.
type Key struct {
	size int
	path string
}

// NewKey returns the key of an entry of the given size, stored at p.
// The path is cleaned and must be a relative, slash separated path of a .png
// file which does not escape the root of the sequence.
func NewKey(size int, p string) (Key, error) {
	if size < 1 {
		return Key{}, fmt.Errorf("%w: the size of an entry must be positive, got %d", ikon.ErrInvalidKey, size)
	}
	p = path.Clean(strings.ReplaceAll(p, "\\", "/"))
	switch {
	case path.IsAbs(p), p == "..", strings.HasPrefix(p, "../"):
		return Key{}, fmt.Errorf("%w: %q is not inside the sequence", ikon.ErrInvalidKey, p)
	case !strings.EqualFold(path.Ext(p), ".png"):
		return Key{}, fmt.Errorf("%w: %q is not a .png file", ikon.ErrInvalidKey, p)
	}
	return Key{size: size, path: p}, nil
}

// Size returns the dimensions of the entry.
func (k Key) Size() ikon.Size { return ikon.Square(k.size) }

// Path returns the location of the entry inside the sequence.
func (k Key) Path() string { return k.path }

func (k Key) String() string {
	return fmt.Sprintf("%s (%dx%d)", k.path, k.size, k.size)
}

var (
	_ ikon.Encoder[Key] = (*Sequence)(nil)
	_ ikon.Decoder[Key] = (*Sequence)(nil)
	_ ikon.Saver        = (*Sequence)(nil)
)

// Sequence is a collection of PNG files indexed by path.
type Sequence struct {
	family *ikon.Family[Key]
	paths  map[string]Key
}

// New returns an empty sequence.
func New() *Sequence {
	return WithCapacity(8)
}

// WithCapacity returns an empty sequence with room for n entries.
func WithCapacity(n int) *Sequence {
	return &Sequence{
		family: ikon.NewFamily[Key](n),
		paths:  make(map[string]Key, n),
	}
}

// AddEntry rescales source to the size of key and stores it at the path of key.
func (s *Sequence) AddEntry(filter ikon.Filter, source *ikon.Image, key Key) error {
	if err := s.check(key); err != nil {
		return err
	}
	if err := s.family.AddEntry(filter, source, key); err != nil {
		return err
	}
	s.paths[key.path] = key

	return nil
}

// Insert stores an already rasterized image at the path of key.
func (s *Sequence) Insert(key Key, img image.Image) error {
	if err := s.check(key); err != nil {
		return err
	}
	if err := s.family.Insert(key, img); err != nil {
		return err
	}
	s.paths[key.path] = key

	return nil
}

func (s *Sequence) check(key Key) error {
	if key.size < 1 || key.path == "" {
		return &ikon.EncodingError{Key: key, Err: fmt.Errorf("%w: zero key", ikon.ErrInvalidKey)}
	}
	if _, ok := s.paths[key.path]; ok {
		return &ikon.EncodingError{Key: key, Err: ikon.ErrAlreadyIncluded}
	}
	return nil
}

// Len returns the number of entries.
func (s *Sequence) Len() int { return s.family.Len() }

// ContainsKey reports whether the sequence has an entry stored at the path of key.
func (s *Sequence) ContainsKey(key Key) bool {
	_, ok := s.paths[key.path]
	return ok
}

// Get returns the image stored at the path of key.
func (s *Sequence) Get(key Key) (image.Image, bool) {
	stored, ok := s.paths[key.path]
	if !ok {
		return nil, false
	}
	return s.family.Get(stored)
}

// Lookup returns the key of the entry stored at p.
func (s *Sequence) Lookup(p string) (Key, bool) {
	k, ok := s.paths[p]
	return k, ok
}

// Entries returns the entries of the sequence, ordered by path.
func (s *Sequence) Entries() []ikon.Entry[Key] {
	entries := s.family.Entries()
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key.path < entries[j].Key.path
	})
	return entries
}

// Keys returns the keys of the sequence, ordered by path.
func (s *Sequence) Keys() []Key {
	entries := s.Entries()
	keys := make([]Key, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	return keys
}

// File is an encoded entry of the sequence.
type File struct {
	Path string
	Data []byte
}

// Files encodes every entry as PNG, ordered by path.
func (s *Sequence) Files() ([]File, error) {
	entries := s.Entries()
	files := make([]File, 0, len(entries))

	for _, e := range entries {
		var buf bytes.Buffer
		if err := ikon.EncodePNG(&buf, e.Image); err != nil {
			return nil, fmt.Errorf("unable to encode %s: %w", e.Key.path, err)
		}
		files = append(files, File{Path: e.Key.path, Data: buf.Bytes()})
	}
	return files, nil
}

// Encode writes the sequence to w as a tar archive.
func (s *Sequence) Encode(w io.Writer) error {
	tw := tar.NewWriter(w)
	if err := s.WriteTar(tw); err != nil {
		return err
	}
	return tw.Close()
}

// WriteTar appends the entries of the sequence to an open tar archive.
func (s *Sequence) WriteTar(tw *tar.Writer) error {
	files, err := s.Files()
	if err != nil {
		return err
	}
	for _, f := range files {
		if err := WriteTarFile(tw, f.Path, f.Data); err != nil {
			return err
		}
	}
	return nil
}

// WriteTarFile appends a regular file to an open tar archive.
func WriteTarFile(tw *tar.Writer, name string, data []byte) error {
	hdr := &tar.Header{
		Typeflag: tar.TypeReg,
		Name:     name,
		Mode:     0644,
		Size:     int64(len(data)),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("unable to write the header of %s: %w", name, err)
	}
	_, err := tw.Write(data)
	return err
}

// EncodeZip writes the sequence to w as an uncompressed zip archive.
func (s *Sequence) EncodeZip(w io.Writer) error {
	files, err := s.Files()
	if err != nil {
		return err
	}

	zw := zip.NewWriter(w)
	for _, f := range files {
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: f.Path, Method: zip.Store})
		if err != nil {
			return fmt.Errorf("unable to add %s to the archive: %w", f.Path, err)
		}
		if _, err := fw.Write(f.Data); err != nil {
			return err
		}
	}
	return zw.Close()
}
