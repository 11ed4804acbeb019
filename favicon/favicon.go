// Package favicon builds favicon sets: PNG files laid out under icons/ plus
// a helper.html snippet with the matching <link> elements.
package favicon

import (
	"archive/tar"
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/esimov/ikon"
	"github.com/esimov/ikon/imop"
	"github.com/esimov/ikon/pngseq"
)

// HelperFile is the name of the HTML snippet stored next to the icons.
const HelperFile = "helper.html"

// Kind tells browsers how an entry is meant to be used.
type Kind uint8

const (
	// Icon is a generic favicon entry.
	Icon Kind = iota
	// AppleTouchIcon is an entry for the home screen of iOS devices.
	AppleTouchIcon
)

// Key identifies an entry of a favicon set.
type Key struct {
	kind Kind
	size int
}

// NewKey returns the key of an entry of the given kind and size.
func NewKey(kind Kind, size int) (Key, error) {
	if kind > AppleTouchIcon {
		return Key{}, fmt.Errorf("%w: unknown kind %d", ikon.ErrInvalidKey, kind)
	}
	if size < 1 {
		return Key{}, fmt.Errorf("%w: the size of an entry must be positive, got %d", ikon.ErrInvalidKey, size)
	}
	return Key{kind: kind, size: size}, nil
}

// Kind returns the kind of the entry.
func (k Key) Kind() Kind { return k.kind }

// Size returns the dimensions of the entry.
func (k Key) Size() ikon.Size { return ikon.Square(k.size) }

// Rel returns the value of the rel attribute of the entry's <link> element.
func (k Key) Rel() string {
	if k.kind == AppleTouchIcon {
		return "apple-touch-icon-precomposed"
	}
	return "icon"
}

// Path returns the location of the entry inside the set.
func (k Key) Path() string {
	if k.kind == AppleTouchIcon {
		return fmt.Sprintf("icons/apple-touch-%d.png", k.size)
	}
	return fmt.Sprintf("icons/favicon-%d.png", k.size)
}

func (k Key) String() string { return k.Path() }

// Less orders keys by size. Keys of the same size put Icon first.
func (k Key) Less(other Key) bool {
	if k.size != other.size {
		return k.size < other.size
	}
	return k.kind < other.kind
}

// ParseKey is the inverse of Key.Path.
func ParseKey(p string) (Key, error) {
	var (
		kind Kind
		size int
		rest string
	)
	switch {
	case strings.HasPrefix(p, "icons/favicon-"):
		kind, rest = Icon, strings.TrimPrefix(p, "icons/favicon-")
	case strings.HasPrefix(p, "icons/apple-touch-"):
		kind, rest = AppleTouchIcon, strings.TrimPrefix(p, "icons/apple-touch-")
	default:
		return Key{}, fmt.Errorf("%w: %q is not a favicon entry", ikon.ErrInvalidKey, p)
	}
	if _, err := fmt.Sscanf(rest, "%d.png", &size); err != nil {
		return Key{}, fmt.Errorf("%w: %q: %v", ikon.ErrInvalidKey, p, err)
	}
	key, err := NewKey(kind, size)
	if err != nil {
		return Key{}, err
	}
	if key.Path() != p {
		return Key{}, fmt.Errorf("%w: %q is not a favicon entry", ikon.ErrInvalidKey, p)
	}
	return key, nil
}

var (
	_ ikon.Encoder[Key] = (*Favicon)(nil)
	_ ikon.Decoder[Key] = (*Favicon)(nil)
	_ ikon.Saver        = (*Favicon)(nil)
)

// Favicon is a favicon set backed by a PNG sequence.
type Favicon struct {
	// TouchBackground, when set, fills the transparent areas of the Apple touch icons.
	TouchBackground color.Color

	seq  *pngseq.Sequence
	keys map[Key]pngseq.Key
}

// New returns an empty favicon set.
func New() *Favicon {
	return WithCapacity(8)
}

// WithCapacity returns an empty favicon set with room for n entries.
func WithCapacity(n int) *Favicon {
	return &Favicon{
		seq:  pngseq.WithCapacity(n),
		keys: make(map[Key]pngseq.Key, n),
	}
}

// AddEntry rescales source to the size of key and adds it to the set.
func (f *Favicon) AddEntry(filter ikon.Filter, source *ikon.Image, key Key) error {
	pk, err := f.pathKey(key)
	if err != nil {
		return err
	}
	if key.kind == AppleTouchIcon && f.TouchBackground != nil {
		if f.ContainsKey(key) {
			return &ikon.EncodingError{Key: key, Err: ikon.ErrAlreadyIncluded}
		}
		img, err := source.Rasterize(filter, key.Size())
		if err != nil {
			return &ikon.EncodingError{Key: key, Err: err}
		}
		return f.Insert(key, imop.Flatten(img, f.TouchBackground))
	}
	if err := f.seq.AddEntry(filter, source, pk); err != nil {
		return rekey(err, key)
	}
	f.keys[key] = pk

	return nil
}

// Insert stores an already rasterized image for key.
func (f *Favicon) Insert(key Key, img image.Image) error {
	pk, err := f.pathKey(key)
	if err != nil {
		return err
	}
	if err := f.seq.Insert(pk, img); err != nil {
		return rekey(err, key)
	}
	f.keys[key] = pk

	return nil
}

func (f *Favicon) pathKey(key Key) (pngseq.Key, error) {
	if _, err := NewKey(key.kind, key.size); err != nil {
		return pngseq.Key{}, &ikon.EncodingError{Key: key, Err: err}
	}
	pk, err := pngseq.NewKey(key.size, key.Path())
	if err != nil {
		return pngseq.Key{}, &ikon.EncodingError{Key: key, Err: err}
	}
	return pk, nil
}

// rekey reports errors of the underlying sequence against the favicon key.
func rekey(err error, key Key) error {
	var encErr *ikon.EncodingError
	if errors.As(err, &encErr) {
		return &ikon.EncodingError{Key: key, Err: encErr.Err}
	}
	return err
}

// Len returns the number of entries.
func (f *Favicon) Len() int { return len(f.keys) }

// ContainsKey reports whether the set has an entry for key.
func (f *Favicon) ContainsKey(key Key) bool {
	_, ok := f.keys[key]
	return ok
}

// Get returns the image associated with key.
func (f *Favicon) Get(key Key) (image.Image, bool) {
	pk, ok := f.keys[key]
	if !ok {
		return nil, false
	}
	return f.seq.Get(pk)
}

// Keys returns the keys of the set in ascending order.
func (f *Favicon) Keys() []Key {
	keys := make([]Key, 0, len(f.keys))
	for k := range f.keys {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// Entries returns the entries of the set in ascending key order.
func (f *Favicon) Entries() []ikon.Entry[Key] {
	keys := f.Keys()
	entries := make([]ikon.Entry[Key], len(keys))
	for i, k := range keys {
		img, _ := f.seq.Get(f.keys[k])
		entries[i] = ikon.Entry[Key]{Key: k, Image: img}
	}
	return entries
}

// HTML returns the <link> elements referencing every entry of the set.
func (f *Favicon) HTML() []byte {
	var buf bytes.Buffer
	for _, k := range f.Keys() {
		fmt.Fprintf(&buf, "<link rel=%q type=\"image/png\" sizes=\"%dx%d\" href=%q>\n",
			k.Rel(), k.size, k.size, k.Path())
	}
	return buf.Bytes()
}

// Encode writes the set to w as a tar archive holding the icons and the HTML helper.
func (f *Favicon) Encode(w io.Writer) error {
	tw := tar.NewWriter(w)
	if err := f.seq.WriteTar(tw); err != nil {
		return err
	}
	if err := pngseq.WriteTarFile(tw, HelperFile, f.HTML()); err != nil {
		return err
	}
	return tw.Close()
}

// Save stores the set at p. Existing regular files and paths ending in .tar
// receive the archive written by Encode, any other path is treated as a directory.
func (f *Favicon) Save(p string) error {
	fi, err := os.Stat(p)
	if (err == nil && fi.Mode().IsRegular()) || strings.EqualFold(filepath.Ext(p), ".tar") {
		return ikon.WriteFile(p, f.Encode)
	}
	if err := f.seq.SaveDir(p); err != nil {
		return err
	}
	return pngseq.WriteDirFile(p, HelperFile, f.HTML())
}
