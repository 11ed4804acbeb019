package ikon

import (
	"fmt"
	"image"
	"sort"
)

// Entry is a key-image pair stored inside an icon.
type Entry[K Key] struct {
	Key   K
	Image image.Image
}

// Family maps the keys of an icon format to their rasterized images.
// Each key can only be associated with a single image.
type Family[K Key] struct {
	images map[K]image.Image
	order  []K
	limit  int
}

// NewFamily returns an empty Family with room for capacity entries.
func NewFamily[K Key](capacity int) *Family[K] {
	return &Family[K]{
		images: make(map[K]image.Image, capacity),
		order:  make([]K, 0, capacity),
	}
}

// SetLimit caps the number of entries the family accepts. Zero means no limit.
func (f *Family[K]) SetLimit(n int) {
	f.limit = n
}

// AddEntry rasterizes source at the size of key, using filter for raster
// sources, and stores the result under key. A key already present in the
// family is rejected before any resampling takes place.
func (f *Family[K]) AddEntry(filter Filter, source *Image, key K) error {
	if err := f.check(key); err != nil {
		return err
	}
	img, err := source.Rasterize(filter, key.Size())
	if err != nil {
		return &EncodingError{Key: key, Err: err}
	}
	f.put(key, img)

	return nil
}

// Insert stores an already rasterized image under key.
func (f *Family[K]) Insert(key K, img image.Image) error {
	if err := f.check(key); err != nil {
		return err
	}
	if got := SizeOf(img); got != key.Size() {
		return &EncodingError{Key: key, Err: &ResampleError{Want: key.Size(), Got: got}}
	}
	f.put(key, img)

	return nil
}

func (f *Family[K]) check(key K) error {
	if _, ok := f.images[key]; ok {
		return &EncodingError{Key: key, Err: ErrAlreadyIncluded}
	}
	if f.limit > 0 && len(f.images) >= f.limit {
		return &EncodingError{Key: key, Err: fmt.Errorf("%w (%d entries)", ErrFull, f.limit)}
	}
	return nil
}

func (f *Family[K]) put(key K, img image.Image) {
	f.images[key] = img
	f.order = append(f.order, key)
}

// Len returns the number of entries.
func (f *Family[K]) Len() int {
	return len(f.images)
}

// Get returns the image associated with key.
func (f *Family[K]) Get(key K) (image.Image, bool) {
	img, ok := f.images[key]
	return img, ok
}

// ContainsKey reports whether the family has an entry for key.
func (f *Family[K]) ContainsKey(key K) bool {
	_, ok := f.images[key]
	return ok
}

// Keys returns the keys ordered from the smallest to the biggest size.
// Keys of equal size keep their insertion order.
func (f *Family[K]) Keys() []K {
	keys := make([]K, len(f.order))
	copy(keys, f.order)

	sort.SliceStable(keys, func(i, j int) bool {
		a, b := keys[i].Size(), keys[j].Size()
		if a.Width*a.Height != b.Width*b.Height {
			return a.Width*a.Height < b.Width*b.Height
		}
		return a.Width < b.Width
	})
	return keys
}

// Entries returns every entry of the family, ordered like Keys.
func (f *Family[K]) Entries() []Entry[K] {
	keys := f.Keys()
	entries := make([]Entry[K], 0, len(keys))
	for _, k := range keys {
		entries = append(entries, Entry[K]{Key: k, Image: f.images[k]})
	}
	return entries
}
